package productstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-arrower/productstore/alog"
)

const (
	metricPath = "/metrics"
	statusPath = "/status"
)

// StatusHandler serves the prometheus metrics and the system status of c.
func StatusHandler(c *Container) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricPath, promhttp.HandlerFor(
		c.Registry,
		promhttp.HandlerOpts{ //nolint:exhaustruct
			EnableOpenMetrics: true, // to enable Examplars in the export format
		},
	))

	mux.HandleFunc(statusPath, func(w http.ResponseWriter, r *http.Request) {
		status := getSystemStatus(r.Context(), c)

		code := http.StatusOK
		if status.Storage.Status != statusOnline {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)

		_ = json.NewEncoder(w).Encode(status)
	})

	return mux
}

func serveStatus(ctx context.Context, c *Container) *http.Server {
	srv := &http.Server{ //nolint:exhaustruct
		Addr:              fmt.Sprintf(":%d", c.Config.HTTP.StatusEndpointPort),
		Handler:           StatusHandler(c),
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	}

	c.Logger.InfoContext(ctx, "serving status endpoint",
		slog.String("addr", srv.Addr),
		slog.String("metric_path", metricPath),
		slog.String("status_path", statusPath),
	)

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Logger.InfoContext(ctx, "could not serve status endpoint", alog.Error(err))
		}
	}()

	return srv
}

const statusOnline = "online"

type systemStatus struct {
	Status           string        `json:"status"`
	Time             time.Time     `json:"time"`
	Uptime           string        `json:"uptime"`
	GitHash          string        `json:"gitHash"`
	OrganisationName string        `json:"organisationName"`
	ApplicationName  string        `json:"applicationName"`
	InstanceName     string        `json:"instanceName"`
	Environment      Environment   `json:"environment"`
	Web              HTTP          `json:"web"`
	Storage          storageStatus `json:"storage"`
}

type storageStatus struct {
	Driver Driver `json:"driver"`
	Config any    `json:"config,omitempty"`
	Status string `json:"status"`
}

func getSystemStatus(ctx context.Context, c *Container) systemStatus {
	var uptime time.Duration
	if !c.serverStartedAt.IsZero() {
		uptime = time.Since(c.serverStartedAt).Round(time.Second)
	}

	return systemStatus{
		Status:           statusOnline,
		Time:             time.Now(),
		Uptime:           uptime.String(),
		GitHash:          gitHash(),
		OrganisationName: c.Config.OrganisationName,
		ApplicationName:  c.Config.ApplicationName,
		InstanceName:     c.Config.InstanceName,
		Environment:      c.Config.Environment,
		Web:              c.Config.HTTP,
		Storage:          getStorageStatus(ctx, c),
	}
}

func getStorageStatus(ctx context.Context, c *Container) storageStatus {
	status := storageStatus{Driver: c.Config.Storage.Driver, Status: statusOnline}

	var err error

	switch {
	case c.Postgres != nil:
		status.Config = c.Config.Postgres
		err = c.Postgres.PGx.Ping(ctx)
	case c.MySQL != nil:
		status.Config = c.Config.MySQL
		err = c.MySQL.DB.PingContext(ctx)
	case c.SQLite != nil:
		status.Config = c.Config.SQLite
		err = c.SQLite.DB.PingContext(ctx)
	}

	if err != nil {
		status.Status = fmt.Errorf("err: %w", err).Error()
	}

	return status
}

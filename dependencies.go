package productstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	prometheusSDK "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/go-arrower/productstore/alog"
	"github.com/go-arrower/productstore/app"
	"github.com/go-arrower/productstore/httperr"
	"github.com/go-arrower/productstore/mysql"
	"github.com/go-arrower/productstore/openapi"
	"github.com/go-arrower/productstore/postgres"
	"github.com/go-arrower/productstore/sqlite"
)

var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrUnknownDriver     = errors.New("unknown storage driver")
)

// Container holds global dependencies that can be used within each Context, to make initialisation easier.
// Nothing is registered globally, so multiple Containers can live in one process, e.g. in tests.
type Container struct {
	Logger        alog.Logger
	MeterProvider *metric.MeterProvider
	TraceProvider *trace.TracerProvider
	// Registry is the prometheus registry all metrics of this Container are exposed from.
	Registry *prometheusSDK.Registry
	Validate *validator.Validate

	Config *Config

	// Only the handler of the configured Storage.Driver is set.
	Postgres *postgres.Handler
	MySQL    *mysql.Handler
	SQLite   *sqlite.Handler

	WebRouter    *echo.Echo
	ErrorHandler *httperr.Handler
	OpenAPI      *openapi.Document

	statusEndpoint  *http.Server
	serverStartedAt time.Time
}

// Instrumentation returns the dependencies to decorate use cases with.
func (c *Container) Instrumentation() app.Instrumentation {
	return app.Instrumentation{
		TraceProvider: c.TraceProvider,
		MeterProvider: c.MeterProvider,
		Logger:        c.Logger,
		Validate:      c.Validate,
	}
}

func (c *Container) EnsureAllDependenciesPresent() error {
	if c.Config == nil {
		return fmt.Errorf("%w: global config not found", ErrMissingDependency)
	}

	if c.Logger == nil || c.TraceProvider == nil || c.MeterProvider == nil {
		return fmt.Errorf("%w: observability not initialised", ErrMissingDependency)
	}

	if c.WebRouter == nil || c.ErrorHandler == nil || c.OpenAPI == nil {
		return fmt.Errorf("%w: web router not initialised", ErrMissingDependency)
	}

	return nil
}

// InitialiseDefaultDependencies sets up observability, connects to the configured storage and
// prepares the web router. The schema of each storage is taken from its Migrations in conf.
// Call Start to serve requests.
func InitialiseDefaultDependencies(ctx context.Context, conf *Config) (*Container, error) { //nolint:funlen // setup is long but linear
	if conf == nil {
		return nil, fmt.Errorf("%w: global config not found", ErrMissingDependency)
	}

	dc := &Container{
		Config:   conf,
		Registry: prometheusSDK.NewRegistry(),
		Validate: app.NewValidator(),
	}

	{ // observability
		res := resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(fmt.Sprintf("%s.%s", conf.OrganisationName, conf.ApplicationName)),
			attribute.String("environment", string(conf.Environment)),
			attribute.String("instance_name", conf.InstanceName),
		)

		{ // traces
			if conf.Environment == TestEnv || conf.OTEL.Port == 0 {
				// no otel endpoint to export to, so nothing is sampled
				dc.TraceProvider = trace.NewTracerProvider(
					trace.WithResource(res),
					trace.WithSampler(trace.NeverSample()),
				)
			} else {
				traceExporter, err := otlptracegrpc.New(ctx,
					otlptracegrpc.WithEndpoint(net.JoinHostPort(conf.OTEL.Host, strconv.Itoa(conf.OTEL.Port))),
					otlptracegrpc.WithInsecure(),
				)
				if err != nil {
					return nil, fmt.Errorf("could not connect to trace exporter: %w", err)
				}

				sampler := trace.ParentBased(trace.TraceIDRatioBased(0.6)) //nolint:mnd // sample 60% of new traces
				if conf.Environment == LocalEnv || conf.Debug {
					sampler = trace.AlwaysSample()
				}

				dc.TraceProvider = trace.NewTracerProvider(
					trace.WithBatcher(traceExporter),
					trace.WithResource(res),
					trace.WithSampler(sampler),
				)
			}
		}

		{ // metrics
			dc.Registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct
			)

			exporter, err := prometheus.New(prometheus.WithRegisterer(dc.Registry))
			if err != nil {
				return nil, fmt.Errorf("could not create prometheus exporter: %w", err)
			}

			dc.MeterProvider = metric.NewMeterProvider(
				metric.WithResource(res),
				metric.WithReader(exporter),
			)
		}
	}

	{ // logger
		var logger *slog.Logger

		switch {
		case conf.Environment == LocalEnv:
			logger = alog.NewDevelopment(conf.Loki.URL)
		case conf.Debug:
			logger = alog.NewJSON(os.Stderr, alog.LevelDebug)
		default:
			logger = alog.NewJSON(os.Stderr, slog.LevelInfo)
		}

		dc.Logger = logger.With(
			slog.String("organisation_name", conf.OrganisationName),
			slog.String("application_name", conf.ApplicationName),
			slog.String("instance_name", conf.InstanceName),
			slog.String("git_hash", gitHash()),
			slog.String("environment", string(conf.Environment)),
		)
	}

	if err := dc.connectStorage(ctx); err != nil {
		_ = dc.Shutdown(ctx)

		return nil, err
	}

	{ // web router
		router := echo.New()
		router.HideBanner = true
		router.HidePort = true
		router.Logger.SetOutput(io.Discard)
		router.Debug = conf.Environment == LocalEnv
		router.IPExtractor = echo.ExtractIPFromXFFHeader() // see: https://echo.labstack.com/docs/ip-address

		dc.ErrorHandler = httperr.New(dc.Logger)
		router.HTTPErrorHandler = dc.ErrorHandler.HandleError

		promMW, err := echoprometheus.MiddlewareConfig{ //nolint:exhaustruct // use defaults
			Subsystem:  conf.ApplicationName,
			Registerer: dc.Registry,
		}.ToMiddleware()
		if err != nil {
			_ = dc.Shutdown(ctx)

			return nil, fmt.Errorf("could not create metrics middleware: %w", err)
		}

		router.Use(middleware.Recover())
		router.Use(otelecho.Middleware(conf.OTEL.Hostname, otelecho.WithTracerProvider(dc.TraceProvider)))
		router.Use(promMW)
		router.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{ //nolint:exhaustruct // use defaults
			Generator:    uuid.NewString,
			TargetHeader: echo.HeaderXRequestID,
			RequestIDHandler: func(c echo.Context, rid string) {
				c.SetRequest(c.Request().WithContext(alog.AddAttr(
					c.Request().Context(),
					slog.String("request_id", rid)),
				))
			},
		}))

		dc.OpenAPI = openapi.New(conf.API.info())
		router.GET("/openapi.yaml", dc.OpenAPI.Handler())

		dc.WebRouter = router
	}

	return dc, nil
}

func (c *Container) connectStorage(ctx context.Context) error {
	var err error

	switch c.Config.Storage.Driver {
	case MemoryDriver, "":
		return nil
	case PostgresDriver:
		c.Postgres, err = postgres.ConnectAndMigrate(ctx, c.Config.Postgres, c.TraceProvider)
	case MySQLDriver:
		c.MySQL, err = mysql.ConnectAndMigrate(ctx, c.Config.MySQL)
	case SQLiteDriver:
		c.SQLite, err = sqlite.OpenAndMigrate(ctx, c.Config.SQLite)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, c.Config.Storage.Driver)
	}

	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", c.Config.Storage.Driver, err)
	}

	c.Logger.LogAttrs(ctx, alog.LevelInfo, "connected to storage", slog.String("driver", string(c.Config.Storage.Driver)))

	return nil
}

// Start serves the web router and the status endpoint.
// It does not block, errors while serving are logged.
func (c *Container) Start(ctx context.Context) error {
	if err := c.EnsureAllDependenciesPresent(); err != nil {
		return err
	}

	c.Logger.LogAttrs(ctx, alog.LevelInfo, "starting all servers")
	c.serverStartedAt = time.Now()

	if c.Config.HTTP.StatusEndpointEnabled {
		c.statusEndpoint = serveStatus(ctx, c)
	}

	go func() {
		err := c.WebRouter.Start(fmt.Sprintf(":%d", c.Config.HTTP.Port))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Logger.InfoContext(ctx, "could not serve http", alog.Error(err))
		}
	}()

	return nil
}

// Shutdown stops all servers and closes all connections.
// It continues on failure and returns all errors joined.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.Logger != nil {
		c.Logger.LogAttrs(ctx, alog.LevelInfo, "shutting down all servers")
	}

	if c.WebRouter != nil {
		errs = append(errs, c.WebRouter.Shutdown(ctx))
	}

	if c.statusEndpoint != nil {
		errs = append(errs, c.statusEndpoint.Shutdown(ctx))
	}

	if c.Postgres != nil {
		errs = append(errs, c.Postgres.Shutdown(ctx))
	}

	if c.MySQL != nil {
		errs = append(errs, c.MySQL.Shutdown(ctx))
	}

	if c.SQLite != nil {
		errs = append(errs, c.SQLite.Shutdown(ctx))
	}

	if c.TraceProvider != nil {
		errs = append(errs, c.TraceProvider.Shutdown(ctx))
	}

	if c.MeterProvider != nil {
		errs = append(errs, c.MeterProvider.Shutdown(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	return nil
}

func (a API) info() (openapi.Info, *openapi.ExternalDocs) {
	info := openapi.Info{
		Title:          a.Title,
		Description:    a.Description,
		TermsOfService: a.TermsOfService,
		Version:        a.Version,
	}

	if a.ContactName != "" || a.ContactURL != "" || a.ContactEmail != "" {
		info.Contact = &openapi.Contact{Name: a.ContactName, URL: a.ContactURL, Email: a.ContactEmail}
	}

	if a.License != "" {
		info.License = &openapi.License{Name: a.License, URL: a.LicenseURL}
	}

	if a.ExternalDocURL == "" {
		return info, nil
	}

	return info, &openapi.ExternalDocs{Description: a.ExternalDocDesc, URL: a.ExternalDocURL}
}

func gitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "unknown"
}

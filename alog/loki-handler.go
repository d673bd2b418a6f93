package alog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/afiskon/promtail-client/promtail"
)

const (
	defaultLokiPushURL    = "http://localhost:3100/api/prom/push"
	lokiReconnectInterval = 15 * time.Second
)

type LokiHandlerOptions struct {
	Labels  map[string]string
	PushURL string
}

// NewLokiHandler ships every record to a loki instance. Use it only for local development!
//
// In production, log to Stderr and let the container runtime ship the logs.
// If loki is not reachable, records are dropped and the connection is retried in the background.
func NewLokiHandler(opt *LokiHandlerOptions) *LokiHandler {
	conf := promtailConfig(opt)

	buf := &bytes.Buffer{}
	handler := &LokiHandler{
		state: &lokiState{},
		renderer: slog.NewJSONHandler(buf, &slog.HandlerOptions{
			Level:       LevelDebug,
			ReplaceAttr: MapLogLevelsToName,
		}),
		output: buf,
	}

	if client := newPromtailClient(conf); client != nil {
		handler.state.client = client
	} else {
		go handler.reconnect(conf)
	}

	return handler
}

// LokiHandler is a slog.Handler pushing to loki via promtail.
type LokiHandler struct {
	state *lokiState

	renderer slog.Handler
	output   *bytes.Buffer
}

// lokiState is shared between all copies of a LokiHandler.
type lokiState struct {
	mu     sync.Mutex
	client promtail.Client
}

var _ slog.Handler = (*LokiHandler)(nil)

func (l *LokiHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (l *LokiHandler) Handle(ctx context.Context, record slog.Record) error {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if l.state.client == nil {
		return nil
	}

	defer l.output.Reset()

	if err := l.renderer.Handle(ctx, record); err != nil {
		return fmt.Errorf("could not render record for loki: %w", err)
	}

	// attributes go into the line, as labels with a high cardinality kill loki:
	// https://grafana.com/docs/loki/latest/fundamentals/labels/#cardinality
	l.state.client.Infof("%s", strings.TrimSpace(l.output.String()))

	return nil
}

func (l *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LokiHandler{state: l.state, renderer: l.renderer.WithAttrs(attrs), output: l.output}
}

func (l *LokiHandler) WithGroup(name string) slog.Handler {
	return &LokiHandler{state: l.state, renderer: l.renderer.WithGroup(name), output: l.output}
}

func (l *LokiHandler) reconnect(conf promtail.ClientConfig) {
	ticker := time.NewTicker(lokiReconnectInterval)
	defer ticker.Stop()

	for range ticker.C {
		client := newPromtailClient(conf)
		if client == nil {
			continue
		}

		l.state.mu.Lock()
		l.state.client = client
		l.state.mu.Unlock()

		return
	}
}

func promtailConfig(opt *LokiHandlerOptions) promtail.ClientConfig {
	if opt == nil {
		opt = &LokiHandlerOptions{}
	}

	pushURL := opt.PushURL
	if pushURL == "" {
		pushURL = defaultLokiPushURL
	}

	labels := opt.Labels
	if len(labels) == 0 {
		labels = map[string]string{"service": "productstore"}
	}

	return promtail.ClientConfig{
		PushURL:            pushURL,
		Labels:             formatLokiLabels(labels),
		BatchWait:          time.Second,
		BatchEntriesNumber: 1,
		SendLevel:          promtail.DEBUG,
		PrintLevel:         promtail.DISABLE,
	}
}

// formatLokiLabels renders labels in the stream selector format: {a="b",c="d"}.
func formatLokiLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, labels[k]))
	}

	return "{" + strings.Join(pairs, ",") + "}"
}

// newPromtailClient returns nil, if loki is not reachable.
func newPromtailClient(conf promtail.ClientConfig) promtail.Client { //nolint:ireturn // promtail only returns the interface
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, conf.PushURL, nil)
	if err != nil {
		return nil
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}

	_ = res.Body.Close()

	client, err := promtail.NewClientJson(conf)
	if err != nil {
		return nil
	}

	return client
}

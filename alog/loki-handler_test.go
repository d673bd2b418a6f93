package alog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLokiLabels(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		labels   map[string]string
		expected string
	}{
		"single": {map[string]string{"service": "productstore"}, `{service="productstore"}`},
		"sorted": {map[string]string{"env": "local", "app": "store"}, `{app="store",env="local"}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, formatLokiLabels(tc.labels))
		})
	}
}

func TestPromtailConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		conf := promtailConfig(nil)
		assert.Equal(t, defaultLokiPushURL, conf.PushURL)
		assert.Equal(t, `{service="productstore"}`, conf.Labels)
	})

	t.Run("custom url", func(t *testing.T) {
		t.Parallel()

		conf := promtailConfig(&LokiHandlerOptions{PushURL: "http://loki:3100/api/prom/push"})
		assert.Equal(t, "http://loki:3100/api/prom/push", conf.PushURL)
	})
}

package alog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-arrower/productstore/alog"
)

func TestTestLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level is debug", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(t)
		logger.Log(ctx, alog.LevelDebug, "debug msg")

		assert.Contains(t, logger.String(), "debug msg")
		assert.Contains(t, logger.String(), "STORE:DEBUG")
	})

	t.Run("with group", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(t)
		logger.WithGroup("GROUP").DebugContext(ctx, "msg group", "some", "key")

		logger.Contains("GROUP.some=key")
	})

	t.Run("lines", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(t)
		logger.DebugContext(ctx, "line 0")
		logger.DebugContext(ctx, "line 1")

		assert.Len(t, logger.Lines(), 2)
		assert.Contains(t, logger.Lines()[0], `msg="line 0"`)
		assert.Contains(t, logger.Lines()[1], `msg="line 1"`)
	})
}

func TestTestLogger_Assertions(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(new(testing.T))
		assert.True(t, logger.Empty())
		assert.False(t, logger.NotEmpty())

		logger.InfoContext(ctx, "msg")
		assert.False(t, logger.Empty())
		assert.True(t, logger.NotEmpty())
	})

	t.Run("contains", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(new(testing.T))
		logger.InfoContext(ctx, "product created", "productId", 7)

		assert.True(t, logger.Contains("productId=7"))
		assert.False(t, logger.Contains("productId=8"))
		assert.True(t, logger.NotContains("productId=8"))
		assert.False(t, logger.NotContains("created"))
	})

	t.Run("total", func(t *testing.T) {
		t.Parallel()

		logger := alog.Test(new(testing.T))
		logger.InfoContext(ctx, "0")
		logger.InfoContext(ctx, "1")

		assert.True(t, logger.Total(2))
		assert.False(t, logger.Total(1))
	})
}

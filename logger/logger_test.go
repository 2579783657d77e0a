package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/influxdata/hllop/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_New(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		c := logger.Config{Format: "json", Level: zapcore.InfoLevel}
		log, err := c.New(&buf)
		require.NoError(t, err)

		log.Debug("hidden")
		log.Info("Appended hll operation", zap.String("bin", "b"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Appended hll operation", entry["msg"])
		assert.Equal(t, "b", entry["bin"])
		assert.Equal(t, "info", entry["level"])
	})

	t.Run("logfmt", func(t *testing.T) {
		var buf bytes.Buffer
		c := logger.Config{Format: "logfmt", Level: zapcore.DebugLevel}
		log, err := c.New(&buf)
		require.NoError(t, err)

		log.Debug("Rejected hll operation", zap.String("op", "hll_add"))
		assert.Contains(t, buf.String(), `msg="Rejected hll operation"`)
		assert.Contains(t, buf.String(), "op=hll_add")
	})

	t.Run("auto is logfmt off a terminal", func(t *testing.T) {
		var buf bytes.Buffer
		c := logger.NewConfig()
		log, err := c.New(&buf)
		require.NoError(t, err)

		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("unknown format", func(t *testing.T) {
		c := logger.Config{Format: "xml"}
		_, err := c.New(&bytes.Buffer{})
		require.Error(t, err)
	})
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, logger.FromContext(ctx))

	fallback := zap.NewNop()
	assert.Same(t, fallback, logger.FromContextOr(ctx, fallback))

	log := zap.NewExample()
	ctx = logger.NewContextWithLogger(ctx, log)
	assert.Same(t, log, logger.FromContext(ctx))
	assert.Same(t, log, logger.FromContextOr(ctx, fallback))
}

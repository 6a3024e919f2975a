package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platekit/platekit/pkg/logger"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatJSON))
		log.Info("hello", slog.String("key", "value"))

		record := logLine(t, &buf)
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "value", record["key"])
	})

	t.Run("text output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithService("platekit"),
			logger.WithAttr(slog.String("env", "test")),
		)
		log.Info("hello")

		record := logLine(t, &buf)
		assert.Equal(t, "platekit", record["service"])
		assert.Equal(t, "test", record["env"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}

	extractor := func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(ctxKey{}).(string); ok {
			return slog.String("tenant_alias", v), true
		}
		return slog.Attr{}, false
	}

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(extractor, nil))

	t.Run("injects attributes from the context", func(t *testing.T) {
		buf.Reset()
		ctx := context.WithValue(context.Background(), ctxKey{}, "client_7")
		log.InfoContext(ctx, "scoped")

		record := logLine(t, &buf)
		assert.Equal(t, "client_7", record["tenant_alias"])
	})

	t.Run("absent context value adds nothing", func(t *testing.T) {
		buf.Reset()
		log.InfoContext(context.Background(), "unscoped")

		record := logLine(t, &buf)
		assert.NotContains(t, record, "tenant_alias")
	})
}

func TestContextHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logger.NewContextHandler(slog.NewJSONHandler(&buf, nil))
	log := slog.New(base).With(slog.String("component", "store"))
	log.Info("hello")

	record := logLine(t, &buf)
	assert.Equal(t, "store", record["component"])
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)

	assert.Equal(t, slog.Attr{}, logger.Alias(""))
	attr := logger.Alias("client_7")
	assert.Equal(t, "tenant_alias", attr.Key)
	assert.Equal(t, "client_7", attr.Value.String())
}

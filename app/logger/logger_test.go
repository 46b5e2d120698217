package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestContextHandlerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	ctx := WithRequestID(context.Background(), "abc-123")
	l.InfoContext(ctx, "hello")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc-123", entry[RequestIDKey])
}

func TestContextHandlerWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info").With("component", "test")

	l.Info("hello")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "test", entry["component"])
	assert.NotContains(t, entry, RequestIDKey)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("quiet")
	assert.Zero(t, buf.Len())

	l.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	gl := NewGormLogger(New(&buf, "debug"))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("record not found is not an error", func(t *testing.T) {
		buf.Reset()
		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.NotContains(t, buf.String(), "sql error")
	})

	t.Run("errors are logged", func(t *testing.T) {
		buf.Reset()
		gl.Trace(context.Background(), time.Now(), sql, errors.New("syntax"))
		assert.Contains(t, buf.String(), "sql error")
		assert.Contains(t, buf.String(), "SELECT 1")
	})

	t.Run("silent mode", func(t *testing.T) {
		buf.Reset()
		gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("syntax"))
		assert.Zero(t, buf.Len())
	})
}

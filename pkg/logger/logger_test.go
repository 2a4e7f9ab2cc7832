package logger

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "json", slog.LevelInfo))

	log.Info("hello", "short_code", "abc123")
	log.Debug("hidden")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"short_code":"abc123"`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInitialize_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Initialize(Config{Level: "info", Format: "text", OutputPath: path, MaxSize: 1}))
	assert.NotNil(t, Get())
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.NotNil(t, FromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.NotEmpty(t, NewRequestID())
}

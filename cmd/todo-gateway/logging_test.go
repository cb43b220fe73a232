package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/todo-gateway/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("created", "todoId", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "created", line["msg"])
	assert.Equal(t, "abc", line["todoId"])
}

func TestColorHandler_Text(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

	logger.With("component", "gateway").WithGroup("req").Warn("slow", "status", 503)

	out := buf.String()
	assert.Contains(t, out, "WRN slow")
	assert.Contains(t, out, "component=gateway")
	assert.Contains(t, out, "req.status=503")
}

func TestRunInitDefaults(t *testing.T) {
	t.Setenv("TODO_DB_PATH", "")
	path := filepath.Join(t.TempDir(), "todo-gateway", "config.yaml")

	require.NoError(t, runInitDefaults(path))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)

	assert.Error(t, runInitDefaults(path), "existing config must not be overwritten")
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("TODO_CONFIG", "/etc/todo.yaml")
	assert.Equal(t, "/etc/todo.yaml", getConfigPath())

	t.Setenv("TODO_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/todo-gateway/config.yaml", getConfigPath())
}

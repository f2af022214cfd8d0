package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("json formatter and level", func(t *testing.T) {
		cfg := &config.Config{Logging: config.LoggingConfig{Level: "warn", Format: "json"}}
		log, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, logrus.WarnLevel, log.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		cfg := &config.Config{Logging: config.LoggingConfig{Level: "loud", Format: "text"}}
		log, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	})

	t.Run("writes to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		cfg := &config.Config{Logging: config.LoggingConfig{Level: "info", Format: "json", File: path}}
		log, err := New(cfg)
		require.NoError(t, err)

		log.WithField("component", "test").Info("hello")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"component":"test"`)
	})
}

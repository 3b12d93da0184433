package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestGetLogger(t *testing.T) {
	t.Run("falls back to global logger", func(t *testing.T) {
		entry := G(context.Background())
		assert.Equal(t, L.Logger, entry.Logger)
	})

	t.Run("returns logger attached to context", func(t *testing.T) {
		custom := logrus.NewEntry(logrus.New()).WithField("run_id", "abc")
		ctx := WithLogger(context.Background(), custom)

		entry := G(ctx)
		assert.Equal(t, custom.Logger, entry.Logger)
		assert.Equal(t, "abc", entry.Data["run_id"])
	})
}

func TestConfigure(t *testing.T) {
	originalLevel := L.Logger.GetLevel()
	originalFormatter := L.Logger.Formatter
	defer func() {
		L.Logger.SetLevel(originalLevel)
		L.Logger.Formatter = originalFormatter
	}()

	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, L.Logger.Formatter)

	err := Configure("chatty", "fmt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestJSONFormatFieldNames(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	setLoggerFormat(logger, "json")

	logger.WithField("skill", ".curated/git-status").Info("checked skill")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "checked skill", entry["message"])
	assert.Equal(t, "info", entry["logLevel"])
	assert.Equal(t, ".curated/git-status", entry["skill"])
	assert.Contains(t, entry, "timestamp")
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egobogo/trellosync/internal/config"
)

func TestJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LogConfig{Level: "WARN", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("component", "client").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "client", line["component"])
	assert.Equal(t, "warn", line["level"])
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LogConfig{}, &buf)
	require.NoError(t, err)
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewWithWriter(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = NewWithWriter(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

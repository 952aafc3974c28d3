package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/internal/platform/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "json"})

	log.Info("dropped")
	log.Warn("issuer removed", "issuer", "0xc1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "issuer removed", entry["msg"])
	assert.Equal(t, "skillchain", entry["service"])
	assert.Equal(t, "0xc1", entry["issuer"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "text"})
	log.Debug("cache miss", "token_id", 7)
	assert.Contains(t, buf.String(), "token_id=7")
}

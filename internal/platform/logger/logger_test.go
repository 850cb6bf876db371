package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", ServiceName: "hr-recruitment", Version: "test", Output: &buf})

	log.Info().Str("entity_id", "jd-1").Msg("Entity submitted")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hr-recruitment", line["service"])
	assert.Equal(t, "jd-1", line["entity_id"])
	assert.Equal(t, "Entity submitted", line["message"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

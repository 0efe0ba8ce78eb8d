package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestLogWithFields(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	logWithFields(zl.Info(), "tick", "buses", 4, "error", errors.New("boom"), 7, "dropped")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "tick", got["message"])
	assert.Equal(t, float64(4), got["buses"])
	assert.Equal(t, "boom", got["error"])
	assert.NotContains(t, got, "7")
}

func TestLogWithFieldsMap(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	logWithFields(zl.Warn(), "login", map[string]interface{}{"email": "a@b.c"})

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "a@b.c", got["email"])
	assert.Equal(t, "warn", got["level"])
}

func TestLogBeforeInitIsSilent(t *testing.T) {
	assert.NotPanics(t, func() { Info("nothing configured yet", "k", "v") })
}

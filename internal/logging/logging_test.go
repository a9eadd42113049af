package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug", "json")
	logger.Debug().Str("component", "test").Msg("hello")

	line := buf.String()
	assert.True(t, gjson.Valid(line))
	assert.Equal(t, gjson.Get(line, "level").String(), "debug")
	assert.Equal(t, gjson.Get(line, "service").String(), "fxsentinel")
	assert.Equal(t, gjson.Get(line, "component").String(), "test")
	assert.Equal(t, gjson.Get(line, "message").String(), "hello")
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "json")
	logger.Info().Msg("dropped")
	assert.Equal(t, buf.Len(), 0)

	logger.Warn().Msg("kept")
	assert.True(t, strings.Contains(buf.String(), "kept"))
}

func TestNewWithWriter_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "loud", "json")
	logger.Debug().Msg("dropped")
	assert.Equal(t, buf.Len(), 0)
	logger.Info().Msg("kept")
	assert.True(t, buf.Len() > 0)
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "console")
	logger.Info().Msg("readable")
	assert.False(t, gjson.Valid(buf.String()))
	assert.True(t, strings.Contains(buf.String(), "readable"))
}

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahuri-backend/config"
	"tahuri-backend/logger/sl"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.EnvProduction, &buf)

	log.Debug("hidden")
	log.Info("checked in", sl.Err(errors.New("boom")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "checked in", line["msg"])
	assert.Equal(t, "boom", line["error"])
}

func TestNewLocalWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.EnvLocal, &buf)

	log.Debug("search", "q", "budi")
	assert.Contains(t, buf.String(), "msg=search")
	assert.Contains(t, buf.String(), "q=budi")
}

package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/logger"
)

func TestNew_ProduccionEscribeJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "warn", Out: &buf})

	log.Info().Msg("descartado por nivel")
	log.Warn().Str("stock_item_id", "si-1").Msg("existencia negativa")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "si-1", entry["stock_item_id"])
	assert.Equal(t, "existencia negativa", entry["message"])
}

func TestNop(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() { log.Error().Msg("nada") })
}

func TestComponentYService(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "INFO", Out: &buf, Service: "inventario"})

	log.Component("importer").Info().Int("chunk", 2).Msg("bloque confirmado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "inventario", entry["service"])
	assert.Equal(t, "importer", entry["component"])
	assert.EqualValues(t, 2, entry["chunk"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel(" Debug "))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("verboso"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
}

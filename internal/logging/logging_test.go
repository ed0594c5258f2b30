package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerMultiWriter(t *testing.T) {
	var console, file bytes.Buffer

	logger := NewLogger(&console, &file)
	logger.Info().Str("label", "5m04s").Msg("photo saved")

	// One log call reaches both sinks.
	assert.Contains(t, console.String(), "photo saved")
	assert.Contains(t, file.String(), "photo saved")
	assert.Contains(t, file.String(), "5m04s")
}

func TestNewLoggerSingleWriter(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf)
	logger.Info().Msg("single sink")

	assert.Contains(t, buf.String(), "single sink")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })

	l := WithComponent("nfscopy")
	l.Info().Msg("copied")

	assert.Contains(t, buf.String(), `"component":"nfscopy"`)
	assert.Contains(t, buf.String(), "copied")
}

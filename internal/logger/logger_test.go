package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, logger.InfoLevel, logger.ParseLevel("info"))
	assert.Equal(t, logger.WarnLevel, logger.ParseLevel("warning"))
	assert.Equal(t, logger.ErrorLevel, logger.ParseLevel("error"))
	assert.Equal(t, logger.InfoLevel, logger.ParseLevel("bogus"))
}

func TestComponentLogger(t *testing.T) {
	logger.SetLogLevel(logger.DebugLevel)
	defer logger.SetLogLevel(logger.InfoLevel)

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf).With("sampler")

	log.Info().Int("distance_mm", 120).Msg("Range sample")
	log.ErrorWithCode(errors.New().New(errors.ErrTimeout)).Msg("Push failed")

	out := buf.String()
	assert.Contains(t, out, "Range sample")
	assert.Contains(t, out, "distance_mm=120")
	assert.Contains(t, out, "component=sampler")
	assert.Contains(t, out, "error_code=operation_timeout")
}

func TestNopLogger(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() {
		log.Debug().Str("k", "v").Msg("ignored")
		log.With("x").Warn().Send()
	})
}

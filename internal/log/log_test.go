package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetLevelFiltersEvents(t *testing.T) {
	saved := L
	defer func() { L = saved }()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(zerolog.WarnLevel)

	Info().Msg("hidden")
	Warn().Str("service", "svc").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"service":"svc"`)
	assert.Contains(t, out, "shown")
}

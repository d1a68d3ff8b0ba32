package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponent(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	Setup(zerolog.New(&buf))

	logger := Component("overlay")
	logger.Info().Ctx(WithOp(context.Background(), "render")).Msg("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "overlay", entry["cmp"])
	assert.Equal(t, "render", entry["op"])
	assert.Equal(t, "test message", entry["message"])
}

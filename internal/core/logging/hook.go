package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts buffer and op from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if op := GetOp(ctx); op != "" {
		e.Str("op", op)
	}

	if buffer := GetBuffer(ctx); buffer != "" {
		e.Str("buffer", buffer)
	}
}

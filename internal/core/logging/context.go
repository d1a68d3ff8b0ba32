package logging

import "context"

type contextKey string

const (
	bufferKey contextKey = "buffer"
	opKey     contextKey = "op"
)

// WithBuffer adds the name of the buffer being operated on to the context.
func WithBuffer(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, bufferKey, name)
}

// WithOp adds the name of the editor operation to the context.
func WithOp(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, opKey, op)
}

// GetBuffer retrieves the buffer name from the context.
// Returns empty string if not present.
func GetBuffer(ctx context.Context) string {
	if name, ok := ctx.Value(bufferKey).(string); ok {
		return name
	}
	return ""
}

// GetOp retrieves the operation name from the context.
// Returns empty string if not present.
func GetOp(ctx context.Context) string {
	if op, ok := ctx.Value(opKey).(string); ok {
		return op
	}
	return ""
}

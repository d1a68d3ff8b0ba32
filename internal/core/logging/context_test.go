package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetBuffer(ctx))
	assert.Empty(t, GetOp(ctx))

	ctx = WithBuffer(ctx, "/src/main.py")
	ctx = WithOp(ctx, "goto")

	assert.Equal(t, "/src/main.py", GetBuffer(ctx))
	assert.Equal(t, "goto", GetOp(ctx))
}

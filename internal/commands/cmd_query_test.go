package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/printer"
	"github.com/hay-kot/pysense/internal/pysense"
)

func TestQueryCmd_FailJSON(t *testing.T) {
	var errOut bytes.Buffer
	c := &cli.Command{Name: "goto", ErrWriter: &errOut}
	cmd := NewQueryCmd(&Flags{}, pysense.KindGoto)
	cmd.jsonOutput = true

	req := analysis.Request{Path: "/src/main.py", Row: 3, Column: 4}
	err := cmd.fail(context.Background(), c, req, pysense.MsgFailed, errors.New("parse failed"))

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.JSONEq(t, `{
		"message": "Some different error, this shouldn't happen.",
		"data": {"kind": "goto", "file": "/src/main.py", "row": 3, "col": 4, "error": "parse failed"}
	}`, errOut.String())
}

func TestQueryCmd_FailText(t *testing.T) {
	var out bytes.Buffer
	ctx := printer.NewContext(context.Background(), printer.New(&out))
	cmd := NewQueryCmd(&Flags{}, pysense.KindDefinition)

	err := cmd.fail(ctx, &cli.Command{Name: "definition"}, analysis.Request{}, pysense.MsgNoDefinitions, nil)
	require.Error(t, err)
	assert.Contains(t, out.String(), pysense.MsgNoDefinitions)

	err = cmd.fail(ctx, &cli.Command{Name: "definition"}, analysis.Request{}, pysense.MsgFailed, errors.New("boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definition: boom")
}

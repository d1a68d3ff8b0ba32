package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/analysis"
)

func TestPosition_Request(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\nprint(x)\n"), 0o644))

	var got analysis.Request
	newApp := func() *cli.Command {
		pos := &position{}
		return &cli.Command{
			Name:  "query",
			Flags: pos.flags(),
			Action: func(ctx context.Context, c *cli.Command) error {
				var err error
				got, err = pos.request(c)
				return err
			},
		}
	}

	require.NoError(t, newApp().Run(context.Background(), []string{"query", "--row", "2", "--col", "6", path}))
	assert.Equal(t, path, got.Path)
	assert.Equal(t, 2, got.Row)
	assert.Equal(t, 6, got.Column)
	assert.Equal(t, "x = 1\nprint(x)\n", string(got.Source))

	err := newApp().Run(context.Background(), []string{"query", "--row", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one FILE")
}

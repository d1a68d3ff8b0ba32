package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/analysis/python"
	"github.com/hay-kot/pysense/internal/core/config"
	"github.com/hay-kot/pysense/internal/core/logging"
)

func newEngine(cfg *config.Config) *python.Engine {
	return python.New(
		python.WithPaths(cfg.Python.Paths...),
		python.WithMaxFileSize(cfg.Python.MaxFileSize),
		python.WithLogger(logging.Component("engine")),
	)
}

// position is the file and cursor shared by the query commands.
type position struct {
	row int
	col int
}

func (p *position) flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "row",
			Usage:       "1-indexed cursor row",
			Required:    true,
			Destination: &p.row,
		},
		&cli.IntFlag{
			Name:        "col",
			Usage:       "0-indexed cursor byte column",
			Destination: &p.col,
		},
	}
}

func (p *position) request(c *cli.Command) (analysis.Request, error) {
	if c.Args().Len() != 1 {
		return analysis.Request{}, fmt.Errorf("expected exactly one FILE argument, got %d", c.Args().Len())
	}

	path, err := filepath.Abs(c.Args().First())
	if err != nil {
		return analysis.Request{}, fmt.Errorf("resolve path: %w", err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return analysis.Request{}, fmt.Errorf("read file: %w", err)
	}

	return analysis.Request{
		Source: src,
		Row:    p.row,
		Column: p.col,
		Path:   path,
	}, nil
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/overlay"
	"github.com/hay-kot/pysense/pkg/iojson"
)

// RenderInput is the JSON document read by the render command.
type RenderInput struct {
	Lines     []string           `json:"lines"`
	Signature *overlay.Signature `json:"signature"`
}

type RenderCmd struct {
	flags  *Flags
	reader iojson.FileReader[RenderInput]

	// flags
	strip bool
}

// NewRenderCmd creates a new render command.
func NewRenderCmd(flags *Flags) *RenderCmd {
	return &RenderCmd{flags: flags}
}

// Register adds the render command to the application.
func (cmd *RenderCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "render",
		Usage:     "Splice a signature hint into lines of text",
		UsageText: "pysense render [-f input.json] [--strip]",
		Description: `Reads {"lines": [...], "signature": {...}} and prints the lines with the
hint spliced in, exactly as the editor would display them.

With --strip, removes every overlay marker from the lines instead and ignores
the signature.`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
			&cli.BoolFlag{
				Name:        "strip",
				Usage:       "remove overlay markers instead of rendering",
				Destination: &cmd.strip,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RenderCmd) run(ctx context.Context, c *cli.Command) error {
	input, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	lines, err := render(input, cmd.flags.Config.Escape, cmd.strip)
	if err != nil {
		return err
	}

	return writeLines(c.Root().Writer, lines)
}

func render(input RenderInput, escape string, strip bool) ([]string, error) {
	buf := lineBuffer(append([]string(nil), input.Lines...))

	if strip {
		for i, line := range buf {
			buf[i], _ = overlay.Strip(line, escape)
		}
		return buf, nil
	}

	if _, err := overlay.NewRenderer(escape).Render(buf, input.Signature); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf, nil
}

// lineBuffer is an in-memory overlay.LineAccessor.
type lineBuffer []string

func (b lineBuffer) Line(row int) (string, error) {
	if row < 1 || row > len(b) {
		return "", fmt.Errorf("row %d out of range", row)
	}
	return b[row-1], nil
}

func (b lineBuffer) SetLine(row int, text string) error {
	if row < 1 || row > len(b) {
		return fmt.Errorf("row %d out of range", row)
	}
	b[row-1] = text
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

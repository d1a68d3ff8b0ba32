package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/logging"
	"github.com/hay-kot/pysense/internal/printer"
	"github.com/hay-kot/pysense/internal/pysense"
	"github.com/hay-kot/pysense/pkg/iojson"
)

type QueryCmd struct {
	flags *Flags
	kind  pysense.GotoKind
	pos   position

	// flags
	jsonOutput bool
}

// NewQueryCmd creates a navigation command for kind.
func NewQueryCmd(flags *Flags, kind pysense.GotoKind) *QueryCmd {
	return &QueryCmd{flags: flags, kind: kind}
}

var queryUsage = map[pysense.GotoKind]string{
	pysense.KindGoto:       "Show where the name under the cursor is bound",
	pysense.KindDefinition: "Show the definition of the name under the cursor, following imports",
	pysense.KindRelated:    "List every reference to the name under the cursor",
}

// Register adds the query command to the application.
func (cmd *QueryCmd) Register(app *cli.Command) *cli.Command {
	flags := append(cmd.pos.flags(), &cli.BoolFlag{
		Name:        "json",
		Usage:       "output definitions as JSON lines",
		Destination: &cmd.jsonOutput,
	})

	app.Commands = append(app.Commands, &cli.Command{
		Name:      string(cmd.kind),
		Usage:     queryUsage[cmd.kind],
		UsageText: fmt.Sprintf("pysense %s FILE --row N [--col N] [--json]", cmd.kind),
		Description: `Runs the same query as the editor mapping against a file on disk.

Rows are 1-indexed, columns are 0-indexed byte offsets.`,
		Flags:  flags,
		Action: cmd.run,
	})

	return app
}

func (cmd *QueryCmd) run(ctx context.Context, c *cli.Command) error {
	req, err := cmd.pos.request(c)
	if err != nil {
		return err
	}

	ctx = logging.WithOp(logging.WithBuffer(ctx, req.Path), string(cmd.kind))
	res := pysense.Query(ctx, newEngine(cmd.flags.Config), cmd.kind, req)

	switch res.Kind {
	case analysis.NotFound:
		return cmd.fail(ctx, c, req, pysense.MsgNothing, nil)
	case analysis.Failed:
		log.Error().Ctx(ctx).Err(res.Err).Msg("lookup failed")
		return cmd.fail(ctx, c, req, pysense.MsgFailed, res.Err)
	}

	if len(res.Definitions) == 0 {
		return cmd.fail(ctx, c, req, pysense.MsgNoDefinitions, nil)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, d := range res.Definitions {
			if err := iojson.WriteLine(out, d); err != nil {
				return fmt.Errorf("encode definition: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range res.Definitions {
		switch {
		case d.Keyword:
			_, _ = fmt.Fprintf(w, "%s\t%s\n", printer.Muted("keyword"), d.Name)
		case d.Builtin:
			_, _ = fmt.Fprintf(w, "%s\t%s\n", printer.Muted("builtin"), d.Description)
		default:
			_, _ = fmt.Fprintf(w, "%s:%d:%d\t%s\n", d.ModulePath, d.Line, d.Column+1, d.Description)
		}
	}
	return w.Flush()
}

// fail reports a lookup without results, as a JSON error document in --json
// mode and as a warning otherwise, and exits non-zero.
func (cmd *QueryCmd) fail(ctx context.Context, c *cli.Command, req analysis.Request, msg string, cause error) error {
	if cmd.jsonOutput {
		data := map[string]any{
			"kind": string(cmd.kind),
			"file": req.Path,
			"row":  req.Row,
			"col":  req.Column,
		}
		if cause != nil {
			data["error"] = cause.Error()
		}
		if err := iojson.WriteError(c.Root().ErrWriter, msg, data); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}

	if cause != nil {
		return fmt.Errorf("%s: %w", cmd.kind, cause)
	}
	printer.Ctx(ctx).Warnf("%s", msg)
	return cli.Exit("", 1)
}

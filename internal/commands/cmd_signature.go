package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/logging"
	"github.com/hay-kot/pysense/internal/core/overlay"
	"github.com/hay-kot/pysense/internal/printer"
	"github.com/hay-kot/pysense/pkg/iojson"
)

type SignatureCmd struct {
	flags *Flags
	pos   position

	// flags
	jsonOutput bool
}

// NewSignatureCmd creates a new signature command.
func NewSignatureCmd(flags *Flags) *SignatureCmd {
	return &SignatureCmd{flags: flags}
}

// Register adds the signature command to the application.
func (cmd *SignatureCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "signature",
		Usage:     "Show the call signature at a cursor position",
		UsageText: "pysense signature FILE --row N --col N [--json]",
		Description: `Prints the parameters of the call enclosing the cursor, with the active
parameter in *bold* markers. Prints nothing when the cursor is not inside a call.

Use the --json output as the "signature" field of 'pysense render' input.`,
		Flags: append(cmd.pos.flags(), &cli.BoolFlag{
			Name:        "json",
			Usage:       "output the signature as JSON",
			Destination: &cmd.jsonOutput,
		}),
		Action: cmd.run,
	})

	return app
}

func (cmd *SignatureCmd) run(ctx context.Context, c *cli.Command) error {
	req, err := cmd.pos.request(c)
	if err != nil {
		return err
	}

	ctx = logging.WithOp(logging.WithBuffer(ctx, req.Path), "signature")
	engine := newEngine(cmd.flags.Config)

	sig, err := analysis.SignatureLookup(func() (*overlay.Signature, error) {
		return engine.CallSignature(ctx, req)
	})
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("call signature failed")
		if cmd.jsonOutput {
			if werr := iojson.WriteError(c.Root().ErrWriter, "call signature failed", map[string]any{
				"file":  req.Path,
				"row":   req.Row,
				"col":   req.Column,
				"error": err.Error(),
			}); werr != nil {
				return werr
			}
			return cli.Exit("", 1)
		}
		return fmt.Errorf("signature: %w", err)
	}

	if sig == nil {
		printer.Ctx(ctx).Infof("cursor is not inside a call")
		return nil
	}

	if cmd.jsonOutput {
		return iojson.WriteLine(c.Root().Writer, sig)
	}

	_, err = fmt.Fprintf(c.Root().Writer, "%s(%s)\t%s\n", sig.Name, sig.Hint(),
		printer.Muted(fmt.Sprintf("%d:%d", sig.Row, sig.Column)))
	return err
}

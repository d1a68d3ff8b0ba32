package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/core/logging"
	"github.com/hay-kot/pysense/internal/nvim"
)

type ServeCmd struct {
	flags *Flags
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run as a Neovim remote plugin on stdin/stdout",
		UsageText: "pysense serve",
		Description: `Speaks msgpack-RPC on stdin/stdout. Neovim starts this command through the
script printed by 'pysense vimscript'; it is not meant to be run by hand.

Logs never go to stdout. Set --log-file to keep them.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	return nvim.Serve(ctx, cmd.flags.Config, newEngine(cmd.flags.Config), logging.Component("nvim"))
}

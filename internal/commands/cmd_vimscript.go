package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pysense/internal/nvim"
)

type VimscriptCmd struct {
	flags *Flags

	// flags
	command  string
	mappings bool
}

// NewVimscriptCmd creates a new vimscript command.
func NewVimscriptCmd(flags *Flags) *VimscriptCmd {
	return &VimscriptCmd{flags: flags}
}

// Register adds the vimscript command to the application.
func (cmd *VimscriptCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "vimscript",
		Usage:     "Print the Neovim bootstrap script",
		UsageText: "pysense vimscript [--command PATH] [--mappings] > ~/.config/nvim/plugin/pysense.vim",
		Description: `Prints a script that registers pysense as a remote plugin host for Python
buffers, conceals overlay markers, and wires the signature autocmds.

The current --config path is passed through to 'pysense serve'.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "command",
				Usage:       "pysense executable Neovim should start (defaults to this binary)",
				Destination: &cmd.command,
			},
			&cli.BoolFlag{
				Name:        "mappings",
				Usage:       "include default <leader> mappings",
				Destination: &cmd.mappings,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *VimscriptCmd) run(ctx context.Context, c *cli.Command) error {
	command := cmd.command
	if command == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		command = exe
	}

	script, err := nvim.Vimscript(cmd.options(command))
	if err != nil {
		return fmt.Errorf("render vimscript: %w", err)
	}

	_, err = fmt.Fprint(c.Root().Writer, script)
	return err
}

func (cmd *VimscriptCmd) options(command string) nvim.ScriptOptions {
	var args []string
	if cmd.flags.ConfigPath != "" {
		args = append(args, "--config", cmd.flags.ConfigPath)
	}
	if cmd.flags.LogFile != "" {
		args = append(args, "--log-file", cmd.flags.LogFile)
	}

	cfg := cmd.flags.Config
	return nvim.ScriptOptions{
		Command:   command,
		Args:      args,
		Escape:    cfg.Escape,
		Highlight: cfg.Signatures.Highlight,
		Mappings:  cmd.mappings,
	}
}

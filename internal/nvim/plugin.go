package nvim

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/neovim/go-client/nvim"
	"github.com/neovim/go-client/nvim/plugin"
	"github.com/rs/zerolog"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/config"
	"github.com/hay-kot/pysense/internal/pysense"
)

// Functions lists the RPC functions registered with Neovim.
var Functions = []string{
	"PysenseGoto",
	"PysenseDefinition",
	"PysenseRelatedNames",
	"PysenseShowSignature",
	"PysenseClearSignature",
	"PysenseSanitize",
	"PysenseRename",
}

// Register installs the RPC functions backed by svc.
func Register(p *plugin.Plugin, svc *pysense.Service) {
	gotoFn := func(kind pysense.GotoKind) func([]string) (int, error) {
		return func([]string) (int, error) {
			defs, err := svc.Goto(context.Background(), kind)
			return len(defs), err
		}
	}

	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseGoto"}, gotoFn(pysense.KindGoto))
	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseDefinition"}, gotoFn(pysense.KindDefinition))
	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseRelatedNames"}, gotoFn(pysense.KindRelated))

	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseShowSignature"}, func([]string) (int, error) {
		return 0, svc.ShowSignature(context.Background())
	})
	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseClearSignature"}, func([]string) (int, error) {
		return 0, svc.ClearSignature(context.Background())
	})
	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseSanitize"}, func([]string) (int, error) {
		return svc.SanitizeBuffer(context.Background())
	})
	p.HandleFunction(&plugin.FunctionOptions{Name: "PysenseRename"}, func(args []string) (int, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("PysenseRename takes one argument, got %d", len(args))
		}
		return svc.Rename(context.Background(), args[0])
	})
}

// Serve runs the plugin host on stdin/stdout until Neovim closes the
// connection.
func Serve(ctx context.Context, cfg *config.Config, engine analysis.Engine, log zerolog.Logger) error {
	return ServeConn(ctx, os.Stdin, os.Stdout, cfg, engine, log)
}

// ServeConn runs the plugin host over an arbitrary connection.
func ServeConn(ctx context.Context, r io.Reader, w io.WriteCloser, cfg *config.Config, engine analysis.Engine, log zerolog.Logger) error {
	v, err := nvim.New(r, w, w, func(format string, args ...interface{}) {
		log.Debug().Msgf(format, args...)
	})
	if err != nil {
		return fmt.Errorf("connect to nvim: %w", err)
	}
	defer func() { _ = v.Close() }()

	host := NewHost(v)

	var opts []pysense.Option
	if cfg.Signatures.Mode == config.DisplayVirtualText {
		opts = append(opts, pysense.WithDisplay(NewVirtualText(v, cfg.Signatures.Highlight)))
	}

	svc := pysense.NewService(host, engine, cfg, log, opts...)
	Register(plugin.New(v), svc)

	go func() {
		<-ctx.Done()
		_ = v.Close()
	}()

	log.Info().Str("mode", string(cfg.Signatures.Mode)).Msg("serving nvim")
	if err := v.Serve(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

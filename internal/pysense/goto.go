package pysense

import (
	"context"
	"fmt"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/logging"
)

// GotoKind selects a navigation query.
type GotoKind string

const (
	KindGoto       GotoKind = "goto"
	KindDefinition GotoKind = "definition"
	KindRelated    GotoKind = "related"
)

// ParseGotoKind validates a kind name.
func ParseGotoKind(s string) (GotoKind, error) {
	switch k := GotoKind(s); k {
	case KindGoto, KindDefinition, KindRelated:
		return k, nil
	}
	return "", fmt.Errorf("unknown goto kind %q", s)
}

// Query runs the engine method for kind and classifies the outcome.
func Query(ctx context.Context, engine analysis.Engine, kind GotoKind, req analysis.Request) analysis.Result {
	return analysis.Lookup(func() ([]analysis.Definition, error) {
		switch kind {
		case KindDefinition:
			return engine.Definitions(ctx, req)
		case KindRelated:
			return engine.RelatedNames(ctx, req)
		default:
			return engine.Goto(ctx, req)
		}
	})
}

// Goto runs a navigation query for the name under the cursor. A single
// goto or definition result is jumped to; anything else fills the quickfix
// list. Lookup failures are reported to the user as warnings, not errors.
func (s *Service) Goto(ctx context.Context, kind GotoKind) ([]analysis.Definition, error) {
	if _, err := ParseGotoKind(string(kind)); err != nil {
		return nil, err
	}

	ctx = logging.WithOp(ctx, string(kind))

	s.mu.Lock()
	defs, ok, err := s.clearAndLookup(ctx, kind)
	s.mu.Unlock()
	if err != nil || !ok {
		return nil, err
	}

	// Opening a file or the quickfix window fires BufLeave, whose autocmd
	// calls back into ClearSignature while this request is still pending.
	// s.mu must not be held from here on.

	if len(defs) == 1 && kind != KindRelated {
		return defs, s.jump(ctx, defs[0])
	}

	return defs, editor.ShowQuickfix(s.host, defs, s.cfg.Quickfix.MaxHeight)
}

// clearAndLookup restores a spliced hint before snapshotting the buffer so
// positions reported by the engine match the text that is edited later.
func (s *Service) clearAndLookup(ctx context.Context, kind GotoKind) ([]analysis.Definition, bool, error) {
	if err := s.display.Clear(); err != nil {
		return nil, false, fmt.Errorf("clear signature: %w", err)
	}
	return s.lookup(ctx, kind)
}

// lookup runs the query and warns for every outcome without usable
// definitions, reporting false in that case.
func (s *Service) lookup(ctx context.Context, kind GotoKind) ([]analysis.Definition, bool, error) {
	ctx, req, err := s.request(ctx)
	if err != nil {
		return nil, false, err
	}

	res := Query(ctx, s.engine, kind, req)

	switch res.Kind {
	case analysis.NotFound:
		return nil, false, editor.Warn(s.host, MsgNothing)
	case analysis.Failed:
		s.log.Error().Ctx(ctx).Err(res.Err).Msg("lookup failed")
		return nil, false, editor.Warn(s.host, MsgFailed)
	}

	if len(res.Definitions) == 0 {
		return nil, false, editor.Warn(s.host, MsgNoDefinitions)
	}

	s.log.Debug().Ctx(ctx).Int("results", len(res.Definitions)).Msg("lookup done")
	return res.Definitions, true, nil
}

func (s *Service) jump(ctx context.Context, d analysis.Definition) error {
	// Record the jump so `` returns to where the lookup started.
	if err := s.host.Command("normal! m`"); err != nil {
		return err
	}

	switch {
	case d.Keyword:
		return editor.Warn(s.host, MsgKeyword)
	case d.Builtin:
		return editor.Warn(s.host, MsgBuiltin)
	}

	current, err := s.host.BufferName()
	if err != nil {
		return fmt.Errorf("read buffer name: %w", err)
	}

	if d.ModulePath != "" && d.ModulePath != current {
		s.log.Debug().Ctx(ctx).Str("path", d.ModulePath).Msg("open definition")
		if err := editor.OpenFile(s.host, d.ModulePath, s.cfg.UseTabsNotBuffers); err != nil {
			return err
		}
	}

	if err := s.host.SetCursor(d.Line, d.Column); err != nil {
		return fmt.Errorf("move cursor: %w", err)
	}
	return s.host.Command("normal! zt")
}

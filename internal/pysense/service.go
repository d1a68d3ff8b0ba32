// Package pysense wires an analysis engine to an editor host: navigation,
// call-signature display, buffer cleanup and rename.
package pysense

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/config"
	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/logging"
	"github.com/hay-kot/pysense/internal/core/overlay"
)

// User-facing warnings.
const (
	MsgNothing       = "Cannot follow nothing. Put your cursor on a valid name."
	MsgFailed        = "Some different error, this shouldn't happen."
	MsgNoDefinitions = "Couldn't find any definitions for this."
	MsgKeyword       = "Cannot get the definition of Python keywords."
	MsgBuiltin       = "Builtin modules cannot be displayed."
	MsgInvalidName   = "Cannot rename to an invalid identifier."
)

// SignatureDisplay shows and clears call-signature hints.
type SignatureDisplay interface {
	Show(sig *overlay.Signature) error
	Clear() error
}

// Option configures a Service.
type Option func(*Service)

// WithDisplay replaces the default in-buffer signature display.
func WithDisplay(d SignatureDisplay) Option {
	return func(s *Service) {
		s.display = d
	}
}

// Service serves one editor connection. Its methods are safe for concurrent
// use. Buffer reads and edits run one at a time; commands that can re-enter
// the service through editor autocmds run without the lock held.
type Service struct {
	mu      sync.Mutex
	host    editor.Host
	engine  analysis.Engine
	cfg     *config.Config
	display SignatureDisplay
	log     zerolog.Logger
}

// NewService creates a Service. Signatures are spliced into the buffer text
// unless another display is supplied.
func NewService(host editor.Host, engine analysis.Engine, cfg *config.Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		host:   host,
		engine: engine,
		cfg:    cfg,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.display == nil {
		s.display = NewSpliceDisplay(host, cfg.Escape)
	}
	return s
}

// request snapshots the editor state into an analysis request. Markers left
// by the splice display are stripped from the snapshot.
func (s *Service) request(ctx context.Context) (context.Context, analysis.Request, error) {
	name, err := s.host.BufferName()
	if err != nil {
		return ctx, analysis.Request{}, fmt.Errorf("read buffer name: %w", err)
	}
	ctx = logging.WithBuffer(ctx, name)

	lines, err := s.host.Lines()
	if err != nil {
		return ctx, analysis.Request{}, fmt.Errorf("read buffer: %w", err)
	}

	row, col, err := s.host.Cursor()
	if err != nil {
		return ctx, analysis.Request{}, fmt.Errorf("read cursor: %w", err)
	}

	buffers, err := s.host.Buffers(s.matchBuffer)
	if err != nil {
		return ctx, analysis.Request{}, fmt.Errorf("list buffers: %w", err)
	}

	req := analysis.Request{
		Source: s.source(lines),
		Row:    row,
		Column: col,
		Path:   name,
	}
	for _, b := range buffers {
		if b.Name == "" || b.Name == name {
			continue
		}
		req.Extra = append(req.Extra, analysis.Module{Path: b.Name, Source: s.source(b.Lines)})
	}

	s.log.Debug().Ctx(ctx).
		Int("row", row).
		Int("col", col).
		Int("extra", len(req.Extra)).
		Msg("analysis request")

	return ctx, req, nil
}

func (s *Service) source(lines []string) []byte {
	var b strings.Builder
	for _, line := range lines {
		if clean, ok := overlay.Strip(line, s.cfg.Escape); ok {
			line = clean
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// matchBuffer reports whether an open buffer is handed to the engine.
func (s *Service) matchBuffer(name string) bool {
	if name == "" {
		return false
	}
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	for _, pattern := range s.cfg.Python.BufferPatterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

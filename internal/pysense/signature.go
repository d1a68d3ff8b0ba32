package pysense

import (
	"context"
	"fmt"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/logging"
	"github.com/hay-kot/pysense/internal/core/overlay"
)

// SpliceDisplay writes signature hints into the buffer text. The restore
// goes to the buffer the hint was written into, even after the user switched
// buffers.
type SpliceDisplay struct {
	renderer *overlay.Renderer
	host     editor.Host
}

var _ SignatureDisplay = (*SpliceDisplay)(nil)

// NewSpliceDisplay returns a display that overlays hints onto host lines.
func NewSpliceDisplay(host editor.Host, escape string) *SpliceDisplay {
	return &SpliceDisplay{renderer: overlay.NewRenderer(escape), host: host}
}

func (d *SpliceDisplay) Show(sig *overlay.Signature) error {
	if _, err := d.renderer.Restore(); err != nil {
		return err
	}

	lines, err := d.host.CurrentLines()
	if err != nil {
		return fmt.Errorf("pin buffer: %w", err)
	}

	_, err = d.renderer.Render(lines, sig)
	return err
}

func (d *SpliceDisplay) Clear() error {
	_, err := d.renderer.Restore()
	return err
}

// ShowSignature displays the call signature around the cursor, replacing
// any previous hint. Engine failures clear the hint and are only logged.
func (s *Service) ShowSignature(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logging.WithOp(ctx, "signature")

	if err := s.display.Clear(); err != nil {
		return fmt.Errorf("clear signature: %w", err)
	}

	if !s.cfg.Signatures.Enabled {
		return nil
	}

	ctx, req, err := s.request(ctx)
	if err != nil {
		return err
	}

	sig, err := analysis.SignatureLookup(func() (*overlay.Signature, error) {
		return s.engine.CallSignature(ctx, req)
	})
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("call signature failed")
		return nil
	}
	if sig == nil {
		return nil
	}

	if err := s.display.Show(sig); err != nil {
		return fmt.Errorf("show signature: %w", err)
	}
	return nil
}

// ClearSignature removes the displayed hint, if any.
func (s *Service) ClearSignature(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.display.Clear(); err != nil {
		return fmt.Errorf("clear signature: %w", err)
	}
	return nil
}

// SanitizeBuffer clears the hint and strips any marker still present in the
// current buffer, such as ones left behind by a crashed session. It returns
// the number of lines repaired.
func (s *Service) SanitizeBuffer(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logging.WithOp(ctx, "sanitize")

	if err := s.display.Clear(); err != nil {
		return 0, fmt.Errorf("clear signature: %w", err)
	}

	lines, err := s.host.Lines()
	if err != nil {
		return 0, fmt.Errorf("read buffer: %w", err)
	}

	fixed := 0
	for i, line := range lines {
		if !overlay.HasMarker(line, s.cfg.Escape) {
			continue
		}
		clean, ok := overlay.Strip(line, s.cfg.Escape)
		if !ok {
			continue
		}
		if err := s.host.SetLine(i+1, clean); err != nil {
			return fixed, fmt.Errorf("repair line %d: %w", i+1, err)
		}
		fixed++
	}

	if fixed > 0 {
		s.log.Info().Ctx(ctx).Int("lines", fixed).Msg("stripped stale markers")
	}
	return fixed, nil
}

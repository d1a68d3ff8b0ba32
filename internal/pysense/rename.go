package pysense

import (
	"context"
	"fmt"
	"sort"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/logging"
	"github.com/hay-kot/pysense/internal/core/validate"
)

// Rename replaces every reference to the name under the cursor in the
// current buffer with newName. References in other files are listed in the
// quickfix list instead of being edited. It returns the number of
// replacements made.
func (s *Service) Rename(ctx context.Context, newName string) (int, error) {
	ctx = logging.WithOp(ctx, "rename")

	s.mu.Lock()
	replaced, elsewhere, err := s.rename(ctx, newName)
	s.mu.Unlock()
	if err != nil {
		return replaced, err
	}

	// copen fires BufLeave; see Goto.
	if len(elsewhere) > 0 {
		return replaced, editor.ShowQuickfix(s.host, elsewhere, s.cfg.Quickfix.MaxHeight)
	}
	return replaced, nil
}

// rename edits the current buffer and returns the references that live in
// other files.
func (s *Service) rename(ctx context.Context, newName string) (int, []analysis.Definition, error) {
	if err := validate.Identifier(newName); err != nil {
		return 0, nil, editor.Warn(s.host, MsgInvalidName)
	}

	defs, ok, err := s.clearAndLookup(ctx, KindRelated)
	if err != nil || !ok {
		return 0, nil, err
	}

	current, err := s.host.BufferName()
	if err != nil {
		return 0, nil, fmt.Errorf("read buffer name: %w", err)
	}

	byLine := make(map[int][]analysis.Definition)
	var elsewhere []analysis.Definition
	for _, d := range defs {
		switch {
		case d.Builtin:
		case d.ModulePath == current:
			byLine[d.Line] = append(byLine[d.Line], d)
		default:
			elsewhere = append(elsewhere, d)
		}
	}

	replaced := 0
	for row, refs := range byLine {
		n, err := s.renameLine(row, refs, newName)
		if err != nil {
			return replaced, nil, err
		}
		replaced += n
	}

	s.log.Info().Ctx(ctx).
		Str("name", newName).
		Int("replaced", replaced).
		Int("elsewhere", len(elsewhere)).
		Msg("rename")

	return replaced, elsewhere, nil
}

// renameLine rewrites one line from right to left so earlier columns stay
// valid. References whose text no longer matches are skipped.
func (s *Service) renameLine(row int, refs []analysis.Definition, newName string) (int, error) {
	line, err := s.host.Line(row)
	if err != nil {
		return 0, fmt.Errorf("read line %d: %w", row, err)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Column > refs[j].Column })

	n := 0
	for _, r := range refs {
		end := r.Column + len(r.Name)
		if r.Column < 0 || end > len(line) || line[r.Column:end] != r.Name {
			continue
		}
		line = line[:r.Column] + newName + line[end:]
		n++
	}

	if n == 0 {
		return 0, nil
	}
	if err := s.host.SetLine(row, line); err != nil {
		return 0, fmt.Errorf("write line %d: %w", row, err)
	}
	return n, nil
}

// Package analysis defines the boundary between the editor integration and a
// source-analysis engine.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/pysense/internal/core/overlay"
)

// ErrNotFound is returned when the cursor is not on a resolvable name.
var ErrNotFound = errors.New("no name under cursor")

// Module is a source file that is open in the editor but is not the one
// being queried.
type Module struct {
	Path   string
	Source []byte
}

// Request is one analysis query.
type Request struct {
	Source []byte
	// Row is 1-indexed, Column is a 0-indexed byte offset into the row.
	Row    int
	Column int
	Path   string
	Extra  []Module
}

// Definition is one result of a lookup.
type Definition struct {
	Name        string `json:"name"`
	ModulePath  string `json:"module_path,omitempty"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Description string `json:"description"`
	Builtin     bool   `json:"builtin,omitempty"`
	Keyword     bool   `json:"keyword,omitempty"`
}

// Engine answers navigation and call-signature queries.
type Engine interface {
	// Goto returns the binding sites of the name under the cursor.
	Goto(ctx context.Context, req Request) ([]Definition, error)
	// Definitions is Goto that also follows imports and aliases.
	Definitions(ctx context.Context, req Request) ([]Definition, error)
	// RelatedNames returns every reference to the name under the cursor.
	RelatedNames(ctx context.Context, req Request) ([]Definition, error)
	// CallSignature returns the call the cursor is inside, or nil.
	CallSignature(ctx context.Context, req Request) (*overlay.Signature, error)
}

// Kind classifies a lookup outcome.
type Kind int

const (
	Found Kind = iota
	NotFound
	Failed
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the outcome of a lookup. Definitions is set for Found (and may be
// empty); Err is set for Failed.
type Result struct {
	Kind        Kind
	Definitions []Definition
	Err         error
}

// Lookup runs fn and classifies its outcome. A panic inside fn is reported
// as Failed instead of propagating to the caller.
func Lookup(fn func() ([]Definition, error)) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: Failed, Err: fmt.Errorf("analysis panic: %v", r)}
		}
	}()

	defs, err := fn()
	switch {
	case err == nil:
		return Result{Kind: Found, Definitions: defs}
	case errors.Is(err, ErrNotFound):
		return Result{Kind: NotFound}
	default:
		return Result{Kind: Failed, Err: err}
	}
}

// SignatureLookup runs fn, converting a panic inside it into an error.
func SignatureLookup(fn func() (*overlay.Signature, error)) (sig *overlay.Signature, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig, err = nil, fmt.Errorf("analysis panic: %v", r)
		}
	}()
	return fn()
}

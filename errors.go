package jsonski

import (
	"errors"
	"fmt"

	"github.com/aparx/jsonski/internal/dfa"
	"github.com/aparx/jsonski/internal/engine"
)

// ErrInvalidPath is returned by New when the given JSONPath expression
// does not parse. Use errors.As to recover the underlying
// *compiler.ErrMalformedPath for the offending position.
var ErrInvalidPath = errors.New("jsonski: invalid path expression")

// ErrMalformedRecord is returned by (*Evaluator).Run when the record being
// scanned is not well-formed JSON at the point the query reaches it.
var ErrMalformedRecord = engine.ErrMalformedRecord

// ErrUnexpectedEOF is returned by (*Evaluator).Run when the record ends
// before a container the query needed to look inside is closed.
var ErrUnexpectedEOF = engine.ErrUnexpectedEOF

// ErrStackOverflow is returned by (*Evaluator).Run when the query's
// container nesting along a matched path exceeds the configured maximum
// depth. It is a resource-limit fault: the library returns it rather than
// panicking, so that a pathological or adversarial query/record pair
// cannot bring down the calling process.
type ErrStackOverflow = dfa.ErrStackOverflow

func wrapCompileErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidPath, err)
}

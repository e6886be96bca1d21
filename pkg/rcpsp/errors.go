package rcpsp

import "github.com/pkg/errors"

// Structural errors. These are configuration-time faults: they are returned
// by constructors and never by Propagate, which only fails with a
// *cp.Contradiction or, for a broken internal invariant, ErrInvariant.
var (
	// ErrCycle reports a precedence relation that is not acyclic.
	ErrCycle = errors.New("precedence relation contains a cycle")
	// ErrMalformedPrecedence reports a non-square, reflexive or symmetric matrix.
	ErrMalformedPrecedence = errors.New("malformed precedence relation")
	// ErrUnknownFilter reports an unrecognised filtering-strategy tag.
	ErrUnknownFilter = errors.New("unknown filtering strategy")
	// ErrInvalidInstance reports inconsistent instance data.
	ErrInvalidInstance = errors.New("invalid instance")
	// ErrInvariant reports a loop that failed to make progress within its bound.
	ErrInvariant = errors.New("internal invariant violated")
)

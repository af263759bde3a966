package bilu

import "fmt"

// StructuralError reports a shape problem: a matrix whose dimensions cannot
// be partitioned at the requested block size, a pattern missing a diagonal
// block, a vector of the wrong length, or an operation invoked in the wrong
// lifecycle order.  The construction or call it aborts produces no usable
// partial state.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return "bilu: " + e.Reason }

func structErrf(format string, args ...interface{}) *StructuralError {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// NumericalError reports a diagonal pivot block that could not be factored
// during Factorize - singular, or with a pivot magnitude at or below the
// configured tolerance (NaN and Inf pivots are flagged the same way).  The
// caller decides whether to abort, regularize and refresh, or fall back to a
// weaker preconditioner.
type NumericalError struct {
	// BlockRow is the block row index of the offending diagonal block.
	BlockRow int
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("bilu: diagonal block at block row %v is singular or numerically unreliable", e.BlockRow)
}

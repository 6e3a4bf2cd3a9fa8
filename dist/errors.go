package dist

import "fmt"

// PreconditionError is the panic payload for structural misuse: nonconformal
// dimensions, resizing a view, incompatible alignment, redistribution between
// matrices on different grids, an unsupported layout pair. It is detected
// before any communication or mutation and there is no recovery path.
type PreconditionError struct {
	Msg string
}

func (e PreconditionError) Error() string { return "precondition violation: " + e.Msg }

// NumericError is the panic payload for numeric impossibility encountered by
// algorithms layered on the engine (non-finite norms and the like). Equally
// fatal to the enclosing operation, but reported distinctly.
type NumericError struct {
	Msg string
}

func (e NumericError) Error() string { return "numeric error: " + e.Msg }

func preconditionf(format string, args ...interface{}) {
	panic(PreconditionError{Msg: fmt.Sprintf(format, args...)})
}

// NumericErrorf aborts the enclosing operation with a NumericError.
func NumericErrorf(format string, args ...interface{}) {
	panic(NumericError{Msg: fmt.Sprintf(format, args...)})
}

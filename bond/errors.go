package bond

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteSchedule marks structurally inconsistent terms. Retrying
	// with relaxed tolerances will not help; the input itself is malformed.
	ErrIncompleteSchedule = errors.New("incomplete or inconsistent schedule terms")

	// ErrUnsupportedStructure marks a request the engine does not model,
	// e.g. stochastic OAS on a floating-rate structure.
	ErrUnsupportedStructure = errors.New("unsupported structure")
)

// ConvergenceError is returned when a root finder exhausts its iteration
// budget. It is a numerically-sensitive failure: callers may retry with
// relaxed tolerances, unlike the structural errors above. The partial value
// is deliberately not exposed.
type ConvergenceError struct {
	Op         string
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: did not converge after %d iterations", e.Op, e.Iterations)
}

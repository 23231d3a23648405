package spectral

import (
	"errors"
	"fmt"
)

var (
	// ErrIndefinite reports a kernel block with significantly negative
	// eigenvalues after regularisation.
	ErrIndefinite = errors.New("kernel matrix is indefinite")

	// ErrNumerical reports a failed or rank-deficient decomposition.
	ErrNumerical = errors.New("eigendecomposition failed")

	// ErrInvalidValue reports NaN, Inf or non-positive degrees.
	ErrInvalidValue = errors.New("invalid value")
)

// Failure annotates a numerical failure with the step and ridge value.
type Failure struct {
	Op    string
	Ridge float64
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s (ridge %.0e): %v", f.Op, f.Ridge, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsNumerical reports whether err is one of the recoverable numerical
// failures of this package.
func IsNumerical(err error) bool {
	return errors.Is(err, ErrIndefinite) || errors.Is(err, ErrNumerical) || errors.Is(err, ErrInvalidValue)
}

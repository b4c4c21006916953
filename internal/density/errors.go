package density

import "errors"

// Input errors. Callers map these to client errors with errors.Is.
var (
	ErrNoSamples           = errors.New("at least one sample is required")
	ErrLengthMismatch      = errors.New("x, y and outcome arrays must have the same length")
	ErrTooManySamples      = errors.New("too many samples")
	ErrInvalidResolution   = errors.New("grid resolution must be at least 2")
	ErrInvalidFudge        = errors.New("fudge factor must be finite and positive")
	ErrNonFiniteCoordinate = errors.New("coordinates must be finite numbers")
	ErrNonFiniteDensity    = errors.New("density field is not finite for these inputs")
)

// IsInputError reports whether err was caused by invalid caller input
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoSamples) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrTooManySamples) ||
		errors.Is(err, ErrInvalidResolution) ||
		errors.Is(err, ErrInvalidFudge) ||
		errors.Is(err, ErrNonFiniteCoordinate) ||
		errors.Is(err, ErrNonFiniteDensity)
}

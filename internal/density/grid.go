package density

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/jengzang/densitymap-backend-go/internal/spatial"
)

const (
	// DefaultResolution is the number of pixels per grid side
	DefaultResolution = 100

	// MinFudge replaces a zero pixel diagonal, which occurs when every
	// sample sits on the same point.
	MinFudge = 1e-12
)

// GridSpec describes the pixel grid laid over the sample extent.
// It is computed once per request and shared read-only by every stage.
type GridSpec struct {
	Resolution int
	Extent     r2.Rect
	DeltaX     float64
	DeltaY     float64
	Fudge      float64
}

// NewGridSpec derives the grid over the bounding box of the samples.
// A zero fudge is replaced by the pixel diagonal; a zero resolution uses
// DefaultResolution.
func NewGridSpec(xs, ys []float64, resolution int, fudge float64) (GridSpec, error) {
	if len(xs) == 0 || len(ys) == 0 {
		return GridSpec{}, ErrNoSamples
	}
	if len(xs) != len(ys) {
		return GridSpec{}, fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(xs), len(ys))
	}
	if resolution == 0 {
		resolution = DefaultResolution
	}
	if resolution < 2 {
		return GridSpec{}, fmt.Errorf("%w: got %d", ErrInvalidResolution, resolution)
	}
	if math.IsNaN(fudge) || math.IsInf(fudge, 0) || fudge < 0 {
		return GridSpec{}, fmt.Errorf("%w: got %v", ErrInvalidFudge, fudge)
	}
	if !spatial.AllFinite(xs) || !spatial.AllFinite(ys) {
		return GridSpec{}, ErrNonFiniteCoordinate
	}

	extent := spatial.BoundingBox(xs, ys)
	width, height := extent.X.Length(), extent.Y.Length()
	diagonal2 := width*width + height*height
	if math.IsInf(diagonal2, 0) {
		// squared distances inside the extent must stay finite
		return GridSpec{}, fmt.Errorf("%w: extent %gx%g is too large", ErrNonFiniteCoordinate, width, height)
	}

	spec := GridSpec{
		Resolution: resolution,
		Extent:     extent,
		DeltaX:     width / float64(resolution),
		DeltaY:     height / float64(resolution),
		Fudge:      fudge,
	}

	if spec.Fudge == 0 {
		spec.Fudge = math.Hypot(spec.DeltaX, spec.DeltaY)
	}
	if spec.Fudge == 0 {
		spec.Fudge = MinFudge
	}
	// every term lies in [1/(diagonal²+fudge), 1/fudge], so both bounds
	// must stay finite and non-zero
	if math.IsInf(float64(len(xs))/spec.Fudge, 0) {
		return GridSpec{}, fmt.Errorf("%w: %g is too small for %d samples", ErrInvalidFudge, spec.Fudge, len(xs))
	}
	if math.IsInf(diagonal2+spec.Fudge, 0) {
		return GridSpec{}, fmt.Errorf("%w: %g is too large for this extent", ErrInvalidFudge, spec.Fudge)
	}

	return spec, nil
}

// PixelCenter returns the geometric centre of the cell at row i, column j.
// Row 0 lies at the bottom of the extent.
func (g GridSpec) PixelCenter(i, j int) (px, py float64) {
	px = g.Extent.X.Lo + float64(j)*g.DeltaX + g.DeltaX/2
	py = g.Extent.Y.Lo + float64(i)*g.DeltaY + g.DeltaY/2
	return px, py
}

// Cells returns the number of pixels in the grid
func (g GridSpec) Cells() int {
	return g.Resolution * g.Resolution
}

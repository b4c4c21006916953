package spatial

import (
	"math"

	"github.com/golang/geo/r2"
)

// Points zips parallel coordinate slices into r2 points.
// Extra elements in the longer slice are ignored.
func Points(xs, ys []float64) []r2.Point {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	points := make([]r2.Point, n)
	for i := 0; i < n; i++ {
		points[i] = r2.Point{X: xs[i], Y: ys[i]}
	}
	return points
}

// BoundingBox calculates the bounding box of a set of sample coordinates.
// No padding is added, so a single sample (or samples sharing one axis value)
// yields a rectangle of zero width and/or height.
func BoundingBox(xs, ys []float64) r2.Rect {
	points := Points(xs, ys)
	if len(points) == 0 {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(points...)
}

// AllFinite reports whether every coordinate is a finite number
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

package spatial

import (
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linspace returns n evenly spaced values over [lo, hi], both endpoints included.
// n must be at least 2.
func Linspace(lo, hi float64, n int) []float64 {
	return floats.Span(make([]float64, n), lo, hi)
}

// Mesh translates a density grid back to the sample space.
// The x and y subdivisions of extent are broadcast into two n×n grids with
// meshX[i, j] = xs[j] and meshY[i, j] = ys[i].
func Mesh(extent r2.Rect, n int) (meshX, meshY *mat.Dense) {
	xs := Linspace(extent.X.Lo, extent.X.Hi, n)
	ys := Linspace(extent.Y.Lo, extent.Y.Hi, n)

	meshX = mat.NewDense(n, n, nil)
	meshY = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		meshX.SetRow(i, xs)
		row := meshY.RawRowView(i)
		for j := range row {
			row[j] = ys[i]
		}
	}
	return meshX, meshY
}

// FlippedRow maps a field row index (row 0 at the bottom, y increasing upward)
// to the image-style mesh row read for that cell (row 0 at the top).
func FlippedRow(n, i int) int {
	return n - 1 - i
}

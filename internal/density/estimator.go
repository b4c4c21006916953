package density

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/jengzang/densitymap-backend-go/internal/spatial"
	"github.com/jengzang/densitymap-backend-go/internal/stats"
)

// Estimate fills an inverse-squared-distance density field over the grid:
//
//	field[i, j] = Σ_k 1 / ((px - x_k)² + (py - y_k)² + fudge)
//
// where (px, py) is the centre of pixel (i, j). Rows are computed in parallel
// by at most workers goroutines, each writing only its own row. An empty point
// set yields an all-zero field.
func Estimate(ctx context.Context, spec GridSpec, xs, ys []float64, workers int) (*mat.Dense, error) {
	n := spec.Resolution
	field := mat.NewDense(n, n, nil)
	if len(xs) == 0 {
		return field, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fillRow(spec, field.RawRowView(i), i, xs, ys)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return field, nil
}

func fillRow(spec GridSpec, row []float64, i int, xs, ys []float64) {
	for j := range row {
		px, py := spec.PixelCenter(i, j)
		var sum float64
		for k := range xs {
			dx := xs[k] - px
			dy := ys[k] - py
			sum += 1 / (dx*dx + dy*dy + spec.Fudge)
		}
		row[j] = sum
	}
}

// Correct divides the positive field by the population field cell by cell and
// normalizes the ratio. population must be strictly positive; NewGridSpec
// rejects extents and fudge factors for which an estimated field could
// overflow or underflow to zero.
func Correct(population, positive *mat.Dense) *mat.Dense {
	rows, cols := population.Dims()
	ratio := mat.NewDense(rows, cols, nil)
	ratio.DivElem(positive, population)
	return stats.NormalizeField(ratio)
}

// checkFinite reports ErrNonFiniteDensity if any cell of the fields is NaN or
// infinite. Such a field cannot be encoded as JSON.
func checkFinite(fields ...*mat.Dense) error {
	for _, f := range fields {
		rows, _ := f.Dims()
		for i := 0; i < rows; i++ {
			if !spatial.AllFinite(f.RawRowView(i)) {
				return ErrNonFiniteDensity
			}
		}
	}
	return nil
}

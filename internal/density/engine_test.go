package density

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(cfg Config) *Engine {
	return NewEngine(cfg, zap.NewNop())
}

func randomOutcomes(n int) []Outcome {
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		outcomes[i] = Number(float64(i % 100))
	}
	return outcomes
}

func TestSamplesValidate(t *testing.T) {
	tests := []struct {
		name       string
		samples    Samples
		maxSamples int
		want       error
	}{
		{
			name:    "valid",
			samples: Samples{X: []float64{1}, Y: []float64{2}, Outcomes: numbers(3)},
		},
		{
			name:    "empty",
			samples: Samples{},
			want:    ErrNoSamples,
		},
		{
			name:    "y shorter",
			samples: Samples{X: []float64{1, 2}, Y: []float64{2}, Outcomes: numbers(3, 4)},
			want:    ErrLengthMismatch,
		},
		{
			name:    "outcomes shorter",
			samples: Samples{X: []float64{1, 2}, Y: []float64{2, 3}, Outcomes: numbers(3)},
			want:    ErrLengthMismatch,
		},
		{
			name:       "over limit",
			samples:    Samples{X: []float64{1, 2}, Y: []float64{2, 3}, Outcomes: numbers(3, 4)},
			maxSamples: 1,
			want:       ErrTooManySamples,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.samples.Validate(tt.maxSamples)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngineComputeShape(t *testing.T) {
	xs, ys := randomSamples(300, 11)
	samples := Samples{X: xs, Y: ys, Outcomes: randomOutcomes(300)}

	result, err := newTestEngine(Config{Workers: 4}).Compute(context.Background(), samples, Request{TrueValue: "50", Fudge: 1})
	require.NoError(t, err)

	p := DefaultResolution
	require.Len(t, result.Records, p*p)
	assert.False(t, result.Binarization.Categorical)
	// 51..99 in each block of 100
	assert.Equal(t, 147, result.Binarization.Positives)

	for _, r := range result.Records {
		for _, v := range []float64{r.NormDensity, r.NormDensityPositive, r.CorrectedDensity} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	extent := result.Spec.Extent
	first := result.Records[0]
	lastInRow := result.Records[p-1]
	last := result.Records[p*p-1]

	// x reads left to right, y reads top-down
	assert.Equal(t, extent.X.Lo, first.X)
	assert.InDelta(t, extent.Y.Hi, first.Y, 1e-9)
	assert.InDelta(t, extent.X.Hi, lastInRow.X, 1e-9)
	assert.InDelta(t, extent.Y.Hi, lastInRow.Y, 1e-9)
	assert.InDelta(t, extent.X.Hi, last.X, 1e-9)
	assert.Equal(t, extent.Y.Lo, last.Y)
}

func TestEngineComputePreservesRank(t *testing.T) {
	xs, ys := randomSamples(80, 5)
	samples := Samples{X: xs, Y: ys, Outcomes: randomOutcomes(80)}
	req := Request{TrueValue: "10", Fudge: 0.25, Resolution: 12}

	result, err := newTestEngine(Config{}).Compute(context.Background(), samples, req)
	require.NoError(t, err)

	raw, err := Estimate(context.Background(), result.Spec, xs, ys, 1)
	require.NoError(t, err)

	n := result.Spec.Resolution
	data := raw.RawMatrix().Data
	for a := 0; a < n*n; a++ {
		for b := a + 1; b < n*n; b++ {
			if data[a] < data[b] {
				assert.LessOrEqual(t, result.Records[a].NormDensity, result.Records[b].NormDensity)
			}
		}
	}

	posX, posY := result.Binarization.Select(xs, ys)
	require.NotEmpty(t, posX)
	rawPositive, err := Estimate(context.Background(), result.Spec, posX, posY, 1)
	require.NoError(t, err)

	ratio := make([]float64, n*n)
	for k, p := range rawPositive.RawMatrix().Data {
		ratio[k] = p / data[k]
	}
	for a := 0; a < n*n; a++ {
		for b := a + 1; b < n*n; b++ {
			if ratio[a] < ratio[b] {
				assert.LessOrEqual(t, result.Records[a].CorrectedDensity, result.Records[b].CorrectedDensity)
			}
			if ratio[a] > ratio[b] {
				assert.GreaterOrEqual(t, result.Records[a].CorrectedDensity, result.Records[b].CorrectedDensity)
			}
		}
	}

	bounds := func(get func(PixelRecord) float64) (lo, hi float64) {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, r := range result.Records {
			lo = math.Min(lo, get(r))
			hi = math.Max(hi, get(r))
		}
		return lo, hi
	}

	lo, hi := bounds(func(r PixelRecord) float64 { return r.NormDensity })
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = bounds(func(r PixelRecord) float64 { return r.NormDensityPositive })
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = bounds(func(r PixelRecord) float64 { return r.CorrectedDensity })
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestEngineComputeRejectsOverflowingExtent(t *testing.T) {
	samples := Samples{
		X:        []float64{-1e200, 1e200, 0},
		Y:        []float64{-1e200, 1e200, 0},
		Outcomes: numbers(1, 0, 1),
	}

	_, err := newTestEngine(Config{}).Compute(context.Background(), samples, Request{TrueValue: "1", Fudge: 1})
	assert.ErrorIs(t, err, ErrNonFiniteCoordinate)
	assert.True(t, IsInputError(err))
}

func TestEngineComputeRejectsVanishingFudge(t *testing.T) {
	samples := Samples{
		X:        []float64{0, 100, 50.5},
		Y:        []float64{0, 100, 50.5},
		Outcomes: numbers(1, 0, 1),
	}

	_, err := newTestEngine(Config{}).Compute(context.Background(), samples, Request{TrueValue: "1", Fudge: 1e-320})
	assert.ErrorIs(t, err, ErrInvalidFudge)
}

func TestEngineComputeNoPositives(t *testing.T) {
	samples := Samples{
		X:        []float64{0, 1, 2},
		Y:        []float64{0, 1, 2},
		Outcomes: numbers(10, 60, 90),
	}

	result, err := newTestEngine(Config{}).Compute(context.Background(), samples, Request{TrueValue: "50", Fudge: 1})
	require.NoError(t, err)

	assert.True(t, result.Binarization.Categorical)
	assert.Equal(t, []uint8{0, 0, 0}, result.Binarization.Labels)
	require.Len(t, result.Records, DefaultResolution*DefaultResolution)

	for _, r := range result.Records {
		assert.Zero(t, r.NormDensityPositive)
		assert.Zero(t, r.CorrectedDensity)
	}
	assert.Equal(t, 0.0, result.Records[0].X)
	assert.InDelta(t, 2.0, result.Records[0].Y, 1e-9)
}

func TestEngineComputeSinglePoint(t *testing.T) {
	samples := Samples{X: []float64{3}, Y: []float64{4}, Outcomes: numbers(1)}

	result, err := newTestEngine(Config{}).Compute(context.Background(), samples, Request{TrueValue: "1", Resolution: 4})
	require.NoError(t, err)

	assert.Equal(t, MinFudge, result.Spec.Fudge)
	require.Len(t, result.Records, 16)
	for _, r := range result.Records {
		// a constant field normalizes to zero
		assert.Zero(t, r.NormDensity)
		assert.Zero(t, r.NormDensityPositive)
		assert.Zero(t, r.CorrectedDensity)
		assert.Equal(t, 3.0, r.X)
		assert.Equal(t, 4.0, r.Y)
	}
}

func TestEngineComputeRejectsInput(t *testing.T) {
	engine := newTestEngine(Config{MaxSamples: 2})

	_, err := engine.Compute(context.Background(), Samples{
		X: []float64{1, 2}, Y: []float64{1}, Outcomes: numbers(1, 2),
	}, Request{})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.True(t, IsInputError(err))

	_, err = engine.Compute(context.Background(), Samples{
		X: []float64{1, 2, 3}, Y: []float64{1, 2, 3}, Outcomes: numbers(1, 2, 3),
	}, Request{})
	assert.ErrorIs(t, err, ErrTooManySamples)
}

func TestEngineComputeCanceled(t *testing.T) {
	xs, ys := randomSamples(50, 2)
	samples := Samples{X: xs, Y: ys, Outcomes: randomOutcomes(50)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(Config{Timeout: time.Minute}).Compute(ctx, samples, Request{Fudge: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsInputError(err))
}

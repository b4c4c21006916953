package density

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/jengzang/densitymap-backend-go/internal/spatial"
	"github.com/jengzang/densitymap-backend-go/internal/stats"
)

// Samples are the scattered input points. X, Y and Outcomes are parallel.
type Samples struct {
	X        []float64
	Y        []float64
	Outcomes []Outcome
}

// Len returns the number of samples
func (s Samples) Len() int {
	return len(s.X)
}

// Validate checks that the sample arrays are non-empty, aligned and within
// maxSamples (zero disables the limit).
func (s Samples) Validate(maxSamples int) error {
	if len(s.X) == 0 {
		return ErrNoSamples
	}
	if len(s.Y) != len(s.X) || len(s.Outcomes) != len(s.X) {
		return fmt.Errorf("%w: x=%d y=%d outcome_values=%d",
			ErrLengthMismatch, len(s.X), len(s.Y), len(s.Outcomes))
	}
	if maxSamples > 0 && len(s.X) > maxSamples {
		return fmt.Errorf("%w: %d exceeds limit %d", ErrTooManySamples, len(s.X), maxSamples)
	}
	return nil
}

// Request carries the per-request tuning knobs
type Request struct {
	TrueValue  string
	Fudge      float64 // zero derives the pixel diagonal
	Resolution int     // zero uses DefaultResolution
}

// PixelRecord is one output cell
type PixelRecord struct {
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	NormDensity         float64 `json:"normDensity"`
	NormDensityPositive float64 `json:"normDensityPositive"`
	CorrectedDensity    float64 `json:"correctedDensity"`
}

// Result holds the assembled records and the intermediate artefacts needed
// for logging and run history.
type Result struct {
	Records      []PixelRecord
	Spec         GridSpec
	Binarization *Binarization
	Elapsed      time.Duration
}

// Config bounds the work a single computation may do
type Config struct {
	Workers    int
	Timeout    time.Duration
	MaxSamples int
}

// Engine runs the density map pipeline. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates a new density engine
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger.Named("density")}
}

// Compute builds the population, positive and corrected fields for samples and
// pairs every cell with its sample-space coordinates.
func (e *Engine) Compute(ctx context.Context, samples Samples, req Request) (*Result, error) {
	start := time.Now()

	if err := samples.Validate(e.cfg.MaxSamples); err != nil {
		return nil, err
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	bin, err := Binarize(samples.Outcomes, req.TrueValue)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize outcomes: %w", err)
	}

	spec, err := NewGridSpec(samples.X, samples.Y, req.Resolution, req.Fudge)
	if err != nil {
		return nil, fmt.Errorf("failed to build grid: %w", err)
	}

	population, err := Estimate(ctx, spec, samples.X, samples.Y, e.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate population density: %w", err)
	}

	posX, posY := bin.Select(samples.X, samples.Y)
	positive, err := Estimate(ctx, spec, posX, posY, e.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate positive density: %w", err)
	}

	normPopulation := stats.NormalizeField(population)
	normPositive := stats.NormalizeField(positive)
	corrected := Correct(population, positive)
	if err := checkFinite(normPopulation, normPositive, corrected); err != nil {
		return nil, fmt.Errorf("failed to normalize density fields: %w", err)
	}

	records := Assemble(spec, normPopulation, normPositive, corrected)

	result := &Result{
		Records:      records,
		Spec:         spec,
		Binarization: bin,
		Elapsed:      time.Since(start),
	}

	e.logger.Debug("density map computed",
		zap.Int("samples", samples.Len()),
		zap.Int("positives", bin.Positives),
		zap.Bool("categorical", bin.Categorical),
		zap.Stringer("threshold", bin.Threshold),
		zap.Float64("fudge", spec.Fudge),
		zap.Duration("elapsed", result.Elapsed),
	)

	return result, nil
}

// Assemble flattens the three normalized fields into row-major records.
// Field row i is paired with mesh row i for x but with the flipped mesh row
// for y, so coordinates read top-down while the values keep row 0 at yMin.
func Assemble(spec GridSpec, density, positive, corrected *mat.Dense) []PixelRecord {
	n := spec.Resolution
	meshX, meshY := spatial.Mesh(spec.Extent, n)

	records := make([]PixelRecord, 0, n*n)
	for i := 0; i < n; i++ {
		flipped := spatial.FlippedRow(n, i)
		for j := 0; j < n; j++ {
			records = append(records, PixelRecord{
				X:                   meshX.At(i, j),
				Y:                   meshY.At(flipped, j),
				NormDensity:         density.At(i, j),
				NormDensityPositive: positive.At(i, j),
				CorrectedDensity:    corrected.At(i, j),
			})
		}
	}
	return records
}

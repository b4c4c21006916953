package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/jengzang/densitymap-backend-go/internal/density"
	"github.com/jengzang/densitymap-backend-go/internal/metrics"
	"github.com/jengzang/densitymap-backend-go/internal/models"
)

// ErrInvalidInput wraps every request parsing failure
var ErrInvalidInput = errors.New("invalid input")

// RunStore persists density run metadata
type RunStore interface {
	Create(ctx context.Context, run *models.DensityRun) error
	List(ctx context.Context, filter models.RunFilter) ([]models.DensityRun, error)
}

// DensityService handles business logic for density maps
type DensityService struct {
	engine  *density.Engine
	runs    RunStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewDensityService creates a new density service. runs may be nil, which
// disables run history.
func NewDensityService(engine *density.Engine, runs RunStore, m *metrics.Metrics, logger *zap.Logger) *DensityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &DensityService{
		engine:  engine,
		runs:    runs,
		metrics: m,
		logger:  logger.Named("density_service"),
	}
}

// ParseDensityMapForm decodes the form fields into engine input.
// Coordinates are divided by CoordinateScale and the fudge factor is
// 10^(densityBandwith - BandwidthOffset).
func ParseDensityMapForm(form models.DensityMapForm) (density.Samples, density.Request, error) {
	xs, err := parseCoordinates("x", form.X)
	if err != nil {
		return density.Samples{}, density.Request{}, err
	}
	ys, err := parseCoordinates("y", form.Y)
	if err != nil {
		return density.Samples{}, density.Request{}, err
	}

	var outcomes []density.Outcome
	if err := json.Unmarshal([]byte(form.OutcomeValues), &outcomes); err != nil {
		return density.Samples{}, density.Request{}, fmt.Errorf("%w: outcome_values: %v", ErrInvalidInput, err)
	}

	bandwidth, err := strconv.Atoi(strings.TrimSpace(form.DensityBandwith))
	if err != nil {
		return density.Samples{}, density.Request{}, fmt.Errorf("%w: densityBandwith must be an integer: %v", ErrInvalidInput, err)
	}
	fudge := math.Pow(10, float64(bandwidth-models.BandwidthOffset))
	if fudge == 0 || math.IsInf(fudge, 0) {
		return density.Samples{}, density.Request{}, fmt.Errorf("%w: densityBandwith %d is out of range", ErrInvalidInput, bandwidth)
	}

	samples := density.Samples{X: xs, Y: ys, Outcomes: outcomes}
	req := density.Request{
		TrueValue:  form.TrueValue,
		Fudge:      fudge,
		Resolution: density.DefaultResolution,
	}
	return samples, req, nil
}

func parseCoordinates(field, raw string) ([]float64, error) {
	var values []*float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
	}

	coords := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("%w: %s[%d] is null", ErrInvalidInput, field, i)
		}
		coords[i] = *v / models.CoordinateScale
	}
	return coords, nil
}

// Fingerprint hashes the raw request inputs so repeated submissions of the
// same data can be found in run history.
func Fingerprint(form models.DensityMapForm) string {
	d := xxhash.New()
	for _, part := range []string{form.X, form.Y, form.OutcomeValues, form.DensityBandwith, form.TrueValue} {
		d.WriteString(part)
		d.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// GenerateDensityMap parses the form, computes the density map and records
// the run. The returned records are in row-major grid order.
func (s *DensityService) GenerateDensityMap(ctx context.Context, form models.DensityMapForm, requestID string) ([]density.PixelRecord, error) {
	samples, req, err := ParseDensityMapForm(form)
	if err != nil {
		return nil, err
	}
	s.metrics.SampleCount.Observe(float64(samples.Len()))

	start := time.Now()
	result, err := s.engine.Compute(ctx, samples, req)
	elapsed := time.Since(start)

	status := models.RunStatusCompleted
	if err != nil {
		status = models.RunStatusFailed
	}
	s.metrics.ComputeDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	run := &models.DensityRun{
		RequestID:   requestID,
		Fingerprint: Fingerprint(form),
		SampleCount: samples.Len(),
		Resolution:  req.Resolution,
		Fudge:       req.Fudge,
		TrueValue:   req.TrueValue,
		Status:      status,
		DurationMs:  elapsed.Milliseconds(),
	}
	if err != nil {
		run.ErrorMessage = err.Error()
	} else {
		run.Categorical = result.Binarization.Categorical
		run.Threshold = result.Binarization.Threshold.String()
		run.PositiveCount = result.Binarization.Positives
	}
	s.recordRun(ctx, run)

	if err != nil {
		if density.IsInputError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		s.logger.Error("density map computation failed",
			zap.String("request_id", requestID),
			zap.Int("samples", samples.Len()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("density map generated",
		zap.String("request_id", requestID),
		zap.Int("samples", samples.Len()),
		zap.Int("positives", result.Binarization.Positives),
		zap.Duration("elapsed", elapsed),
	)
	return result.Records, nil
}

// recordRun stores run metadata. Failures are logged and never surface to the
// caller.
func (s *DensityService) recordRun(ctx context.Context, run *models.DensityRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record density run",
			zap.String("request_id", run.RequestID),
			zap.Error(err),
		)
	}
}

// ListRuns retrieves recent run history. It returns an empty list when run
// history is disabled.
func (s *DensityService) ListRuns(ctx context.Context, filter models.RunFilter) ([]models.DensityRun, error) {
	if s.runs == nil {
		return []models.DensityRun{}, nil
	}
	return s.runs.List(ctx, filter)
}

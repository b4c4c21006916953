package density

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// CategoricalLimit is the distinct-value count at which an outcome stops
	// being treated as categorical.
	CategoricalLimit = 5

	// DefaultThreshold is used when trueValue is not a finite number.
	DefaultThreshold = 50.0
)

// OutcomeKind tags the value held by an Outcome
type OutcomeKind uint8

const (
	OutcomeNull OutcomeKind = iota
	OutcomeNumber
	OutcomeCategory
)

// Outcome is one raw outcome value. The zero value is null.
type Outcome struct {
	Kind     OutcomeKind
	Number   float64
	Category string
}

// Null returns an absent outcome
func Null() Outcome { return Outcome{} }

// Number returns a numeric outcome
func Number(v float64) Outcome { return Outcome{Kind: OutcomeNumber, Number: v} }

// Category returns a string outcome
func Category(s string) Outcome { return Outcome{Kind: OutcomeCategory, Category: s} }

// IsNull reports whether the outcome is absent
func (o Outcome) IsNull() bool { return o.Kind == OutcomeNull }

// String renders the outcome for logs and run history
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeNumber:
		return strconv.FormatFloat(o.Number, 'g', -1, 64)
	case OutcomeCategory:
		return o.Category
	default:
		return "null"
	}
}

// UnmarshalJSON accepts a JSON number, string, boolean or null.
// Booleans become 1 and 0 so they compare like numeric labels.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*o = Null()
		return nil
	case bytes.Equal(data, []byte("true")):
		*o = Number(1)
		return nil
	case bytes.Equal(data, []byte("false")):
		*o = Number(0)
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid outcome string: %w", err)
		}
		*o = Category(s)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("outcome must be a number, string or null: %w", err)
	}
	*o = Number(v)
	return nil
}

// MarshalJSON writes the outcome back in its JSON form
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OutcomeNumber:
		return json.Marshal(o.Number)
	case OutcomeCategory:
		return json.Marshal(o.Category)
	default:
		return []byte("null"), nil
	}
}

// less orders numbers before categories, each ascending
func (o Outcome) less(other Outcome) bool {
	if o.Kind != other.Kind {
		return o.Kind < other.Kind
	}
	if o.Kind == OutcomeNumber {
		return o.Number < other.Number
	}
	return o.Category < other.Category
}

// DistinctOutcomes returns the sorted unique non-null outcomes
func DistinctOutcomes(outcomes []Outcome) []Outcome {
	seen := make(map[Outcome]struct{}, len(outcomes))
	var distinct []Outcome
	for _, o := range outcomes {
		if o.IsNull() {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		distinct = append(distinct, o)
	}

	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].less(distinct[j])
	})
	return distinct
}

// Binarization is the per-sample positive/negative labelling of an outcome set.
type Binarization struct {
	Labels      []uint8
	Categorical bool
	// Threshold is the equality key in the categorical branch and the
	// numeric cut-off in the continuous branch.
	Threshold Outcome
	Distinct  int
	Positives int
}

// ParseThreshold parses trueValue as a real number.
// Anything that is not a finite number resolves to DefaultThreshold.
func ParseThreshold(trueValue string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(trueValue), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultThreshold, false
	}
	return v, true
}

// Binarize labels each outcome 1 (positive) or 0 (negative).
//
// Outcomes with fewer than CategoricalLimit distinct non-null values are
// categorical and labelled by equality with the resolved key. Otherwise they
// are continuous and labelled by strictly exceeding the numeric threshold.
// Null outcomes are always negative.
func Binarize(outcomes []Outcome, trueValue string) (*Binarization, error) {
	if len(outcomes) == 0 {
		return nil, ErrNoSamples
	}

	distinct := DistinctOutcomes(outcomes)
	threshold, numeric := ParseThreshold(trueValue)

	b := &Binarization{
		Labels:      make([]uint8, len(outcomes)),
		Categorical: len(distinct) < CategoricalLimit,
		Distinct:    len(distinct),
		Threshold:   Number(threshold),
	}
	if b.Categorical && !numeric {
		b.Threshold = resolveCategory(distinct, trueValue)
	}

	for i, o := range outcomes {
		var positive bool
		switch {
		case o.IsNull():
			// nulls count toward the negative class
			positive = false
		case b.Categorical:
			positive = o == b.Threshold
		default:
			positive = o.Kind == OutcomeNumber && o.Number > threshold
		}

		if positive {
			b.Labels[i] = 1
			b.Positives++
		}
	}

	return b, nil
}

// resolveCategory picks the equality key for a non-numeric trueValue: the
// matching category when one exists, else the first distinct value.
func resolveCategory(distinct []Outcome, trueValue string) Outcome {
	key := Category(trueValue)
	for _, o := range distinct {
		if o == key {
			return key
		}
	}
	if len(distinct) > 0 {
		return distinct[0]
	}
	return Number(DefaultThreshold)
}

// Select returns the coordinates of the positively labelled samples
func (b *Binarization) Select(xs, ys []float64) ([]float64, []float64) {
	posX := make([]float64, 0, b.Positives)
	posY := make([]float64, 0, b.Positives)
	for i, label := range b.Labels {
		if label == 1 {
			posX = append(posX, xs[i])
			posY = append(posY, ys[i])
		}
	}
	return posX, posY
}

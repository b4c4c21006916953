package stats

import (
	"gonum.org/v1/gonum/mat"
)

// Min returns the minimum value
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Normalize rescales values to the [0, 1] range with min-max normalization.
// A constant input (zero range) yields all zeros rather than NaN.
func Normalize(values []float64) []float64 {
	min := Min(values)
	max := Max(values)
	rangeVal := max - min

	result := make([]float64, len(values))
	if rangeVal == 0 {
		return result
	}

	for i, v := range values {
		result[i] = (v - min) / rangeVal
	}

	return result
}

// NormalizeField applies Normalize to every cell of a matrix and returns a new
// matrix of the same shape. The input is left untouched.
func NormalizeField(field *mat.Dense) *mat.Dense {
	rows, cols := field.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, field.RawRowView(i)...)
	}
	return mat.NewDense(rows, cols, Normalize(data))
}

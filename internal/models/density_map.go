package models

// DensityMapForm is the form-encoded density map request.
// x, y and outcome_values are JSON arrays carried as strings.
type DensityMapForm struct {
	X               string `form:"x" binding:"required"`
	Y               string `form:"y" binding:"required"`
	OutcomeValues   string `form:"outcome_values" binding:"required"`
	DensityBandwith string `form:"densityBandwith" binding:"required"` // 10^(n-20) fudge exponent
	TrueValue       string `form:"trueValue"`
}

// CoordinateScale is the divisor applied to raw x and y values
const CoordinateScale = 1000.0

// BandwidthOffset turns densityBandwith into the fudge exponent
const BandwidthOffset = 20

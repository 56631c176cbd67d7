package inference

import (
	"math"
	"strconv"
)

const metresPerInch = 0.0254

// HeightMetres converts feet and inches to metres. The sum is taken in
// float64 so no feet value can wrap.
func HeightMetres(feet, inches int) float64 {
	return (float64(feet)*12 + float64(inches)) * metresPerInch
}

// CalculateBMI returns weight / height² rounded to two decimals.
//
// The rounding is part of the contract: the interaction flags compare the
// rounded value against 30, so a BMI of 30.004 counts as exactly 30.
func CalculateBMI(weightKg float64, feet, inches int) (float64, error) {
	h := HeightMetres(feet, inches)
	if h <= 0 {
		return 0, &ComputationError{Reason: "bmi", Err: ErrZeroHeight}
	}

	bmi := weightKg / (h * h)
	if math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return 0, &ComputationError{Reason: "bmi is not a finite number"}
	}
	bmi = round2(bmi)
	if bmi <= 0 {
		return 0, &ComputationError{Reason: "bmi rounds to zero", Err: ErrImplausibleBMI}
	}
	return bmi, nil
}

// round2 rounds half to even on the exact binary value of x, the same
// result the training pipeline's round(x, 2) produced.
func round2(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	return r
}

package inference

import (
	"github.com/shopspring/decimal"
)

// RawInput holds the applicant attributes exactly as they were collected
// (form fields, CLI flags, request body), before any parsing.
type RawInput struct {
	Age          string
	Sex          string
	WeightKg     string
	HeightFeet   string
	HeightInches string
	Children     string
	Smoker       string
	Region       string
}

// Sex is encoded the way the model was trained: female=0, male=1.
type Sex int

const (
	SexFemale Sex = 0
	SexMale   Sex = 1
)

func (s Sex) String() string {
	if s == SexMale {
		return "male"
	}
	return "female"
}

// Region is one of the four residential regions. Northeast is the reference
// category and never gets its own feature column.
type Region string

const (
	RegionNortheast Region = "northeast"
	RegionNorthwest Region = "northwest"
	RegionSoutheast Region = "southeast"
	RegionSouthwest Region = "southwest"
)

// Regions lists every accepted region.
var Regions = []Region{RegionNortheast, RegionNorthwest, RegionSoutheast, RegionSouthwest}

// Applicant is a validated RawInput.
type Applicant struct {
	Age          int
	Sex          Sex
	WeightKg     float64
	HeightFeet   int
	HeightInches int
	Children     int
	Smoker       bool
	Region       Region
}

// FeatureColumns is the column order the model was fit against.
// The model is order-sensitive: never reorder.
var FeatureColumns = []string{
	"age",
	"sex",
	"bmi",
	"children",
	"smoker",
	"region_northwest",
	"region_southeast",
	"region_southwest",
	"overweight_smoker",
	"normal_nonsmoker",
}

// FeatureVector is the fixed-schema numeric record consumed by the model.
type FeatureVector struct {
	Age              float64
	Sex              float64
	BMI              float64
	Children         float64
	Smoker           float64
	RegionNorthwest  float64
	RegionSoutheast  float64
	RegionSouthwest  float64
	OverweightSmoker float64
	NormalNonsmoker  float64
}

// Columns returns the column names matching Values.
func (fv FeatureVector) Columns() []string {
	cols := make([]string, len(FeatureColumns))
	copy(cols, FeatureColumns)
	return cols
}

// Values returns the vector in FeatureColumns order.
func (fv FeatureVector) Values() []float64 {
	return []float64{
		fv.Age,
		fv.Sex,
		fv.BMI,
		fv.Children,
		fv.Smoker,
		fv.RegionNorthwest,
		fv.RegionSoutheast,
		fv.RegionSouthwest,
		fv.OverweightSmoker,
		fv.NormalNonsmoker,
	}
}

// DerivedField is a computed feature defined by a CEL expression.
// Expressions see two variables: bmi (double) and smoker (bool), and
// must evaluate to bool.
type DerivedField struct {
	Name       string
	Expression string
}

// PredictionResult is the model output brought back to currency.
type PredictionResult struct {
	LogValue  float64
	Amount    decimal.Decimal // rounded to cents
	Formatted string          // e.g. "$5,000.00"
}

func (r PredictionResult) String() string {
	return r.Formatted
}

// Inference is the trace of one pipeline run.
type Inference struct {
	Applicant Applicant
	Features  FeatureVector
	LogValue  float64
	Result    PredictionResult
}

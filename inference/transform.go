package inference

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

const (
	fieldOverweightSmoker = "overweight_smoker"
	fieldNormalNonsmoker  = "normal_nonsmoker"
)

// DefaultDerivedFields are the interaction flags the model was trained with.
// They are not complements: a smoker with bmi <= 30 gets both flags 0.
var DefaultDerivedFields = []DerivedField{
	{Name: fieldOverweightSmoker, Expression: `smoker && bmi > 30.0`},
	{Name: fieldNormalNonsmoker, Expression: `!smoker && bmi < 30.0`},
}

// Transformer turns an Applicant into a FeatureVector. It holds only
// compiled programs and is safe for concurrent use.
type Transformer struct {
	overweightSmoker cel.Program
	normalNonsmoker  cel.Program
}

// NewTransformer compiles DefaultDerivedFields.
func NewTransformer() (*Transformer, error) {
	return NewTransformerWithFields(DefaultDerivedFields)
}

// NewTransformerWithFields compiles custom definitions for the derived
// columns. Each derived column must be defined exactly once.
func NewTransformerWithFields(fields []DerivedField) (*Transformer, error) {
	env, err := cel.NewEnv(
		cel.Variable("bmi", cel.DoubleType),
		cel.Variable("smoker", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	programs := make(map[string]cel.Program, len(fields))
	for _, f := range fields {
		if f.Name != fieldOverweightSmoker && f.Name != fieldNormalNonsmoker {
			return nil, fmt.Errorf("unknown derived field %q", f.Name)
		}
		if _, dup := programs[f.Name]; dup {
			return nil, fmt.Errorf("derived field %q defined twice", f.Name)
		}
		prog, err := compileDerived(env, f)
		if err != nil {
			return nil, err
		}
		programs[f.Name] = prog
	}

	for _, name := range []string{fieldOverweightSmoker, fieldNormalNonsmoker} {
		if _, ok := programs[name]; !ok {
			return nil, fmt.Errorf("derived field %q is not defined", name)
		}
	}

	return &Transformer{
		overweightSmoker: programs[fieldOverweightSmoker],
		normalNonsmoker:  programs[fieldNormalNonsmoker],
	}, nil
}

func compileDerived(env *cel.Env, f DerivedField) (cel.Program, error) {
	ast, issues := env.Compile(f.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error in %s: %w", f.Name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("derived field %s must evaluate to bool, got %s", f.Name, ast.OutputType())
	}

	prog, err := env.Program(ast, cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("program creation error in %s: %w", f.Name, err)
	}
	return prog, nil
}

// Transform derives BMI, the region one-hot columns and the interaction
// flags, and assembles them in FeatureColumns order. It is pure: the same
// Applicant always yields the same vector.
func (t *Transformer) Transform(a Applicant) (FeatureVector, error) {
	bmi, err := CalculateBMI(a.WeightKg, a.HeightFeet, a.HeightInches)
	if err != nil {
		return FeatureVector{}, err
	}

	overweightSmoker, normalNonsmoker, err := t.derive(bmi, a.Smoker)
	if err != nil {
		return FeatureVector{}, err
	}

	fv := FeatureVector{
		Age:              float64(a.Age),
		Sex:              float64(a.Sex),
		BMI:              bmi,
		Children:         float64(a.Children),
		Smoker:           flag(a.Smoker),
		OverweightSmoker: overweightSmoker,
		NormalNonsmoker:  normalNonsmoker,
	}

	switch a.Region {
	case RegionNortheast:
	case RegionNorthwest:
		fv.RegionNorthwest = 1
	case RegionSoutheast:
		fv.RegionSoutheast = 1
	case RegionSouthwest:
		fv.RegionSouthwest = 1
	default:
		return FeatureVector{}, &ValidationError{Field: "region", Reason: fmt.Sprintf("unknown region %q", a.Region)}
	}

	return fv, nil
}

// derive evaluates the interaction flags against the rounded bmi.
func (t *Transformer) derive(bmi float64, smoker bool) (overweightSmoker, normalNonsmoker float64, err error) {
	vars := map[string]any{"bmi": bmi, "smoker": smoker}

	overweightSmoker, err = evalFlag(t.overweightSmoker, fieldOverweightSmoker, vars)
	if err != nil {
		return 0, 0, err
	}
	normalNonsmoker, err = evalFlag(t.normalNonsmoker, fieldNormalNonsmoker, vars)
	if err != nil {
		return 0, 0, err
	}
	return overweightSmoker, normalNonsmoker, nil
}

func evalFlag(prog cel.Program, name string, vars map[string]any) (float64, error) {
	out, _, err := prog.Eval(vars)
	if err != nil {
		return 0, &ComputationError{Reason: name, Err: err}
	}
	b, ok := out.Value().(bool)
	if !ok {
		return 0, &ComputationError{Reason: fmt.Sprintf("%s did not evaluate to bool", name)}
	}
	return flag(b), nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

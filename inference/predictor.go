package inference

import (
	"errors"
	"fmt"
)

// Predictor runs the full pipeline: Validate, Transform, Predict, Interpret.
// It holds no per-call state and is safe for concurrent use.
type Predictor struct {
	transformer *Transformer
	adapter     *ModelAdapter
	interpreter *Interpreter
}

// NewPredictor builds a predictor around a loaded adapter using the default
// derived fields.
func NewPredictor(adapter *ModelAdapter) (*Predictor, error) {
	t, err := NewTransformer()
	if err != nil {
		return nil, fmt.Errorf("failed to compile derived fields: %w", err)
	}
	return NewPredictorWithTransformer(adapter, t)
}

// NewPredictorWithTransformer builds a predictor with a custom transformer.
func NewPredictorWithTransformer(adapter *ModelAdapter, t *Transformer) (*Predictor, error) {
	if adapter == nil {
		return nil, &ModelUnavailableError{Reason: "model adapter is nil"}
	}
	if t == nil {
		return nil, errors.New("transformer is nil")
	}
	return &Predictor{
		transformer: t,
		adapter:     adapter,
		interpreter: NewInterpreter(),
	}, nil
}

// Infer maps raw input to a predicted charge. Every error it returns is
// classified by KindOf.
func (p *Predictor) Infer(raw RawInput) (PredictionResult, error) {
	inf, err := p.Evaluate(raw)
	if err != nil {
		return PredictionResult{}, err
	}
	return inf.Result, nil
}

// Evaluate is Infer with the intermediate values kept.
func (p *Predictor) Evaluate(raw RawInput) (*Inference, error) {
	applicant, err := Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	features, err := p.transformer.Transform(applicant)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	logValue, err := p.adapter.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	result, err := p.interpreter.Interpret(logValue)
	if err != nil {
		return nil, fmt.Errorf("interpret: %w", err)
	}

	return &Inference{
		Applicant: applicant,
		Features:  features,
		LogValue:  logValue,
		Result:    result,
	}, nil
}

// Model describes the model behind the predictor.
func (p *Predictor) Model() (ModelInfo, error) {
	return p.adapter.Info()
}

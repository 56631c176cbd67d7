package inference

import (
	"context"
	"slices"
	"sync/atomic"
)

// Model is the single capability the core needs from a trained model:
// one prediction over an ordered row of numeric features, returned on
// the model's native (log) scale.
type Model interface {
	Predict(values []float64) (float64, error)
}

// ModelInfo identifies a loaded model and the columns it was fit against.
type ModelInfo struct {
	ID      string
	Name    string
	Version int
	Columns []string
}

// ModelSource acquires a model once, at startup.
type ModelSource interface {
	Load(ctx context.Context) (Model, ModelInfo, error)
}

type loadedModel struct {
	model Model
	info  ModelInfo
}

// ModelAdapter owns one loaded model for the life of the process and is
// the only place that maps a FeatureVector onto the model's input row.
// After initialisation it is read-only; Predict may be called concurrently.
// The zero value is an adapter with no model loaded.
type ModelAdapter struct {
	state atomic.Pointer[loadedModel]
}

// LoadModelAdapter loads a model from src. Every failure is fatal to the
// adapter and reported as ModelUnavailableError or SchemaMismatchError.
func LoadModelAdapter(ctx context.Context, src ModelSource) (*ModelAdapter, error) {
	if src == nil {
		return nil, &ModelUnavailableError{Reason: "no model source configured"}
	}
	m, info, err := src.Load(ctx)
	if err != nil {
		return nil, &ModelUnavailableError{Reason: "failed to load model", Err: err}
	}
	return NewModelAdapter(m, info)
}

// NewModelAdapter wraps an already loaded model. info.Columns must equal
// FeatureColumns.
func NewModelAdapter(m Model, info ModelInfo) (*ModelAdapter, error) {
	if m == nil {
		return nil, &ModelUnavailableError{Reason: "model is nil"}
	}
	if !slices.Equal(info.Columns, FeatureColumns) {
		return nil, &SchemaMismatchError{Expected: FeatureColumns, Got: info.Columns}
	}

	info.Columns = slices.Clone(info.Columns)
	a := &ModelAdapter{}
	a.state.Store(&loadedModel{model: m, info: info})
	return a, nil
}

// Info describes the loaded model.
func (a *ModelAdapter) Info() (ModelInfo, error) {
	lm := a.state.Load()
	if lm == nil {
		return ModelInfo{}, &ModelUnavailableError{Reason: "model not loaded"}
	}
	info := lm.info
	info.Columns = slices.Clone(info.Columns)
	return info, nil
}

// Predict returns the model's native output (natural log of the charge).
func (a *ModelAdapter) Predict(fv FeatureVector) (float64, error) {
	return a.predictRow(fv.Columns(), fv.Values())
}

func (a *ModelAdapter) predictRow(columns []string, values []float64) (float64, error) {
	lm := a.state.Load()
	if lm == nil {
		return 0, &ModelUnavailableError{Reason: "model not loaded"}
	}

	if len(values) != len(lm.info.Columns) || !slices.Equal(columns, lm.info.Columns) {
		return 0, &SchemaMismatchError{Expected: slices.Clone(lm.info.Columns), Got: columns}
	}

	out, err := lm.model.Predict(values)
	if err != nil {
		return 0, &ComputationError{Reason: "model prediction failed", Err: err}
	}
	return out, nil
}

// Close releases the model. Later calls report ModelUnavailableError.
func (a *ModelAdapter) Close() error {
	a.state.Store(nil)
	return nil
}

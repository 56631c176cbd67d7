package inference

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the pipeline can return.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindComputation      ErrorKind = "computation"
	KindModelUnavailable ErrorKind = "model_unavailable"
	KindSchemaMismatch   ErrorKind = "schema_mismatch"
)

var (
	ErrZeroHeight       = errors.New("height resolves to zero metres")
	ErrImplausibleBMI   = errors.New("height and weight give no usable bmi")
	ErrNonFiniteOutput  = errors.New("model output is not finite")
	ErrAmountOutOfRange = errors.New("predicted amount exceeds representable range")
)

// ValidationError names one offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidationErrors collects every field failure found in one RawInput.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// ComputationError reports an arithmetic failure during feature derivation
// or a model output that cannot be turned into an amount.
type ComputationError struct {
	Reason string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("computation failed: %s: %v", e.Reason, e.Err)
	}
	return "computation failed: " + e.Reason
}

func (e *ComputationError) Unwrap() error { return e.Err }

// ModelUnavailableError reports a model that failed to load, or an adapter
// used before initialisation or after Close.
type ModelUnavailableError struct {
	Reason string
	Err    error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model unavailable: %s: %v", e.Reason, e.Err)
	}
	return "model unavailable: " + e.Reason
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a feature vector whose arity or column order
// differs from what the model was trained against.
type SchemaMismatchError struct {
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: expected %d columns [%s], got %d [%s]",
		len(e.Expected), strings.Join(e.Expected, ","),
		len(e.Got), strings.Join(e.Got, ","))
}

// KindOf reports which of the four error kinds err belongs to.
func KindOf(err error) (ErrorKind, bool) {
	var (
		validation  *ValidationError
		computation *ComputationError
		unavailable *ModelUnavailableError
		mismatch    *SchemaMismatchError
	)
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &validation):
		return KindValidation, true
	case errors.As(err, &mismatch):
		return KindSchemaMismatch, true
	case errors.As(err, &unavailable):
		return KindModelUnavailable, true
	case errors.As(err, &computation):
		return KindComputation, true
	}
	return "", false
}

// FieldErrors flattens err into its individual field failures.
func FieldErrors(err error) []*ValidationError {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return []*ValidationError{one}
	}
	return nil
}

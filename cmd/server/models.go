package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/liamcoop/chargecast/inference"
)

// flexString accepts a JSON string, number or boolean and keeps its text,
// so the validator sees exactly what the caller sent.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*f = flexString(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected a string, number or boolean, got %s", data)
		}
		*f = flexString(n.String())
	}
	return nil
}

// PredictRequest is the body of POST /api/v1/predict
type PredictRequest struct {
	Age          flexString `json:"age" example:"30"`
	Sex          flexString `json:"sex" example:"female"`
	Weight       flexString `json:"weight" example:"70"`
	HeightFeet   flexString `json:"heightFeet" example:"5"`
	HeightInches flexString `json:"heightInches" example:"9"`
	Children     flexString `json:"children" example:"1"`
	Smoker       flexString `json:"smoker" example:"no"`
	Region       flexString `json:"region" example:"northeast"`
}

func (r PredictRequest) rawInput() inference.RawInput {
	return inference.RawInput{
		Age:          string(r.Age),
		Sex:          string(r.Sex),
		WeightKg:     string(r.Weight),
		HeightFeet:   string(r.HeightFeet),
		HeightInches: string(r.HeightInches),
		Children:     string(r.Children),
		Smoker:       string(r.Smoker),
		Region:       string(r.Region),
	}
}

// ModelRef identifies the artifact that produced a prediction
type ModelRef struct {
	ID      string `json:"id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name    string `json:"name" example:"insurance-charges"`
	Version int    `json:"version" example:"1"`
}

// FeatureValue is one column of the feature vector
type FeatureValue struct {
	Name  string  `json:"name" example:"bmi"`
	Value float64 `json:"value" example:"22.79"`
}

// PredictResponse is returned by POST /api/v1/predict
type PredictResponse struct {
	Charges  string         `json:"charges" example:"$4,189.31"`
	Amount   string         `json:"amount" example:"4189.31"`
	LogValue float64        `json:"logValue" example:"8.3403"`
	BMI      float64        `json:"bmi" example:"22.79"`
	Model    ModelRef       `json:"model"`
	Features []FeatureValue `json:"features,omitempty"`
}

// ModelResponse is returned by GET /api/v1/model
type ModelResponse struct {
	ModelRef
	Columns []string `json:"columns"`
}

// FieldError names one rejected input field
type FieldError struct {
	Field  string `json:"field" example:"region"`
	Reason string `json:"reason" example:"is required"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string       `json:"error" example:"invalid input"`
	Kind    string       `json:"kind,omitempty" example:"validation"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func newPredictResponse(inf *inference.Inference, info inference.ModelInfo, explain bool) PredictResponse {
	resp := PredictResponse{
		Charges:  inf.Result.Formatted,
		Amount:   inf.Result.Amount.StringFixed(2),
		LogValue: inf.LogValue,
		BMI:      inf.Features.BMI,
		Model:    ModelRef{ID: info.ID, Name: info.Name, Version: info.Version},
	}
	if explain {
		cols, values := inf.Features.Columns(), inf.Features.Values()
		resp.Features = make([]FeatureValue, len(cols))
		for i := range cols {
			resp.Features[i] = FeatureValue{Name: cols[i], Value: values[i]}
		}
	}
	return resp
}

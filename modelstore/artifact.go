package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/chargecast/inference"
)

// Artifact is a versioned linear model over log charges.
type Artifact struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	FeatureNames []string  `json:"featureNames"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Predict returns intercept + coefficients · values.
func (a *Artifact) Predict(values []float64) (float64, error) {
	if len(values) != len(a.Coefficients) {
		return 0, fmt.Errorf("artifact %s expects %d values, got %d", a.Name, len(a.Coefficients), len(values))
	}
	out := a.Intercept
	for i, v := range values {
		out += a.Coefficients[i] * v
	}
	return out, nil
}

// Info describes the artifact to the model adapter.
func (a *Artifact) Info() inference.ModelInfo {
	id := ""
	if a.ID != uuid.Nil {
		id = a.ID.String()
	}
	return inference.ModelInfo{
		ID:      id,
		Name:    a.Name,
		Version: a.Version,
		Columns: slices.Clone(a.FeatureNames),
	}
}

// LoadArtifactFile reads and validates a JSON artifact.
func LoadArtifactFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	if err := ValidateArtifact(&a); err != nil {
		return nil, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return &a, nil
}

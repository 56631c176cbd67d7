package modelstore

import (
	"fmt"
	"math"
	"regexp"
)

const (
	maxNameLength = 100
	maxFeatures   = 200
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidateArtifact checks that an artifact is well formed. It does not
// check the feature names against any particular pipeline; the model
// adapter does that when the artifact is loaded.
func ValidateArtifact(a *Artifact) error {
	if a == nil {
		return fmt.Errorf("artifact is nil")
	}

	if a.Name == "" {
		return fmt.Errorf("artifact name cannot be empty")
	}
	if len(a.Name) > maxNameLength {
		return fmt.Errorf("artifact name length %d exceeds maximum of %d characters", len(a.Name), maxNameLength)
	}
	if !namePattern.MatchString(a.Name) {
		return fmt.Errorf("artifact name %q must match pattern %s", a.Name, namePattern)
	}

	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("artifact must contain at least one feature")
	}
	if len(a.FeatureNames) > maxFeatures {
		return fmt.Errorf("artifact contains %d features, maximum allowed is %d", len(a.FeatureNames), maxFeatures)
	}

	seen := make(map[string]bool, len(a.FeatureNames))
	for _, name := range a.FeatureNames {
		if err := validateIdentifier(name); err != nil {
			return fmt.Errorf("invalid feature name %q: %w", name, err)
		}
		if seen[name] {
			return fmt.Errorf("feature %q listed more than once", name)
		}
		seen[name] = true
	}

	if len(a.Coefficients) != len(a.FeatureNames) {
		return fmt.Errorf("artifact has %d coefficients for %d features", len(a.Coefficients), len(a.FeatureNames))
	}
	for i, c := range a.Coefficients {
		if !isFinite(c) {
			return fmt.Errorf("coefficient for %q is not a finite number", a.FeatureNames[i])
		}
	}
	if !isFinite(a.Intercept) {
		return fmt.Errorf("intercept is not a finite number")
	}

	return nil
}

func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxNameLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$ (start with letter or underscore, followed by letters, digits, or underscores)")
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

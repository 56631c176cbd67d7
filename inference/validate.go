package inference

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MaxChildren is the largest children count offered to the caller.
	MaxChildren = 5
	// MaxHeightFeet bounds the feet part of a height.
	MaxHeightFeet = 9
)

// Validate parses and range-checks raw. Every offending field is reported;
// the returned error is a ValidationErrors.
func Validate(raw RawInput) (Applicant, error) {
	var (
		a    Applicant
		errs ValidationErrors
		err  *ValidationError
	)

	if a.Age, err = parseAge(raw.Age); err != nil {
		errs = append(errs, err)
	}
	if a.Sex, err = parseSex(raw.Sex); err != nil {
		errs = append(errs, err)
	}
	if a.WeightKg, err = parseWeight(raw.WeightKg); err != nil {
		errs = append(errs, err)
	}

	feet, feetErr := parseFeet(raw.HeightFeet)
	if feetErr != nil {
		errs = append(errs, feetErr)
	}
	inches, inchesErr := parseInches(raw.HeightInches)
	if inchesErr != nil {
		errs = append(errs, inchesErr)
	}
	if feetErr == nil && inchesErr == nil && feet == 0 && inches == 0 {
		errs = append(errs, &ValidationError{Field: "height", Reason: "must be greater than zero"})
	}
	a.HeightFeet, a.HeightInches = feet, inches

	if a.Children, err = parseChildren(raw.Children); err != nil {
		errs = append(errs, err)
	}
	if a.Smoker, err = parseSmoker(raw.Smoker); err != nil {
		errs = append(errs, err)
	}
	if a.Region, err = parseRegion(raw.Region); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Applicant{}, errs
	}
	return a, nil
}

// parseRegion accepts a region name in any case. An empty value is an
// error: there is no default region.
func parseRegion(s string) (Region, *ValidationError) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", &ValidationError{Field: "region", Reason: "is required"}
	}
	for _, r := range Regions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", &ValidationError{Field: "region", Reason: "must be one of northeast, northwest, southeast, southwest"}
}

func parseAge(s string) (int, *ValidationError) {
	n, verr := parseInt("age", s)
	if verr != nil {
		return 0, verr
	}
	if n <= 0 {
		return 0, &ValidationError{Field: "age", Reason: "must be greater than zero"}
	}
	return n, nil
}

func parseSex(s string) (Sex, *ValidationError) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f", "0":
		return SexFemale, nil
	case "male", "m", "1":
		return SexMale, nil
	case "":
		return 0, &ValidationError{Field: "sex", Reason: "is required"}
	}
	return 0, &ValidationError{Field: "sex", Reason: "must be female or male"}
}

func parseWeight(s string) (float64, *ValidationError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "weight", Reason: "is required"}
	}
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, &ValidationError{Field: "weight", Reason: "must be a number"}
	}
	if w <= 0 {
		return 0, &ValidationError{Field: "weight", Reason: "must be greater than zero"}
	}
	return w, nil
}

func parseFeet(s string) (int, *ValidationError) {
	n, verr := parseInt("heightFeet", s)
	if verr != nil {
		return 0, verr
	}
	if n < 0 || n > MaxHeightFeet {
		return 0, &ValidationError{Field: "heightFeet", Reason: "must be between 0 and 9"}
	}
	return n, nil
}

func parseInches(s string) (int, *ValidationError) {
	n, verr := parseInt("heightInches", s)
	if verr != nil {
		return 0, verr
	}
	if n < 0 || n >= 12 {
		return 0, &ValidationError{Field: "heightInches", Reason: "must be between 0 and 11"}
	}
	return n, nil
}

func parseChildren(s string) (int, *ValidationError) {
	n, verr := parseInt("children", s)
	if verr != nil {
		return 0, verr
	}
	if n < 0 || n > MaxChildren {
		return 0, &ValidationError{Field: "children", Reason: "must be one of 0, 1, 2, 3, 4, 5"}
	}
	return n, nil
}

func parseSmoker(s string) (bool, *ValidationError) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	case "":
		return false, &ValidationError{Field: "smoker", Reason: "is required"}
	}
	return false, &ValidationError{Field: "smoker", Reason: "must be yes or no"}
}

func parseInt(field, s string) (int, *ValidationError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a whole number"}
	}
	return n, nil
}

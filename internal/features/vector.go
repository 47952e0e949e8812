// Package features turns raw form values into the validated, fixed-order
// numeric input the classifier was trained on. It imports nothing from
// internal/ and can be tested without any collaborator.
package features

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ─── FIELD NAMES ──────────────────────────────────────────────────────────────

// Raw field names accepted by Build. These are also the JSON keys of the
// assessment request body.
const (
	FieldGlucose       = "glucose"
	FieldBloodPressure = "blood_pressure"
	FieldInsulin       = "insulin"
	FieldBMI           = "bmi"
	FieldDPF           = "dpf"
	FieldAge           = "age"
)

// Order is the classifier's trained feature order. Changing it silently
// invalidates every prediction, so the classifier refuses to load an artifact
// whose declared order differs from this slice.
var Order = []string{
	FieldGlucose,
	FieldBloodPressure,
	FieldInsulin,
	FieldBMI,
	FieldDPF,
	FieldAge,
}

// ─── TYPES ────────────────────────────────────────────────────────────────────

// Vector is a validated set of the six clinical measurements.
type Vector struct {
	Glucose       float64 `json:"glucose"`
	BloodPressure float64 `json:"blood_pressure"`
	Insulin       float64 `json:"insulin"`
	BMI           float64 `json:"bmi"`
	DPF           float64 `json:"dpf"`
	Age           int     `json:"age"`
}

// Slice returns the measurements in Order.
func (v Vector) Slice() []float64 {
	return []float64{v.Glucose, v.BloodPressure, v.Insulin, v.BMI, v.DPF, float64(v.Age)}
}

// ValidationError describes one rejected field. Build joins several of these
// with errors.Join so the caller can report every correction at once.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("features: %s: %s", e.Field, e.Reason)
}

// FieldErrors extracts every *ValidationError from err, which may be a single
// ValidationError or a join of several. It returns nil for any other error.
func FieldErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var out []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve)
	}
	return out
}

// IsValidation reports whether err carries at least one ValidationError.
func IsValidation(err error) bool {
	return len(FieldErrors(err)) > 0
}

// ─── BUILD ────────────────────────────────────────────────────────────────────

// domain is the lower bound a numeric field must satisfy.
type domain int

const (
	nonNegative domain = iota // value >= 0
	positive                  // value > 0
)

// Build validates raw and returns the Vector. It never substitutes a default:
// a missing or blank field is an error, not zero.
func Build(raw map[string]string) (Vector, error) {
	var errs []error

	glucose, err := parseFloat(raw, FieldGlucose, nonNegative)
	errs = appendErr(errs, err)
	bp, err := parseFloat(raw, FieldBloodPressure, nonNegative)
	errs = appendErr(errs, err)
	insulin, err := parseFloat(raw, FieldInsulin, nonNegative)
	errs = appendErr(errs, err)
	bmi, err := parseFloat(raw, FieldBMI, positive)
	errs = appendErr(errs, err)
	dpf, err := parseFloat(raw, FieldDPF, nonNegative)
	errs = appendErr(errs, err)
	age, err := parseInt(raw, FieldAge)
	errs = appendErr(errs, err)

	if len(errs) > 0 {
		return Vector{}, errors.Join(errs...)
	}

	return Vector{
		Glucose:       glucose,
		BloodPressure: bp,
		Insulin:       insulin,
		BMI:           bmi,
		DPF:           dpf,
		Age:           age,
	}, nil
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func lookup(raw map[string]string, field string) (string, error) {
	v, ok := raw[field]
	if !ok {
		return "", &ValidationError{Field: field, Reason: "is required"}
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return v, nil
}

func parseFloat(raw map[string]string, field string, d domain) (float64, error) {
	s, err := lookup(raw, field)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	switch d {
	case positive:
		if f <= 0 {
			return 0, &ValidationError{Field: field, Reason: "must be greater than 0"}
		}
	default:
		if f < 0 {
			return 0, &ValidationError{Field: field, Reason: "must not be negative"}
		}
	}
	return f, nil
}

func parseInt(raw map[string]string, field string) (int, error) {
	s, err := lookup(raw, field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a whole number", s)}
	}
	if n <= 0 {
		return 0, &ValidationError{Field: field, Reason: "must be greater than 0"}
	}
	return n, nil
}

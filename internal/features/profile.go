package features

import (
	"errors"
	"strings"
)

// Raw field names for the free-text part of the profile.
const (
	FieldName   = "name"
	FieldGender = "gender"
)

// Profile is everything a submission captures: the person's name and gender,
// used only in prompts, plus the validated measurements.
type Profile struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Vector Vector `json:"vector"`
}

// ParseProfile validates the name and gender fields and builds the Vector.
// All field problems are reported together.
func ParseProfile(raw map[string]string) (Profile, error) {
	var errs []error

	name := strings.TrimSpace(raw[FieldName])
	if name == "" {
		errs = append(errs, &ValidationError{Field: FieldName, Reason: "is required"})
	}
	gender := strings.TrimSpace(raw[FieldGender])
	if gender == "" {
		errs = append(errs, &ValidationError{Field: FieldGender, Reason: "is required"})
	}

	v, err := Build(raw)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Profile{}, errors.Join(errs...)
	}
	return Profile{Name: name, Gender: gender, Vector: v}, nil
}

// Package classifier wraps the pretrained diabetes-risk model. The artifact is
// loaded once at startup and is read-only afterwards, so a *Model is safe for
// unbounded concurrent use.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/nyashahama/diabetes-risk-planner/internal/features"
)

// ─── RISK LABEL ───────────────────────────────────────────────────────────────

// RiskLabel is the binary classifier output. String values are the stable
// identifiers used in JSON and in the records table.
type RiskLabel string

const (
	LowRisk  RiskLabel = "LOW_RISK"
	HighRisk RiskLabel = "HIGH_RISK"
)

// Text returns the human-readable label embedded in prompts and shown to
// the user.
func (r RiskLabel) Text() string {
	switch r {
	case HighRisk:
		return "High Risk"
	case LowRisk:
		return "Low Risk"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the two known labels.
func (r RiskLabel) Valid() bool {
	return r == LowRisk || r == HighRisk
}

// labelFor maps raw classifier output to a RiskLabel.
func labelFor(class int) RiskLabel {
	if class == 1 {
		return HighRisk
	}
	return LowRisk
}

// ─── MODEL ────────────────────────────────────────────────────────────────────

// ErrClassifierUnavailable is returned by Load when the artifact is missing or
// incompatible. The process must not start without a model.
var ErrClassifierUnavailable = errors.New("classifier: model unavailable")

// Predictor is the narrow interface the planner depends on. *Model satisfies
// it; tests inject a stub.
type Predictor interface {
	Predict(v features.Vector) RiskLabel
}

type predictor func(x []float64) int

// Model is a loaded, immutable classifier.
type Model struct {
	version string
	predict predictor
}

// Load reads and validates the artifact at path. Any failure wraps
// ErrClassifierUnavailable.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrClassifierUnavailable, path, err)
	}
	return Parse(data)
}

// Parse builds a Model from artifact bytes.
func Parse(data []byte) (*Model, error) {
	version, p, err := parseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	return &Model{version: version, predict: p}, nil
}

// Version is the artifact's declared version string.
func (m *Model) Version() string {
	return m.version
}

// Predict classifies v. It is deterministic: the same vector always yields the
// same label.
func (m *Model) Predict(v features.Vector) RiskLabel {
	return labelFor(m.predict(v.Slice()))
}

// predict scores x with the logistic model.
func (l LogisticArtifact) predict(x []float64) int {
	z := floats.Dot(l.Weights, x) + l.Bias
	p := 1 / (1 + math.Exp(-z))
	if p >= 0.5 {
		return 1
	}
	return 0
}

package classifier

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nyashahama/diabetes-risk-planner/internal/features"
)

// artifactKind is the discriminator field inside every model artifact.
type artifactKind string

const (
	kindTree     artifactKind = "tree"
	kindLogistic artifactKind = "logistic"
)

// rawArtifact is used only to peek at the header fields before full
// unmarshalling.
type rawArtifact struct {
	Version      string       `json:"version"`
	Kind         artifactKind `json:"kind"`
	FeatureOrder []string     `json:"feature_order"`
}

// TreeNode is one node of an exported decision tree. Internal nodes send a
// sample left when x[Feature] <= Threshold and right otherwise, matching the
// CART export convention. Leaves carry the predicted class.
//
// JSON shape:
//
//	{"feature": 0, "threshold": 127.5, "left": 1, "right": 2}
//	{"leaf": true, "class": 1}
type TreeNode struct {
	Leaf      bool    `json:"leaf"`
	Class     int     `json:"class"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

// TreeArtifact is a binary decision tree. Nodes[0] is the root.
type TreeArtifact struct {
	Nodes []TreeNode `json:"nodes"`
}

// Validate checks every index is in range, every leaf class is binary, and the
// tree has no cycles reachable from the root. Call this once at load time, not
// on every prediction.
func (t TreeArtifact) Validate() error {
	n := len(t.Nodes)
	if n == 0 {
		return fmt.Errorf("tree artifact: nodes must not be empty")
	}
	for i, node := range t.Nodes {
		if node.Leaf {
			if node.Class != 0 && node.Class != 1 {
				return fmt.Errorf("tree artifact: node %d: class %d is not binary", i, node.Class)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= len(features.Order) {
			return fmt.Errorf("tree artifact: node %d: feature %d out of range", i, node.Feature)
		}
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			// Exporters number children after their parent; requiring that
			// also rules out cycles.
			return fmt.Errorf("tree artifact: node %d: child index out of range", i)
		}
	}
	return nil
}

// predict walks the tree from the root.
func (t TreeArtifact) predict(x []float64) int {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Class
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// LogisticArtifact is a linear model: p = sigmoid(w·x + b), class 1 when
// p >= 0.5.
type LogisticArtifact struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Validate checks there is one weight per feature.
func (l LogisticArtifact) Validate() error {
	if len(l.Weights) != len(features.Order) {
		return fmt.Errorf("logistic artifact: %d weights, want %d", len(l.Weights), len(features.Order))
	}
	return nil
}

// parseArtifact reads the header, verifies the feature order, and unmarshals
// the kind-specific body into a predictor.
func parseArtifact(data []byte) (string, predictor, error) {
	var hdr rawArtifact
	if err := json.Unmarshal(data, &hdr); err != nil {
		return "", nil, fmt.Errorf("parse artifact header: %w", err)
	}

	if !slices.Equal(hdr.FeatureOrder, features.Order) {
		return "", nil, fmt.Errorf("artifact feature order %v does not match %v", hdr.FeatureOrder, features.Order)
	}

	switch hdr.Kind {
	case kindTree:
		var t TreeArtifact
		if err := json.Unmarshal(data, &t); err != nil {
			return "", nil, fmt.Errorf("parse tree artifact: %w", err)
		}
		if err := t.Validate(); err != nil {
			return "", nil, err
		}
		return hdr.Version, t.predict, nil

	case kindLogistic:
		var l LogisticArtifact
		if err := json.Unmarshal(data, &l); err != nil {
			return "", nil, fmt.Errorf("parse logistic artifact: %w", err)
		}
		if err := l.Validate(); err != nil {
			return "", nil, err
		}
		return hdr.Version, l.predict, nil

	default:
		return "", nil, fmt.Errorf("unknown artifact kind %q", hdr.Kind)
	}
}

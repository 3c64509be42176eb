// Package classifier provides the pre-trained water quality predictor
package classifier

import (
	"fmt"

	"github.com/abelzeko/water-quality/internal/entities"
)

// Label is the binary classifier output
type Label int

const (
	LabelSafe     Label = 0
	LabelPolluted Label = 1
)

// String returns a human-readable label name
func (l Label) String() string {
	switch l {
	case LabelSafe:
		return "safe"
	case LabelPolluted:
		return "polluted"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// Classifier maps a single feature vector to a binary label.
// Implementations are read-only after construction.
type Classifier interface {
	Predict(features entities.FeatureVector) (Label, error)
}

// Func adapts an ordinary function to the Classifier interface
type Func func(features entities.FeatureVector) (Label, error)

// Predict calls f(features)
func (f Func) Predict(features entities.FeatureVector) (Label, error) {
	return f(features)
}

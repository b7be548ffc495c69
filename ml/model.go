package ml

import "errors"

var (
	ErrNotLoaded       = errors.New("model not loaded")
	ErrFeatureMismatch = errors.New("feature mismatch")
	ErrUnsupportedType = errors.New("unsupported model type")
)

// Classifier maps a scaled feature vector to a class label and the
// class-probability pair [P(0), P(1)].
type Classifier interface {
	Predict(features []float64) (int, []float64, error)
}

// envelope is the common header of every exported model artifact.
type envelope struct {
	Type    string `json:"type"`
	Classes []int  `json:"classes,omitempty"`
}

func (e envelope) checkClasses() error {
	if len(e.Classes) == 0 {
		return nil
	}
	if len(e.Classes) != 2 || e.Classes[0] != 0 || e.Classes[1] != 1 {
		return errors.New("classes must be [0, 1]")
	}
	return nil
}

func argmax(proba []float64) int {
	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return best
}

package ml

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type LogisticRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (lr *LogisticRegression) Predict(features []float64) (int, []float64, error) {
	if len(lr.Coef) == 0 {
		return 0, nil, ErrNotLoaded
	}
	if len(features) != len(lr.Coef) {
		return 0, nil, fmt.Errorf("%w: got %d features, model has %d coefficients", ErrFeatureMismatch, len(features), len(lr.Coef))
	}
	z := floats.Dot(lr.Coef, features) + lr.Intercept
	p := 1 / (1 + math.Exp(-z))
	label := 0
	if z > 0 {
		label = 1
	}
	return label, []float64{1 - p, p}, nil
}

func decodeLogistic(payload []byte) (*LogisticRegression, error) {
	var raw struct {
		envelope
		Coef      json.RawMessage `json:"coef"`
		Intercept json.RawMessage `json:"intercept"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if err := raw.checkClasses(); err != nil {
		return nil, err
	}
	model := &LogisticRegression{}
	// coef_ and intercept_ are exported either flat or in their (1, n) / (1,) shapes.
	if err := decodeFlexibleVector(raw.Coef, &model.Coef); err != nil {
		return nil, fmt.Errorf("coef: %w", err)
	}
	var intercept []float64
	if err := decodeFlexibleVector(raw.Intercept, &intercept); err != nil {
		return nil, fmt.Errorf("intercept: %w", err)
	}
	if len(intercept) != 1 {
		return nil, fmt.Errorf("intercept: expected one value, got %d", len(intercept))
	}
	model.Intercept = intercept[0]
	if len(model.Coef) != FeatureCount {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrFeatureMismatch, FeatureCount, len(model.Coef))
	}
	return model, nil
}

func decodeFlexibleVector(raw json.RawMessage, dst *[]float64) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing")
	}
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		*dst = []float64{scalar}
		return nil
	}
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		*dst = flat
		return nil
	}
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err != nil {
		return err
	}
	if len(nested) != 1 {
		return fmt.Errorf("expected a single row, got %d", len(nested))
	}
	*dst = nested[0]
	return nil
}

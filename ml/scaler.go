package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

// Scaler is a fitted standard scaler: (x - mean) / scale per feature.
type Scaler struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

func LoadScaler(path string) (*Scaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scaler Scaler
	if err := json.Unmarshal(payload, &scaler); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if err := scaler.validate(); err != nil {
		return nil, err
	}
	return &scaler, nil
}

func (s *Scaler) validate() error {
	if len(s.Mean) != FeatureCount || len(s.Scale) != FeatureCount {
		return fmt.Errorf("%w: scaler expects %d means and scales, got %d and %d",
			ErrFeatureMismatch, FeatureCount, len(s.Mean), len(s.Scale))
	}
	if len(s.FeatureNames) > 0 {
		names := FeatureNames()
		if len(s.FeatureNames) != len(names) {
			return fmt.Errorf("%w: scaler fitted on %d columns", ErrFeatureMismatch, len(s.FeatureNames))
		}
		for i, name := range names {
			if s.FeatureNames[i] != name {
				return fmt.Errorf("%w: column %d is %q, want %q", ErrFeatureMismatch, i, s.FeatureNames[i], name)
			}
		}
	}
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return nil
}

func (s *Scaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(s.Mean) {
		return nil, errors.New("vector/mean length mismatch")
	}
	scaled := make([]float64, len(vector))
	floats.SubTo(scaled, vector, s.Mean)
	floats.Div(scaled, s.Scale)
	return scaled, nil
}

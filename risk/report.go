package risk

import (
	"fmt"
	"math"
	"sort"

	"diabetesrisk/ml"
)

const (
	VerdictDiabetic    = "Diabetic"
	VerdictNotDiabetic = "Not Diabetic"
)

// Impact is the magnitude of one scaled feature.
type Impact struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
	// Share is Impact relative to the largest impact, in [0, 1].
	Share float64 `json:"share"`
}

// Assessment is the full result for one submission. Values returned by an
// Assessor may be shared between callers and must not be modified.
type Assessment struct {
	Inputs        ml.Measurements `json:"inputs"`
	Scaled        []float64       `json:"scaled"`
	Label         int             `json:"label"`
	Probabilities []float64       `json:"probabilities"`
	RiskPercent   float64         `json:"risk_percent"`
	Verdict       string          `json:"verdict"`
	Delta         string          `json:"delta"`
	Band          Band            `json:"band"`
	Message       Message         `json:"message"`
	Impacts       []Impact        `json:"impacts"`
}

// NewAssessment assembles the report for a prediction on already scaled inputs.
func NewAssessment(inputs ml.Measurements, scaled []float64, label int, proba []float64) (*Assessment, error) {
	if len(proba) != 2 {
		return nil, fmt.Errorf("expected 2 class probabilities, got %d", len(proba))
	}
	riskPercent := proba[1] * 100
	band := Classify(label, riskPercent)
	verdict := VerdictNotDiabetic
	if label == 1 {
		verdict = VerdictDiabetic
	}
	return &Assessment{
		Inputs:        inputs,
		Scaled:        scaled,
		Label:         label,
		Probabilities: proba,
		RiskPercent:   riskPercent,
		Verdict:       verdict,
		Delta:         FormatPercent(riskPercent) + " Risk",
		Band:          band,
		Message:       MessageFor(band, riskPercent),
		Impacts:       FeatureImpacts(ml.FeatureNames(), scaled),
	}, nil
}

// FeatureImpacts ranks features by |scaled| descending; ties keep column order.
func FeatureImpacts(names []string, scaled []float64) []Impact {
	impacts := make([]Impact, 0, len(scaled))
	maxImpact := 0.0
	for i, v := range scaled {
		name := fmt.Sprintf("feature_%d", i)
		if i < len(names) {
			name = names[i]
		}
		abs := math.Abs(v)
		maxImpact = math.Max(maxImpact, abs)
		impacts = append(impacts, Impact{Feature: name, Impact: abs})
	}
	sort.SliceStable(impacts, func(i, j int) bool {
		return impacts[i].Impact > impacts[j].Impact
	})
	if maxImpact > 0 {
		for i := range impacts {
			impacts[i].Share = impacts[i].Impact / maxImpact
		}
	}
	return impacts
}

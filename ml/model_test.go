package ml

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestLoadScaler(t *testing.T) {
	scaler, err := LoadScaler("testdata/scaler.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.Transform(DefaultMeasurements().FeatureVector())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{-2, -1, 0, 0, 0, -0.875, 0, -0.25}
	for i := range want {
		if math.Abs(scaled[i]-want[i]) > 1e-9 {
			t.Fatalf("feature %d: expected %v, got %v", i, want[i], scaled[i])
		}
	}
	if _, err := scaler.Transform([]float64{1, 2}); err == nil {
		t.Fatal("expected error for short vector")
	}
}

func TestLoadScalerRejectsColumnOrder(t *testing.T) {
	_, err := LoadScaler("testdata/scaler_bad_names.json")
	if !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected feature mismatch, got %v", err)
	}
}

func TestLogisticRegression(t *testing.T) {
	model, err := LoadModel("", "testdata/logistic.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, proba, err := model.Predict(make([]float64, FeatureCount))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 || proba[1] != 0.5 {
		t.Fatalf("expected label 0 at p=0.5, got %d %v", label, proba)
	}

	x := make([]float64, FeatureCount)
	x[1] = 2
	label, proba, err = model.Predict(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || math.Abs(proba[1]-0.8807970779778823) > 1e-12 {
		t.Fatalf("unexpected prediction: %d %v", label, proba)
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-12 {
		t.Fatalf("probabilities do not sum to 1: %v", proba)
	}
}

func TestDecisionTreePredict(t *testing.T) {
	model, err := LoadModel(TypeDecisionTree, "testdata/tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		name    string
		glucose float64
		bmi     float64
		label   int
		p1      float64
	}{
		{"left leaf", 0.2, 3, 0, 0.2},
		{"tie goes to class 0", 1, 0, 0, 0.5},
		{"right leaf", 1, 0.5, 1, 0.8},
	}
	for _, tt := range tests {
		x := make([]float64, FeatureCount)
		x[1] = tt.glucose
		x[5] = tt.bmi
		label, proba, err := model.Predict(x)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if label != tt.label || math.Abs(proba[1]-tt.p1) > 1e-12 {
			t.Fatalf("%s: expected %d/%v, got %d/%v", tt.name, tt.label, tt.p1, label, proba)
		}
	}
}

func TestRandomForestAveragesTrees(t *testing.T) {
	model, err := LoadModel("", "testdata/forest.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x := make([]float64, FeatureCount)
	x[1], x[5], x[7] = 1, 0.5, 1
	label, proba, err := model.Predict(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || math.Abs(proba[1]-0.7) > 1e-12 {
		t.Fatalf("expected label 1 at p=0.7, got %d %v", label, proba)
	}
	if DescribeModel(model) != "random_forest (2 trees)" {
		t.Fatalf("unexpected description: %s", DescribeModel(model))
	}
}

func TestLoadModelUnsupportedType(t *testing.T) {
	if _, err := LoadModel("", "testdata/unknown.json"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
	if _, err := LoadModel("svm", "testdata/logistic.json"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestLoadArtifacts(t *testing.T) {
	artifacts, err := LoadArtifacts(context.Background(), "testdata/scaler.json", "testdata/tree.json", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifacts.Scaler == nil || artifacts.Model == nil || artifacts.LoadedAt.IsZero() {
		t.Fatalf("incomplete artifacts: %+v", artifacts)
	}
	if _, err := LoadArtifacts(context.Background(), "testdata/missing.json", "testdata/tree.json", ""); err == nil {
		t.Fatal("expected error for missing scaler")
	}
}

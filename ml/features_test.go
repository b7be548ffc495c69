package ml

import (
	"math"
	"net/url"
	"testing"
)

func TestDefaultMeasurementsWithinRange(t *testing.T) {
	m := DefaultMeasurements()
	if m != m.Clamp() {
		t.Fatalf("defaults changed by clamp: %+v", m)
	}
	if m.Glucose != 90 || m.BMI != 25 || m.DiabetesPedigreeFunction != 0.5 || m.Age != 30 {
		t.Fatalf("unexpected defaults: %+v", m)
	}
}

func TestClamp(t *testing.T) {
	m := Measurements{
		Pregnancies:              25,
		Glucose:                  -4,
		BloodPressure:            math.Inf(1),
		SkinThickness:            12.6,
		Insulin:                  math.NaN(),
		BMI:                      70.5,
		DiabetesPedigreeFunction: 0.123,
		Age:                      0,
	}
	got := m.Clamp()
	want := Measurements{
		Pregnancies:              20,
		Glucose:                  0,
		BloodPressure:            200,
		SkinThickness:            13,
		Insulin:                  80,
		BMI:                      70,
		DiabetesPedigreeFunction: 0.123,
		Age:                      1,
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.Clamp() != got {
		t.Fatalf("clamp is not idempotent")
	}
}

func TestParseForm(t *testing.T) {
	form := url.Values{
		"glucose":  {"150"},
		"bmi":      {" 33.3 "},
		"age":      {"abc"},
		"insulin":  {"5000"},
		"pedigree": {""},
	}
	got := ParseForm(form)
	if got.Glucose != 150 {
		t.Fatalf("expected glucose 150, got %v", got.Glucose)
	}
	if got.BMI != 33.3 {
		t.Fatalf("expected bmi 33.3, got %v", got.BMI)
	}
	if got.Age != 30 {
		t.Fatalf("expected default age for unparseable input, got %v", got.Age)
	}
	if got.Insulin != 1000 {
		t.Fatalf("expected insulin clamped to 1000, got %v", got.Insulin)
	}
	if got.DiabetesPedigreeFunction != 0.5 {
		t.Fatalf("expected default pedigree, got %v", got.DiabetesPedigreeFunction)
	}
}

func TestFeatureOrder(t *testing.T) {
	names := FeatureNames()
	if len(names) != FeatureCount {
		t.Fatalf("expected %d names, got %d", FeatureCount, len(names))
	}
	if names[0] != "Pregnancies" || names[6] != "DiabetesPedigreeFunction" || names[7] != "Age" {
		t.Fatalf("unexpected order: %v", names)
	}
	vector := Measurements{Pregnancies: 1, Age: 8}.FeatureVector()
	if vector[0] != 1 || vector[7] != 8 {
		t.Fatalf("unexpected vector: %v", vector)
	}
}

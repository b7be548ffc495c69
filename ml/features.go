package ml

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Measurements is one submitted set of clinical values, in model column order.
type Measurements struct {
	Pregnancies              float64 `json:"pregnancies"`
	Glucose                  float64 `json:"glucose"`
	BloodPressure            float64 `json:"blood_pressure"`
	SkinThickness            float64 `json:"skin_thickness"`
	Insulin                  float64 `json:"insulin"`
	BMI                      float64 `json:"bmi"`
	DiabetesPedigreeFunction float64 `json:"pedigree"`
	Age                      float64 `json:"age"`
}

// InputField describes how one measurement is collected and bounded.
type InputField struct {
	Name    string  `json:"name"`
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer"`
	Help    string  `json:"help"`
	Example string  `json:"example"`
}

var inputFields = []InputField{
	{Name: "Pregnancies", Key: "pregnancies", Label: "Pregnancies", Min: 0, Max: 20, Default: 0, Step: 1, Integer: true,
		Help: "How many times the woman has been pregnant", Example: "0 to 5"},
	{Name: "Glucose", Key: "glucose", Label: "Glucose", Unit: "mg/dL", Min: 0, Max: 300, Default: 90, Step: 1, Integer: true,
		Help: "Sugar level in blood (tested after 2 hours)", Example: "0 to 199 (normal: 70–140)"},
	{Name: "BloodPressure", Key: "blood_pressure", Label: "Blood Pressure", Unit: "mmHg", Min: 0, Max: 200, Default: 70, Step: 1, Integer: true,
		Help: "Pressure in your blood vessels (diastolic)", Example: "0 to 122 (normal: 60–80)"},
	{Name: "SkinThickness", Key: "skin_thickness", Label: "Skin Thickness", Unit: "mm", Min: 0, Max: 100, Default: 20, Step: 1, Integer: true,
		Help: "Skin fold thickness at triceps (body fat measure)", Example: "0 to 99 mm"},
	{Name: "Insulin", Key: "insulin", Label: "Insulin", Unit: "μU/mL", Min: 0, Max: 1000, Default: 80, Step: 1, Integer: true,
		Help: "Insulin level (2-hour serum insulin)", Example: "0 to 846 μU/ml"},
	{Name: "BMI", Key: "bmi", Label: "BMI", Min: 0, Max: 70, Default: 25, Step: 0.1,
		Help: "Body Mass Index (weight/height)", Example: "0 to 67.1 (normal: 18.5–24.9)"},
	{Name: "DiabetesPedigreeFunction", Key: "pedigree", Label: "Diabetes Pedigree Function", Min: 0, Max: 3, Default: 0.5, Step: 0.01,
		Help: "Genetic diabetes risk", Example: "0.078 to 2.42"},
	{Name: "Age", Key: "age", Label: "Age", Min: 1, Max: 120, Default: 30, Step: 1, Integer: true,
		Help: "Person’s age in years", Example: "21 to 81"},
}

// FeatureCount is the width of every feature vector.
const FeatureCount = 8

// InputFields returns the field descriptions in model column order.
func InputFields() []InputField {
	fields := make([]InputField, len(inputFields))
	copy(fields, inputFields)
	return fields
}

func FeatureNames() []string {
	names := make([]string, len(inputFields))
	for i, field := range inputFields {
		names[i] = field.Name
	}
	return names
}

func DefaultMeasurements() Measurements {
	values := make([]float64, len(inputFields))
	for i, field := range inputFields {
		values[i] = field.Default
	}
	return fromVector(values)
}

func (m Measurements) FeatureVector() []float64 {
	return []float64{
		m.Pregnancies,
		m.Glucose,
		m.BloodPressure,
		m.SkinThickness,
		m.Insulin,
		m.BMI,
		m.DiabetesPedigreeFunction,
		m.Age,
	}
}

// Clamp bounds every field to its input range. Integer fields are rounded and
// NaN falls back to the field default.
func (m Measurements) Clamp() Measurements {
	values := m.FeatureVector()
	for i, field := range inputFields {
		values[i] = field.clamp(values[i])
	}
	return fromVector(values)
}

// ParseForm reads measurements from submitted form values. Missing or
// unparseable values take the field default; the result is clamped.
func ParseForm(form url.Values) Measurements {
	values := make([]float64, len(inputFields))
	for i, field := range inputFields {
		values[i] = field.Default
		raw := strings.TrimSpace(form.Get(field.Key))
		if raw == "" {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			values[i] = v
		}
	}
	return fromVector(values).Clamp()
}

func (f InputField) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return f.Default
	}
	if f.Integer {
		v = math.Round(v)
	}
	return math.Max(f.Min, math.Min(f.Max, v))
}

func fromVector(values []float64) Measurements {
	return Measurements{
		Pregnancies:              values[0],
		Glucose:                  values[1],
		BloodPressure:            values[2],
		SkinThickness:            values[3],
		Insulin:                  values[4],
		BMI:                      values[5],
		DiabetesPedigreeFunction: values[6],
		Age:                      values[7],
	}
}

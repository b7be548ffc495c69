package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyThresholds(t *testing.T) {
	tests := []struct {
		name  string
		label int
		risk  float64
		want  Band
	}{
		{"negative, zero risk", 0, 0, LowRisk},
		{"negative, at prediabetes threshold", 0, 35, LowRisk},
		{"negative, just above threshold", 0, 35.0001, Prediabetes},
		{"negative, full risk", 0, 100, Prediabetes},
		{"positive, zero risk", 1, 0, Borderline},
		{"positive, just below 50", 1, 49.9999, Borderline},
		{"positive, at 50", 1, 50, HighRisk},
		{"positive, full risk", 1, 100, HighRisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.label, tt.risk))
		})
	}
}

// Every (label, risk) pair lands in exactly the band its rule describes.
func TestClassifyPartitionsSpace(t *testing.T) {
	inBand := func(b Band, label int, risk float64) bool {
		switch b {
		case Prediabetes:
			return label == 0 && risk > 35 && risk <= 100
		case LowRisk:
			return label == 0 && risk >= 0 && risk <= 35
		case Borderline:
			return label == 1 && risk >= 0 && risk < 50
		case HighRisk:
			return label == 1 && risk >= 50 && risk <= 100
		}
		return false
	}
	bands := []Band{LowRisk, Prediabetes, Borderline, HighRisk}
	for _, label := range []int{0, 1} {
		for step := 0; step <= 10000; step++ {
			risk := float64(step) / 100
			matches := 0
			for _, b := range bands {
				if inBand(b, label, risk) {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("label %d risk %v matched %d bands", label, risk, matches)
			}
			got := Classify(label, risk)
			if !inBand(got, label, risk) {
				t.Fatalf("label %d risk %v classified as %s", label, risk, got)
			}
		}
	}
}

func TestMessageFor(t *testing.T) {
	msg := MessageFor(Prediabetes, 41.26)
	assert.Equal(t, "At Risk of Prediabetes", msg.Headline)
	assert.Equal(t, StyleWarning, msg.Style)
	assert.Contains(t, msg.Bullets, "Risk detected: 41.3%")

	msg = MessageFor(LowRisk, 12.04)
	assert.Equal(t, StyleSafe, msg.Style)
	assert.Equal(t, "Your current estimated risk is 12.0%.", msg.Paragraphs[0])

	assert.Equal(t, "Borderline Diabetes Detected", MessageFor(Borderline, 45).Headline)
	assert.Equal(t, "🚨", MessageFor(HighRisk, 90).Icon)
	assert.Len(t, MessageFor(HighRisk, 90).Bullets, 2)
}

func TestBandText(t *testing.T) {
	text, err := HighRisk.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "high_risk", string(text))
	assert.Equal(t, "band(9)", Band(9).String())
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "35.1%", FormatPercent(35.06))
	assert.Equal(t, "100.0%", FormatPercent(100))
	// English grouping only shows above the [0, 100] risk range.
	assert.Equal(t, "1,234.5%", FormatPercent(1234.5))

	var b Band
	assert.NoError(t, b.UnmarshalText([]byte("borderline")))
	assert.Equal(t, Borderline, b)
	assert.Error(t, b.UnmarshalText([]byte("unknown")))
}

// Package risk turns a classifier output into the report shown to the user.
package risk

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Band is the display category chosen from the predicted label and risk.
type Band int

const (
	LowRisk Band = iota
	Prediabetes
	Borderline
	HighRisk
)

const (
	// PrediabetesThreshold is the risk (percent) above which a negative
	// prediction is still flagged.
	PrediabetesThreshold = 35.0
	// HighRiskThreshold splits positive predictions into borderline and high.
	HighRiskThreshold = 50.0
)

var bandNames = map[Band]string{
	LowRisk:     "low_risk",
	Prediabetes: "prediabetes",
	Borderline:  "borderline",
	HighRisk:    "high_risk",
}

func (b Band) String() string {
	if name, ok := bandNames[b]; ok {
		return name
	}
	return fmt.Sprintf("band(%d)", int(b))
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	for band, name := range bandNames {
		if name == string(text) {
			*b = band
			return nil
		}
	}
	return fmt.Errorf("unknown band %q", text)
}

// Classify picks the band for a label and a risk percentage in [0, 100].
// Rules are evaluated in order; any label other than 1 is treated as negative.
func Classify(label int, riskPercent float64) Band {
	switch {
	case label == 0 && riskPercent > PrediabetesThreshold:
		return Prediabetes
	case label == 1 && riskPercent < HighRiskThreshold:
		return Borderline
	case label == 1:
		return HighRisk
	default:
		return LowRisk
	}
}

// Style is the CSS class of a message block.
type Style string

const (
	StyleWarning Style = "warning"
	StyleSafe    Style = "safe"
)

// Message is the static text block for a band.
type Message struct {
	Icon       string   `json:"icon"`
	Headline   string   `json:"headline"`
	Style      Style    `json:"style"`
	Bullets    []string `json:"bullets,omitempty"`
	Paragraphs []string `json:"paragraphs,omitempty"`
}

var printer = message.NewPrinter(language.English)

// FormatPercent renders a risk percentage with one decimal.
func FormatPercent(riskPercent float64) string {
	return printer.Sprintf("%.1f%%", riskPercent)
}

// MessageFor builds the message block for b at the given risk.
func MessageFor(b Band, riskPercent float64) Message {
	switch b {
	case Prediabetes:
		return Message{
			Icon:     "⚠️",
			Headline: "At Risk of Prediabetes",
			Style:    StyleWarning,
			Bullets: []string{
				"Risk detected: " + FormatPercent(riskPercent),
				"Consider an HbA1c test",
				"Improve lifestyle and monitor health",
			},
		}
	case Borderline:
		return Message{
			Icon:     "⚠️",
			Headline: "Borderline Diabetes Detected",
			Style:    StyleWarning,
			Bullets: []string{
				"Early intervention is key",
				"Consult your doctor",
				"Review medications and diet",
			},
		}
	case HighRisk:
		return Message{
			Icon:     "🚨",
			Headline: "High Diabetes Risk",
			Style:    StyleWarning,
			Bullets: []string{
				"Immediate medical advice recommended",
				"Strict dietary and fitness plan needed",
			},
		}
	default:
		return Message{
			Icon:     "✅",
			Headline: "Low Diabetes Risk",
			Style:    StyleSafe,
			Paragraphs: []string{
				"Your current estimated risk is " + FormatPercent(riskPercent) + ".",
				"Keep up a healthy lifestyle!",
			},
		}
	}
}

package model

import "fmt"

// RiskBand is a three-level bucketing of a risk probability.
type RiskBand string

// Risk bands.
const (
	RiskLow    RiskBand = "Low"
	RiskMedium RiskBand = "Medium"
	RiskHigh   RiskBand = "High"
)

// Band thresholds. Lower bounds are inclusive.
const (
	HighRiskThreshold   = 0.6
	MediumRiskThreshold = 0.2
	// LabelThreshold is exclusive: a probability must exceed it to be labeled 1.
	LabelThreshold = 0.5
)

// BandFor maps a probability onto the fixed threshold ladder.
func BandFor(probability float64) RiskBand {
	switch {
	case probability >= HighRiskThreshold:
		return RiskHigh
	case probability >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// LabelFor derives the binary label from a probability.
func LabelFor(probability float64) int {
	if probability > LabelThreshold {
		return 1
	}
	return 0
}

// ParseRiskBand reconstructs a band from its string form.
func ParseRiskBand(s string) (RiskBand, error) {
	switch RiskBand(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskBand(s), nil
	default:
		return "", fmt.Errorf("invalid risk band: %s", s)
	}
}

// Contribution is the attribution of one model input to a single prediction.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"shap_value"`
}

// Prediction is the scored result for one transaction.
type Prediction struct {
	Transaction Transaction    `json:"input"`
	Band        RiskBand       `json:"risk_band"`
	TopFeatures []Contribution `json:"top_features,omitempty"`
	Probability float64        `json:"risk_probability"`
	Label       int            `json:"predicted_label"`
}

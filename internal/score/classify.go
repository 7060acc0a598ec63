package score

import (
	"github.com/halluscan/halluscan/internal/model"
)

// Classify maps a risk score onto a discrete level via ordered thresholds.
// A score exactly equal to a boundary classifies into the higher category.
func Classify(riskScore float64, thresholds model.Thresholds) model.RiskLevel {
	switch {
	case riskScore >= thresholds.High:
		return model.RiskHigh
	case riskScore >= thresholds.Medium:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

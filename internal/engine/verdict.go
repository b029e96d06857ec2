package engine

import "github.com/truthnetstack/truthnet-orchestrator/internal/models"

// Risk score thresholds for the categorical verdict. Lower bounds are
// inclusive: exactly 0.3 is suspicious and exactly 0.6 is high risk.
const (
	suspiciousThreshold = 0.3
	highRiskThreshold   = 0.6
)

// Classify maps an aggregate risk score to a verdict.
func Classify(riskScore float64) models.Verdict {
	switch {
	case riskScore >= highRiskThreshold:
		return models.VerdictHighRisk
	case riskScore >= suspiciousThreshold:
		return models.VerdictSuspicious
	default:
		return models.VerdictAuthentic
	}
}

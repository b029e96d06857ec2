package engine

import (
	"math"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

// ConsensusResult is the aggregated view over one dispatch's responses.
type ConsensusResult struct {
	RiskScore        float64
	Confidence       float64
	Contributing     int
	CoverageFraction float64
	// Indeterminate is set when no agent contributed. The verdict downstream
	// is still produced, but confidence is pinned to zero.
	Indeterminate bool
}

// Aggregator folds agent responses into a single weighted risk score and a
// confidence figure measuring agreement and coverage.
type Aggregator struct {
	weights models.AgentWeights
}

// NewAggregator builds an Aggregator over a validated weight configuration.
func NewAggregator(weights models.AgentWeights) *Aggregator {
	return &Aggregator{weights: weights}
}

// Aggregate combines the responses. A response contributes when its status is
// not failed and its configured weight is positive; everything else is
// excluded. Weights are renormalized over the contributing set so disabled or
// failed agents do not drag the score toward zero.
func (a *Aggregator) Aggregate(responses []models.AgentResponse) ConsensusResult {
	var contributingWeight float64
	contributing := make([]models.AgentResponse, 0, len(responses))
	for _, resp := range responses {
		weight := a.weights.Weight(resp.AgentType)
		if resp.Failed() || weight <= 0 {
			continue
		}
		contributing = append(contributing, resp)
		contributingWeight += weight
	}

	if len(contributing) == 0 || contributingWeight <= 0 {
		return ConsensusResult{Indeterminate: true}
	}

	var risk float64
	for _, resp := range contributing {
		effective := a.weights.Weight(resp.AgentType) / contributingWeight
		risk += effective * clamp01(resp.RiskScore)
	}
	risk = clamp01(risk)

	var variance float64
	for _, resp := range contributing {
		effective := a.weights.Weight(resp.AgentType) / contributingWeight
		delta := clamp01(resp.RiskScore) - risk
		variance += effective * delta * delta
	}
	stddev := math.Sqrt(variance)

	coverage := 1.0
	if total := a.weights.TotalConfigured(); total > 0 {
		coverage = contributingWeight / total
	}
	confidence := clamp01(coverage * (1 - math.Min(stddev*2, 1)))

	return ConsensusResult{
		RiskScore:        risk,
		Confidence:       confidence,
		Contributing:     len(contributing),
		CoverageFraction: coverage,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

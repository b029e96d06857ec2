package models

import (
	"fmt"
	"sort"
)

// AgentWeights maps each agent type to its relative importance in consensus.
// Weights need not sum to one; the aggregator renormalizes over the agents
// actually contributing. A zero weight means the agent's output is collected
// but never influences the score.
type AgentWeights map[AgentType]float64

// DefaultWeights returns the production weighting: metadata slightly ahead of
// visual, audio trailing, lip-sync collected but unscored while it is under
// evaluation.
func DefaultWeights() AgentWeights {
	return AgentWeights{
		AgentTypeVisual:   0.45,
		AgentTypeMetadata: 0.55,
		AgentTypeAudio:    0.30,
		AgentTypeLipsync:  0.00,
	}
}

// Validate rejects unknown agent types and weights outside [0,1].
func (w AgentWeights) Validate() error {
	total := 0.0
	for agent, weight := range w {
		if !agent.Valid() {
			return fmt.Errorf("unknown agent type %q in weights", agent)
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("weight %f for agent %q outside [0,1]", weight, agent)
		}
		total += weight
	}
	if total == 0 {
		return fmt.Errorf("all agent weights are zero")
	}
	return nil
}

// Weight returns the configured weight for an agent, zero when unconfigured.
func (w AgentWeights) Weight(agent AgentType) float64 {
	return w[agent]
}

// TotalConfigured sums every strictly positive configured weight. This is the
// denominator of the coverage fraction.
func (w AgentWeights) TotalConfigured() float64 {
	total := 0.0
	for _, weight := range w {
		if weight > 0 {
			total += weight
		}
	}
	return total
}

// Agents returns the configured agent types in deterministic order.
func (w AgentWeights) Agents() []AgentType {
	agents := make([]AgentType, 0, len(w))
	for agent := range w {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	return agents
}

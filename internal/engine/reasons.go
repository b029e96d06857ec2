package engine

import (
	"fmt"
	"sort"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

// Fallback reasons used when no contributing response carried a signal.
const (
	reasonNoIndicators     = "No significant manipulation indicators detected"
	reasonInsufficientData = "Insufficient agent data to determine cause"
)

type reasonCandidate struct {
	signal models.Signal
	agent  models.AgentType
	weight float64
}

// ExtractReasons turns the most significant signals across all non-failed
// responses into a bounded, ordered list of human-readable strings. Signals
// sort by confidence descending, ties broken by configured agent weight
// descending and then original signal order. Duplicates per (signal type,
// agent) keep only the highest-confidence occurrence.
func ExtractReasons(responses []models.AgentResponse, weights models.AgentWeights, maxReasons int, consensus ConsensusResult) []string {
	if maxReasons <= 0 {
		maxReasons = 5
	}

	var candidates []reasonCandidate
	for _, resp := range responses {
		if resp.Failed() {
			continue
		}
		for _, sig := range resp.Signals {
			candidates = append(candidates, reasonCandidate{
				signal: sig,
				agent:  resp.AgentType,
				weight: weights.Weight(resp.AgentType),
			})
		}
	}

	if len(candidates) == 0 {
		if consensus.Confidence == 0 {
			return []string{reasonInsufficientData}
		}
		return []string{reasonNoIndicators}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].signal.Confidence != candidates[j].signal.Confidence {
			return candidates[i].signal.Confidence > candidates[j].signal.Confidence
		}
		return candidates[i].weight > candidates[j].weight
	})

	type dedupKey struct {
		signalType string
		agent      models.AgentType
	}
	seen := make(map[dedupKey]bool, len(candidates))
	reasons := make([]string, 0, maxReasons)
	for _, c := range candidates {
		key := dedupKey{signalType: c.signal.SignalType, agent: c.agent}
		if seen[key] {
			continue
		}
		seen[key] = true
		reasons = append(reasons, renderReason(c))
		if len(reasons) == maxReasons {
			break
		}
	}
	return reasons
}

func renderReason(c reasonCandidate) string {
	text := fmt.Sprintf("%s: %s", c.agent, c.signal.Description)
	if c.signal.Description == "" {
		text = fmt.Sprintf("%s: %s", c.agent, c.signal.SignalType)
	}
	if c.signal.Severity != "" {
		text = fmt.Sprintf("%s (%s severity)", text, c.signal.Severity)
	}
	return text
}

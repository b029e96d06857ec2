// Package engine implements the orchestrator's analysis core: parallel agent
// dispatch, weighted consensus aggregation, verdict classification, and reason
// extraction.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
	"github.com/truthnetstack/truthnet-orchestrator/internal/repo"
)

// Pipeline chains dispatch, aggregation, classification, and reason extraction
// into one analysis pass.
type Pipeline struct {
	dispatcher *Dispatcher
	aggregator *Aggregator
	weights    models.AgentWeights
	maxReasons int
	logger     *slog.Logger
}

// NewPipeline wires the analysis stages together.
func NewPipeline(dispatcher *Dispatcher, weights models.AgentWeights, maxReasons int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		dispatcher: dispatcher,
		aggregator: NewAggregator(weights),
		weights:    weights,
		maxReasons: maxReasons,
		logger:     logger,
	}
}

// Analyze fans the request out to the given endpoints and assembles the final
// response. The agent breakdown preserves endpoint order, so callers get a
// deterministic layout for identical inputs.
func (p *Pipeline) Analyze(ctx context.Context, endpoints []repo.AgentEndpoint, req models.AnalysisRequest) (*models.OrchestratorResponse, ConsensusResult) {
	start := time.Now()

	responses := p.dispatcher.Dispatch(ctx, endpoints, req)
	consensus := p.aggregator.Aggregate(responses)
	verdict := Classify(consensus.RiskScore)
	reasons := ExtractReasons(responses, p.weights, p.maxReasons, consensus)

	if consensus.Indeterminate {
		p.logger.Warn("aggregation indeterminate, no contributing agents",
			"request_id", req.RequestID,
			"agents", len(endpoints),
		)
	}

	if responses == nil {
		responses = []models.AgentResponse{}
	}
	response := &models.OrchestratorResponse{
		RequestID:        req.RequestID,
		Verdict:          verdict,
		RiskScore:        consensus.RiskScore,
		Confidence:       consensus.Confidence,
		Reasons:          reasons,
		AgentBreakdown:   responses,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
	return response, consensus
}

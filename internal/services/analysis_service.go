// Package services hosts the orchestrator's application facade. It validates
// incoming work, runs the analysis pipeline, and persists results.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/truthnetstack/truthnet-orchestrator/internal/engine"
	"github.com/truthnetstack/truthnet-orchestrator/internal/metrics"
	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
	"github.com/truthnetstack/truthnet-orchestrator/internal/repo"
	"github.com/truthnetstack/truthnet-orchestrator/internal/utils"
)

// ResultStore persists orchestrator responses for later retrieval.
type ResultStore interface {
	Store(ctx context.Context, response *models.OrchestratorResponse) error
	Fetch(ctx context.Context, requestID string) (*models.OrchestratorResponse, error)
}

// AnalysisService is the facade the HTTP layer talks to.
type AnalysisService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	results   ResultStore
	endpoints []repo.AgentEndpoint
	latencies *utils.LatencyTracker
}

// NewAnalysisService constructs the service facade over the configured agent
// fleet.
func NewAnalysisService(logger *slog.Logger, pipeline *engine.Pipeline, results ResultStore, endpoints []repo.AgentEndpoint) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:    logger,
		pipeline:  pipeline,
		results:   results,
		endpoints: endpoints,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze validates the request, fans it out to the agent fleet, and returns
// the aggregated response. Validation failures short-circuit before any agent
// is called.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.OrchestratorResponse, error) {
	start := time.Now()

	if err := s.validate(req); err != nil {
		metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
		return nil, err
	}
	endpoints, err := s.selectEndpoints(req)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(start), metrics.OutcomeError)
		return nil, err
	}

	s.logger.Debug("dispatching analysis",
		slog.String("request_id", req.RequestID),
		slog.String("media_type", string(req.MediaType)),
		slog.Int("agents", len(endpoints)),
	)

	response, consensus := s.pipeline.Analyze(ctx, endpoints, req)
	duration := time.Since(start)

	s.latencies.Observe(duration)
	outcome := metrics.OutcomeSuccess
	if consensus.Indeterminate {
		outcome = metrics.OutcomeIndeterminate
	}
	metrics.ObserveAnalysis(duration, outcome)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("analysis latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	if s.results != nil {
		if err := s.results.Store(ctx, response); err != nil {
			s.logger.Warn("storing result failed",
				slog.String("request_id", req.RequestID),
				slog.Any("error", err),
			)
		}
	}

	s.logger.Info("analysis complete",
		slog.String("request_id", req.RequestID),
		slog.String("verdict", string(response.Verdict)),
		slog.Float64("risk_score", response.RiskScore),
		slog.Float64("confidence", response.Confidence),
		slog.Duration("duration", duration),
	)
	return response, nil
}

// GetResult fetches a previously computed response by request ID.
func (s *AnalysisService) GetResult(ctx context.Context, requestID string) (*models.OrchestratorResponse, error) {
	if requestID == "" {
		return nil, utils.NewAppError("services.GetResult", utils.CodeInvalidRequest, "request_id is required", nil)
	}
	if s.results == nil {
		return nil, repo.ErrResultNotFound
	}
	return s.results.Fetch(ctx, requestID)
}

// LatencyP95 returns the current p95 analysis latency.
func (s *AnalysisService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *AnalysisService) validate(req models.AnalysisRequest) error {
	if req.RequestID == "" {
		return utils.NewAppError("services.Analyze", utils.CodeInvalidRequest, "request_id is required", nil)
	}
	if !req.MediaType.Valid() {
		return utils.NewAppError("services.Analyze", utils.CodeUnsupportedMediaType,
			fmt.Sprintf("media type %q is not supported", req.MediaType), nil)
	}
	if req.AgentType != "" && !req.AgentType.Valid() {
		return utils.NewAppError("services.Analyze", utils.CodeInvalidRequest,
			fmt.Sprintf("unknown agent type %q", req.AgentType), nil)
	}
	if _, err := os.Stat(req.MediaPath); err != nil {
		if os.IsNotExist(err) {
			return utils.NewAppError("services.Analyze", utils.CodeFileNotFound,
				fmt.Sprintf("media file %s does not exist", req.MediaPath), err)
		}
		return utils.NewAppError("services.Analyze", utils.CodeFileNotFound,
			fmt.Sprintf("media file %s is not readable", req.MediaPath), err)
	}
	return nil
}

func (s *AnalysisService) selectEndpoints(req models.AnalysisRequest) ([]repo.AgentEndpoint, error) {
	if req.AgentType == "" {
		return s.endpoints, nil
	}
	for _, endpoint := range s.endpoints {
		if endpoint.Type == req.AgentType {
			return []repo.AgentEndpoint{endpoint}, nil
		}
	}
	return nil, utils.NewAppError("services.Analyze", utils.CodeInvalidRequest,
		fmt.Sprintf("agent %q is not enabled", req.AgentType), nil)
}

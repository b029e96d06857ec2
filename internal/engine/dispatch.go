package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
	"github.com/truthnetstack/truthnet-orchestrator/internal/repo"
)

// AgentCaller issues one analysis request to one agent endpoint. Implementations
// must be total: every failure is folded into a failed AgentResponse.
type AgentCaller interface {
	Call(ctx context.Context, endpoint repo.AgentEndpoint, req models.AnalysisRequest) models.AgentResponse
}

// collectGrace bounds how long the dispatcher waits, after the global deadline
// fires, for in-flight calls to fold their own cancellation into a response.
const collectGrace = 500 * time.Millisecond

// Dispatcher fans one analysis request out to all enabled agents in parallel
// and joins the results under a global deadline.
type Dispatcher struct {
	caller   AgentCaller
	deadline time.Duration
	logger   *slog.Logger
}

// NewDispatcher builds a Dispatcher with the given global dispatch deadline.
func NewDispatcher(caller AgentCaller, deadline time.Duration, logger *slog.Logger) *Dispatcher {
	if deadline <= 0 {
		deadline = 45 * time.Second
	}
	return &Dispatcher{caller: caller, deadline: deadline, logger: logger}
}

// Dispatch calls every endpoint concurrently and returns exactly one response
// per endpoint, in endpoint order. Agents that do not answer before the global
// deadline get a synthesized timeout failure; their in-flight calls are
// cancelled and the late results discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoints []repo.AgentEndpoint, req models.AnalysisRequest) []models.AgentResponse {
	if len(endpoints) == 0 {
		return nil
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, d.deadline)
	defer cancel()

	type slot struct {
		index int
		resp  models.AgentResponse
	}
	results := make(chan slot, len(endpoints))
	for i, endpoint := range endpoints {
		go func(i int, endpoint repo.AgentEndpoint) {
			results <- slot{index: i, resp: d.caller.Call(dispatchCtx, endpoint, req)}
		}(i, endpoint)
	}

	responses := make([]models.AgentResponse, len(endpoints))
	filled := make([]bool, len(endpoints))
	pending := len(endpoints)

	done := dispatchCtx.Done()
	var grace <-chan time.Time
	for pending > 0 {
		select {
		case s := <-results:
			responses[s.index] = s.resp
			filled[s.index] = true
			pending--
		case <-done:
			timer := time.NewTimer(collectGrace)
			defer timer.Stop()
			grace = timer.C
			done = nil
		case <-grace:
			pending = 0
		}
	}

	for i, ok := range filled {
		if ok {
			continue
		}
		d.logger.Warn("agent missed dispatch deadline",
			"request_id", req.RequestID,
			"agent", endpoints[i].Type,
			"deadline", d.deadline,
		)
		responses[i] = models.FailedResponse(
			req.RequestID,
			endpoints[i].Type,
			models.CodeAgentTimeout,
			"agent did not answer before the dispatch deadline",
			d.deadline,
		)
	}
	return responses
}

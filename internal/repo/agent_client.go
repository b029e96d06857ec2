package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/truthnetstack/truthnet-orchestrator/internal/metrics"
	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

// AgentEndpoint binds an agent type to its HTTP base URL.
type AgentEndpoint struct {
	Type models.AgentType
	URL  string
}

// AgentClient calls analysis agents over HTTP. Call is total: every failure
// mode is folded into a well-formed failed AgentResponse so a broken agent can
// never abort a dispatch.
type AgentClient struct {
	httpClient  *http.Client
	callTimeout time.Duration
}

// NewAgentClient constructs a client with the given per-call timeout.
func NewAgentClient(callTimeout time.Duration) *AgentClient {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &AgentClient{
		httpClient:  &http.Client{},
		callTimeout: callTimeout,
	}
}

// Call posts the analysis request to the agent's /analyze endpoint and returns
// the agent's response, or a synthesized failure describing what went wrong.
func (c *AgentClient) Call(ctx context.Context, endpoint AgentEndpoint, req models.AnalysisRequest) models.AgentResponse {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp := c.call(callCtx, endpoint, req)
	elapsed := time.Since(start)
	if resp.ProcessingTimeMs == 0 {
		resp.ProcessingTimeMs = elapsed.Milliseconds()
	}

	outcome := metrics.OutcomeSuccess
	if resp.Failed() {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveAgentCall(string(endpoint.Type), elapsed, outcome)

	return resp
}

func (c *AgentClient) call(ctx context.Context, endpoint AgentEndpoint, req models.AnalysisRequest) models.AgentResponse {
	fail := func(code, message string) models.AgentResponse {
		return models.FailedResponse(req.RequestID, endpoint.Type, code, message, 0)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fail(models.CodeAgentUnreachable, fmt.Sprintf("marshal request: %v", err))
	}

	url := strings.TrimRight(endpoint.URL, "/") + "/analyze"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fail(models.CodeAgentUnreachable, fmt.Sprintf("build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return fail(models.CodeAgentTimeout, fmt.Sprintf("agent %s timed out: %v", endpoint.Type, err))
		}
		return fail(models.CodeAgentUnreachable, fmt.Sprintf("agent %s unreachable: %v", endpoint.Type, err))
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return fail(models.CodeAgentBadResponse, fmt.Sprintf("agent %s returned %s", endpoint.Type, httpResp.Status))
	}

	var payload models.AgentResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&payload); err != nil {
		return fail(models.CodeAgentBadResponse, fmt.Sprintf("decode agent %s response: %v", endpoint.Type, err))
	}
	if err := payload.Validate(req.RequestID, endpoint.Type); err != nil {
		return fail(models.CodeAgentBadResponse, fmt.Sprintf("agent %s response invalid: %v", endpoint.Type, err))
	}
	return payload
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

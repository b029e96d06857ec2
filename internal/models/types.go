package models

import (
	"fmt"
	"time"
)

// MediaType enumerates supported media categories.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
)

// Valid reports whether the media type is one of the closed set.
func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeVideo, MediaTypeImage, MediaTypeAudio:
		return true
	}
	return false
}

// AgentType enumerates the analysis agents the orchestrator can dispatch to.
type AgentType string

const (
	AgentTypeVisual   AgentType = "visual"
	AgentTypeMetadata AgentType = "metadata"
	AgentTypeAudio    AgentType = "audio"
	AgentTypeLipsync  AgentType = "lipsync"
)

// Valid reports whether the agent type is one of the closed set.
func (a AgentType) Valid() bool {
	switch a {
	case AgentTypeVisual, AgentTypeMetadata, AgentTypeAudio, AgentTypeLipsync:
		return true
	}
	return false
}

// Status captures how far an agent got with its analysis.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Valid reports whether the status is one of the closed set.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// Severity grades an individual signal.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether the severity is one of the closed set. The empty
// severity is allowed: it is an optional field on signals.
func (s Severity) Valid() bool {
	switch s {
	case "", SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Verdict is the final categorical assessment of a piece of media.
type Verdict string

const (
	VerdictAuthentic  Verdict = "AUTHENTIC"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictHighRisk   Verdict = "HIGH_RISK"
)

// Agent-level error codes. These are recovered locally by the agent client and
// dispatcher; they never abort a batch.
const (
	CodeAgentUnreachable = "AGENT_UNREACHABLE"
	CodeAgentTimeout     = "AGENT_TIMEOUT"
	CodeAgentBadResponse = "AGENT_BAD_RESPONSE"
)

// AnalysisRequest is the unit of work fanned out to the agents. Immutable once
// dispatched. AgentType is empty for full-set dispatch and set when the request
// addresses a single agent.
type AnalysisRequest struct {
	RequestID string         `json:"request_id"`
	MediaPath string         `json:"media_path"`
	MediaType MediaType      `json:"media_type"`
	AgentType AgentType      `json:"agent_type,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// Signal is a single manipulation indicator reported by an agent. The
// aggregation core treats everything but Confidence and Severity as opaque.
type Signal struct {
	SignalType  string         `json:"signal_type"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// AgentError describes why an agent call produced no usable analysis.
type AgentError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AgentResponse is one agent's declared output for one request.
type AgentResponse struct {
	RequestID        string         `json:"request_id"`
	AgentType        AgentType      `json:"agent_type"`
	Status           Status         `json:"status"`
	RiskScore        float64        `json:"risk_score"`
	Signals          []Signal       `json:"signals"`
	ProcessingTimeMs int64          `json:"processing_time_ms,omitempty"`
	Error            *AgentError    `json:"error,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Failed reports whether the response carries no usable analysis.
func (r AgentResponse) Failed() bool {
	return r.Status == StatusFailed
}

// Validate checks an agent payload against the response contract: ids must
// match the originating request, enums must be in their closed sets, risk and
// signal confidences must stay in [0,1], and the error field must be present
// exactly when the status is failed.
func (r AgentResponse) Validate(requestID string, agentType AgentType) error {
	if r.RequestID != requestID {
		return fmt.Errorf("request_id %q does not match dispatched request %q", r.RequestID, requestID)
	}
	if r.AgentType != agentType {
		return fmt.Errorf("agent_type %q does not match dispatched agent %q", r.AgentType, agentType)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	if r.Status == StatusFailed {
		if r.Error == nil {
			return fmt.Errorf("failed response missing error")
		}
		if len(r.Signals) > 0 {
			return fmt.Errorf("failed response carries %d signals", len(r.Signals))
		}
		return nil
	}
	if r.Error != nil {
		return fmt.Errorf("%s response carries an error", r.Status)
	}
	if r.RiskScore < 0 || r.RiskScore > 1 {
		return fmt.Errorf("risk_score %f outside [0,1]", r.RiskScore)
	}
	for i, sig := range r.Signals {
		if sig.SignalType == "" {
			return fmt.Errorf("signal %d missing signal_type", i)
		}
		if sig.Confidence < 0 || sig.Confidence > 1 {
			return fmt.Errorf("signal %d confidence %f outside [0,1]", i, sig.Confidence)
		}
		if !sig.Severity.Valid() {
			return fmt.Errorf("signal %d has unknown severity %q", i, sig.Severity)
		}
	}
	return nil
}

// FailedResponse builds the well-formed failure an agent slot receives when the
// remote agent produced nothing usable.
func FailedResponse(requestID string, agentType AgentType, code, message string, elapsed time.Duration) AgentResponse {
	return AgentResponse{
		RequestID:        requestID,
		AgentType:        agentType,
		Status:           StatusFailed,
		RiskScore:        0,
		Signals:          []Signal{},
		ProcessingTimeMs: elapsed.Milliseconds(),
		Error: &AgentError{
			Code:    code,
			Message: message,
		},
	}
}

// OrchestratorResponse is the final aggregated answer returned to the caller.
type OrchestratorResponse struct {
	RequestID        string          `json:"request_id"`
	Verdict          Verdict         `json:"verdict"`
	RiskScore        float64         `json:"risk_score"`
	Confidence       float64         `json:"confidence"`
	Reasons          []string        `json:"reasons"`
	AgentBreakdown   []AgentResponse `json:"agent_breakdown"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Timestamp        time.Time       `json:"timestamp"`
}

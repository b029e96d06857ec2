package engine

import (
	"strings"
	"testing"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

func signalled(agent models.AgentType, risk float64, signals ...models.Signal) models.AgentResponse {
	resp := successResponse(agent, risk)
	resp.Signals = signals
	return resp
}

func TestExtractReasonsOrdering(t *testing.T) {
	weights := models.DefaultWeights()
	responses := []models.AgentResponse{
		signalled(models.AgentTypeVisual, 0.8,
			models.Signal{SignalType: "face_blur", Confidence: 0.9, Description: "Face region blur inconsistency", Severity: models.SeverityHigh},
			models.Signal{SignalType: "edge_artifacts", Confidence: 0.5, Description: "Splicing edges detected"},
		),
		signalled(models.AgentTypeMetadata, 0.6,
			models.Signal{SignalType: "exif_missing", Confidence: 0.7, Description: "EXIF data stripped"},
		),
	}

	reasons := ExtractReasons(responses, weights, 5, ConsensusResult{Confidence: 0.8})
	if len(reasons) != 3 {
		t.Fatalf("expected 3 reasons, got %v", reasons)
	}
	if !strings.HasPrefix(reasons[0], "visual: Face region blur inconsistency") {
		t.Fatalf("highest confidence signal must lead: %s", reasons[0])
	}
	if !strings.Contains(reasons[0], "(high severity)") {
		t.Fatalf("severity must be rendered: %s", reasons[0])
	}
	if !strings.HasPrefix(reasons[1], "metadata: EXIF data stripped") {
		t.Fatalf("expected metadata signal second: %s", reasons[1])
	}
}

func TestExtractReasonsTieBreakByWeight(t *testing.T) {
	weights := models.DefaultWeights() // metadata 0.55 outweighs visual 0.45
	responses := []models.AgentResponse{
		signalled(models.AgentTypeVisual, 0.5,
			models.Signal{SignalType: "edge_artifacts", Confidence: 0.7, Description: "Splicing edges detected"},
		),
		signalled(models.AgentTypeMetadata, 0.5,
			models.Signal{SignalType: "software_editing", Confidence: 0.7, Description: "Editing software fingerprint"},
		),
	}

	reasons := ExtractReasons(responses, weights, 5, ConsensusResult{Confidence: 0.9})
	if !strings.HasPrefix(reasons[0], "metadata:") {
		t.Fatalf("equal confidence must tie-break on agent weight: %v", reasons)
	}
}

func TestExtractReasonsDedup(t *testing.T) {
	responses := []models.AgentResponse{
		signalled(models.AgentTypeVisual, 0.8,
			models.Signal{SignalType: "face_blur", Confidence: 0.6, Description: "Blur on left cheek"},
			models.Signal{SignalType: "face_blur", Confidence: 0.9, Description: "Blur on jawline"},
		),
	}

	reasons := ExtractReasons(responses, models.DefaultWeights(), 5, ConsensusResult{Confidence: 0.8})
	if len(reasons) != 1 {
		t.Fatalf("duplicate (signal_type, agent) pairs must collapse: %v", reasons)
	}
	if !strings.Contains(reasons[0], "jawline") {
		t.Fatalf("dedup must keep the highest-confidence occurrence: %s", reasons[0])
	}
}

func TestExtractReasonsCap(t *testing.T) {
	signals := make([]models.Signal, 8)
	for i := range signals {
		signals[i] = models.Signal{
			SignalType:  "signal_" + string(rune('a'+i)),
			Confidence:  float64(i) / 10,
			Description: "indicator",
		}
	}
	responses := []models.AgentResponse{signalled(models.AgentTypeVisual, 0.5, signals...)}

	reasons := ExtractReasons(responses, models.DefaultWeights(), 3, ConsensusResult{Confidence: 0.5})
	if len(reasons) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(reasons))
	}
}

func TestExtractReasonsSkipsFailedAgents(t *testing.T) {
	failed := models.FailedResponse("req-1", models.AgentTypeMetadata, models.CodeAgentTimeout, "late", 0)
	responses := []models.AgentResponse{
		signalled(models.AgentTypeVisual, 0.4,
			models.Signal{SignalType: "color_artifacts", Confidence: 0.5, Description: "Color histogram anomaly"},
		),
		failed,
	}

	reasons := ExtractReasons(responses, models.DefaultWeights(), 5, ConsensusResult{Confidence: 0.45})
	for _, reason := range reasons {
		if strings.HasPrefix(reason, "metadata:") {
			t.Fatalf("failed agent leaked into reasons: %v", reasons)
		}
	}
}

func TestExtractReasonsFallbacks(t *testing.T) {
	none := []models.AgentResponse{successResponse(models.AgentTypeVisual, 0.1)}

	low := ExtractReasons(none, models.DefaultWeights(), 5, ConsensusResult{Confidence: 0.45})
	if len(low) != 1 || low[0] != reasonNoIndicators {
		t.Fatalf("expected no-indicators fallback, got %v", low)
	}

	indeterminate := ExtractReasons(nil, models.DefaultWeights(), 5, ConsensusResult{Indeterminate: true})
	if len(indeterminate) != 1 || indeterminate[0] != reasonInsufficientData {
		t.Fatalf("expected insufficient-data fallback, got %v", indeterminate)
	}
}

// mock-agent is a standalone analysis agent stub for local development. It
// answers POST /analyze with canned signals selected by the AGENT_TYPE
// environment variable (visual, metadata, audio, lipsync).
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"
)

type analysisRequest struct {
	RequestID string `json:"request_id"`
	MediaPath string `json:"media_path"`
	MediaType string `json:"media_type"`
}

type signal struct {
	SignalType  string  `json:"signal_type"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
	Severity    string  `json:"severity,omitempty"`
}

type agentResponse struct {
	RequestID        string   `json:"request_id"`
	AgentType        string   `json:"agent_type"`
	Status           string   `json:"status"`
	RiskScore        float64  `json:"risk_score"`
	Signals          []signal `json:"signals"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

func main() {
	agentType := os.Getenv("AGENT_TYPE")
	if agentType == "" {
		agentType = "visual"
	}
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8001"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req analysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		start := time.Now()
		risk, signals := cannedAnalysis(agentType)
		writeJSON(w, agentResponse{
			RequestID:        req.RequestID,
			AgentType:        agentType,
			Status:           "success",
			RiskScore:        risk,
			Signals:          signals,
			ProcessingTimeMs: time.Since(start).Milliseconds() + 40,
		})
	})

	logger := log.New(log.Writer(), agentType+"-agent ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	logger.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func cannedAnalysis(agentType string) (float64, []signal) {
	switch agentType {
	case "metadata":
		return 0.55, []signal{
			{SignalType: "exif_missing", Confidence: 0.7, Description: "EXIF data stripped", Severity: "medium"},
			{SignalType: "software_editing", Confidence: 0.6, Description: "Editing software fingerprint in metadata"},
		}
	case "audio":
		return 0.35, []signal{
			{SignalType: "spectral_discontinuity", Confidence: 0.5, Description: "Spectral discontinuity near 00:12"},
		}
	case "lipsync":
		return 0.2, []signal{
			{SignalType: "av_drift", Confidence: 0.3, Description: "Minor audio-visual drift"},
		}
	default:
		return 0.72, []signal{
			{SignalType: "face_blur", Confidence: 0.85, Description: "Face region blur inconsistency", Severity: "high"},
			{SignalType: "edge_artifacts", Confidence: 0.6, Description: "Splicing edges around jawline"},
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/truthnetstack/truthnet-orchestrator/internal/engine"
	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
	"github.com/truthnetstack/truthnet-orchestrator/internal/repo"
	"github.com/truthnetstack/truthnet-orchestrator/internal/utils"
)

type fakeCaller struct {
	fn func(ctx context.Context, endpoint repo.AgentEndpoint, req models.AnalysisRequest) models.AgentResponse
}

func (f *fakeCaller) Call(ctx context.Context, endpoint repo.AgentEndpoint, req models.AnalysisRequest) models.AgentResponse {
	return f.fn(ctx, endpoint, req)
}

type fakeResults struct {
	stored map[string]*models.OrchestratorResponse
	err    error
}

func newFakeResults() *fakeResults {
	return &fakeResults{stored: make(map[string]*models.OrchestratorResponse)}
}

func (f *fakeResults) Store(_ context.Context, response *models.OrchestratorResponse) error {
	if f.err != nil {
		return f.err
	}
	f.stored[response.RequestID] = response
	return nil
}

func (f *fakeResults) Fetch(_ context.Context, requestID string) (*models.OrchestratorResponse, error) {
	if response, ok := f.stored[requestID]; ok {
		return response, nil
	}
	return nil, repo.ErrResultNotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okCaller(risk float64) *fakeCaller {
	return &fakeCaller{fn: func(_ context.Context, endpoint repo.AgentEndpoint, req models.AnalysisRequest) models.AgentResponse {
		return models.AgentResponse{
			RequestID: req.RequestID,
			AgentType: endpoint.Type,
			Status:    models.StatusSuccess,
			RiskScore: risk,
		}
	}}
}

func newService(t *testing.T, caller engine.AgentCaller, results ResultStore) *AnalysisService {
	t.Helper()
	weights := models.AgentWeights{
		models.AgentTypeVisual:   0.45,
		models.AgentTypeMetadata: 0.55,
	}
	dispatcher := engine.NewDispatcher(caller, time.Second, testLogger())
	pipeline := engine.NewPipeline(dispatcher, weights, 5, testLogger())
	endpoints := []repo.AgentEndpoint{
		{Type: models.AgentTypeVisual, URL: "http://visual:8001"},
		{Type: models.AgentTypeMetadata, URL: "http://metadata:8002"},
	}
	return NewAnalysisService(testLogger(), pipeline, results, endpoints)
}

func mediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o600); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func TestAnalyzeStoresResult(t *testing.T) {
	results := newFakeResults()
	svc := newService(t, okCaller(0.4), results)

	resp, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		RequestID: "req-1",
		MediaPath: mediaFile(t),
		MediaType: models.MediaTypeImage,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.Verdict != models.VerdictSuspicious {
		t.Fatalf("expected SUSPICIOUS at 0.4, got %s", resp.Verdict)
	}
	if _, ok := results.stored["req-1"]; !ok {
		t.Fatalf("result not persisted")
	}

	fetched, err := svc.GetResult(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if fetched.RequestID != "req-1" {
		t.Fatalf("wrong result fetched: %+v", fetched)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	svc := newService(t, okCaller(0.4), newFakeResults())

	_, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		RequestID: "req-1",
		MediaPath: "/nonexistent/upload.jpg",
		MediaType: models.MediaTypeImage,
	})
	if utils.ErrorCode(err) != utils.CodeFileNotFound {
		t.Fatalf("expected FILE_NOT_FOUND, got %v", err)
	}
}

func TestAnalyzeUnsupportedMediaType(t *testing.T) {
	svc := newService(t, okCaller(0.4), newFakeResults())

	_, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		RequestID: "req-1",
		MediaPath: mediaFile(t),
		MediaType: "document",
	})
	if utils.ErrorCode(err) != utils.CodeUnsupportedMediaType {
		t.Fatalf("expected UNSUPPORTED_MEDIA_TYPE, got %v", err)
	}
}

func TestAnalyzeRequiresRequestID(t *testing.T) {
	svc := newService(t, okCaller(0.4), newFakeResults())

	_, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		MediaPath: mediaFile(t),
		MediaType: models.MediaTypeImage,
	})
	if utils.ErrorCode(err) != utils.CodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestAnalyzeSingleAgent(t *testing.T) {
	called := make(map[models.AgentType]int)
	caller := &fakeCaller{fn: func(_ context.Context, endpoint repo.AgentEndpoint, req models.AnalysisRequest) models.AgentResponse {
		called[endpoint.Type]++
		return models.AgentResponse{
			RequestID: req.RequestID,
			AgentType: endpoint.Type,
			Status:    models.StatusSuccess,
			RiskScore: 0.7,
		}
	}}
	svc := newService(t, caller, newFakeResults())

	resp, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		RequestID: "req-1",
		MediaPath: mediaFile(t),
		MediaType: models.MediaTypeImage,
		AgentType: models.AgentTypeVisual,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if called[models.AgentTypeVisual] != 1 || called[models.AgentTypeMetadata] != 0 {
		t.Fatalf("single-agent request dispatched wrongly: %v", called)
	}
	if len(resp.AgentBreakdown) != 1 {
		t.Fatalf("expected single-agent breakdown, got %d", len(resp.AgentBreakdown))
	}
}

func TestAnalyzeUnknownAgentRejected(t *testing.T) {
	svc := newService(t, okCaller(0.4), newFakeResults())

	_, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		RequestID: "req-1",
		MediaPath: mediaFile(t),
		MediaType: models.MediaTypeImage,
		AgentType: models.AgentTypeLipsync,
	})
	if utils.ErrorCode(err) != utils.CodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST for disabled agent, got %v", err)
	}
}

func TestAnalyzeSurvivesStoreFailure(t *testing.T) {
	results := newFakeResults()
	results.err = errors.New("valkey down")
	svc := newService(t, okCaller(0.2), results)

	resp, err := svc.Analyze(context.Background(), models.AnalysisRequest{
		RequestID: "req-1",
		MediaPath: mediaFile(t),
		MediaType: models.MediaTypeImage,
	})
	if err != nil {
		t.Fatalf("store failure must not fail the analysis: %v", err)
	}
	if resp.Verdict != models.VerdictAuthentic {
		t.Fatalf("unexpected verdict %s", resp.Verdict)
	}
}

func TestGetResultUnknownID(t *testing.T) {
	svc := newService(t, okCaller(0.4), newFakeResults())

	if _, err := svc.GetResult(context.Background(), "missing"); !errors.Is(err, repo.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

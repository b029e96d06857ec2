package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/truthnetstack/truthnet-orchestrator/internal/cache"
	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

// ErrResultNotFound signals that no stored result exists for a request ID.
var ErrResultNotFound = errors.New("result not found")

// ResultRepo persists orchestrator responses in the configured cache so
// clients can fetch them again by request ID.
type ResultRepo struct {
	cache cache.Provider
	ttl   time.Duration
}

// NewResultRepo wraps a cache provider with result serialization and the
// configured retention TTL.
func NewResultRepo(provider cache.Provider, ttl time.Duration) *ResultRepo {
	return &ResultRepo{cache: provider, ttl: ttl}
}

func resultKey(requestID string) string {
	return "result:" + requestID
}

// Store saves the aggregated response under its request ID.
func (r *ResultRepo) Store(ctx context.Context, response *models.OrchestratorResponse) error {
	if response == nil || response.RequestID == "" {
		return fmt.Errorf("response with request_id is required")
	}
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return r.cache.Set(ctx, resultKey(response.RequestID), data, r.ttl)
}

// Fetch loads a previously stored response. Returns ErrResultNotFound when the
// request ID is unknown or the result has expired.
func (r *ResultRepo) Fetch(ctx context.Context, requestID string) (*models.OrchestratorResponse, error) {
	data, err := r.cache.Get(ctx, resultKey(requestID))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	var response models.OrchestratorResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &response, nil
}

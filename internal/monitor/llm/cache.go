package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"process-monitor/internal/common/metrics"
	"process-monitor/internal/monitor/models"
)

const DefaultCacheSize = 64

// CachedDiagnostician запоминает результаты анализа для одинаковых данных.
type CachedDiagnostician struct {
	next  Diagnostician
	cache *lru.Cache[string, models.AIAnalysis]
}

func NewCachedDiagnostician(next Diagnostician, size int) (*CachedDiagnostician, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, models.AIAnalysis](size)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}
	return &CachedDiagnostician{next: next, cache: cache}, nil
}

// AnalysisKey - SHA-256 от JSON запроса.
func AnalysisKey(req AnalysisRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (c *CachedDiagnostician) Analyze(ctx context.Context, req AnalysisRequest) (*models.AIAnalysis, error) {
	key, err := AnalysisKey(req)
	if err != nil {
		return c.next.Analyze(ctx, req)
	}
	if a, ok := c.cache.Get(key); ok {
		metrics.AnalysisCache.WithLabelValues("hit").Inc()
		out := a.Clone()
		return &out, nil
	}
	metrics.AnalysisCache.WithLabelValues("miss").Inc()

	a, err := c.next.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, a.Clone())
	return a, nil
}

func (c *CachedDiagnostician) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return c.next.Chat(ctx, req)
}

func (c *CachedDiagnostician) SuggestChangeRequest(ctx context.Context, req SuggestionRequest) (*models.ChangeRequestDraft, error) {
	return c.next.SuggestChangeRequest(ctx, req)
}

// Len возвращает число закэшированных анализов.
func (c *CachedDiagnostician) Len() int {
	return c.cache.Len()
}

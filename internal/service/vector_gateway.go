// FILE: internal/service/vector_gateway.go
package service

import (
	"context"
	"sync"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/contract"
)

const vectorModule = "VectorIndex"

// IVectorGateway stores one embedding per completed topic. Every method is a
// logged no-op when the backend is not configured or unreachable.
type IVectorGateway interface {
	Enabled() bool
	UpsertTopicSummary(ctx context.Context, sessionId, topicName, summary string, embedding []float32)
	Search(ctx context.Context, query []float32, limit int) []*entity.TopicVector
	DeleteSessionVectors(ctx context.Context, sessionId string)
	CleanupExpiredVectors(ctx context.Context, sessionIds []string)
	PurgeZombies(ctx context.Context, activeIds []string) int64
}

type vectorGateway struct {
	repo      contract.TopicVectorRepository
	dimension int
	logger    logger.ILogger

	mu    sync.Mutex
	ready bool
}

// NewVectorGateway accepts a nil repo, which disables vector features.
func NewVectorGateway(repo contract.TopicVectorRepository, dimension int, log logger.ILogger) IVectorGateway {
	return &vectorGateway{
		repo:      repo,
		dimension: dimension,
		logger:    log,
	}
}

func (g *vectorGateway) Enabled() bool {
	return g.repo != nil
}

// ensure creates the collection on first use; a failed attempt is retried on
// the next call.
func (g *vectorGateway) ensure(ctx context.Context) bool {
	if g.repo == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready {
		return true
	}
	if err := g.repo.EnsureCollection(ctx, g.dimension); err != nil {
		g.logger.Error(vectorModule, "Failed to ensure vector collection", map[string]interface{}{
			"dimension": g.dimension,
			"error":     err,
		})
		return false
	}
	g.ready = true
	return true
}

func (g *vectorGateway) UpsertTopicSummary(ctx context.Context, sessionId, topicName, summary string, embedding []float32) {
	if !g.ensure(ctx) {
		return
	}
	vector := &entity.TopicVector{
		Id:        entity.TopicVectorId(sessionId, topicName),
		SessionId: sessionId,
		Topic:     topicName,
		Summary:   summary,
		Embedding: embedding,
	}
	if err := g.repo.Upsert(ctx, vector); err != nil {
		g.logger.Error(vectorModule, "Failed to upsert topic summary", map[string]interface{}{
			"session_id": sessionId,
			"topic":      topicName,
			"error":      err,
		})
		return
	}
	g.logger.Info(vectorModule, "Topic summary indexed", map[string]interface{}{
		"session_id": sessionId,
		"topic":      topicName,
	})
}

func (g *vectorGateway) Search(ctx context.Context, query []float32, limit int) []*entity.TopicVector {
	if !g.ensure(ctx) {
		return []*entity.TopicVector{}
	}
	hits, err := g.repo.Search(ctx, query, limit)
	if err != nil {
		g.logger.Error(vectorModule, "Vector search failed", map[string]interface{}{"error": err})
		return []*entity.TopicVector{}
	}
	return hits
}

func (g *vectorGateway) DeleteSessionVectors(ctx context.Context, sessionId string) {
	g.CleanupExpiredVectors(ctx, []string{sessionId})
}

func (g *vectorGateway) CleanupExpiredVectors(ctx context.Context, sessionIds []string) {
	if len(sessionIds) == 0 || !g.ensure(ctx) {
		return
	}
	if err := g.repo.Delete(ctx, contract.TopicVectorFilter{SessionIds: sessionIds}); err != nil {
		g.logger.Error(vectorModule, "Failed to delete session vectors", map[string]interface{}{
			"sessions": len(sessionIds),
			"error":    err,
		})
	}
}

// PurgeZombies deletes every vector whose session is not in activeIds and
// returns how many were removed.
func (g *vectorGateway) PurgeZombies(ctx context.Context, activeIds []string) int64 {
	if !g.ensure(ctx) {
		return 0
	}
	filter := contract.TopicVectorFilter{SessionIds: activeIds, Exclude: true}

	count, err := g.repo.Count(ctx, filter)
	if err != nil {
		g.logger.Error(vectorModule, "Failed to count zombie vectors", map[string]interface{}{"error": err})
		return 0
	}
	if count == 0 {
		return 0
	}
	if err := g.repo.Delete(ctx, filter); err != nil {
		g.logger.Error(vectorModule, "Failed to purge zombie vectors", map[string]interface{}{"error": err})
		return 0
	}
	g.logger.Info(vectorModule, "Zombie vectors purged", map[string]interface{}{"count": count})
	return count
}

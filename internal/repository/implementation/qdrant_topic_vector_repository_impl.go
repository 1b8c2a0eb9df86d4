package implementation

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/pkg/vectorstore/qdrant"

	"github.com/google/uuid"
)

const qdrantSessionKey = "session_id"

type QdrantTopicVectorRepositoryImpl struct {
	client *qdrant.Client
}

func NewQdrantTopicVectorRepository(client *qdrant.Client) contract.TopicVectorRepository {
	return &QdrantTopicVectorRepositoryImpl{client: client}
}

func (r *QdrantTopicVectorRepositoryImpl) EnsureCollection(ctx context.Context, dimension int) error {
	return r.client.EnsureCollection(ctx, dimension, qdrantSessionKey)
}

func (r *QdrantTopicVectorRepositoryImpl) Upsert(ctx context.Context, vector *entity.TopicVector) error {
	return r.client.Upsert(ctx, []qdrant.Point{{
		Id:     vector.Id.String(),
		Vector: vector.Embedding,
		Payload: map[string]any{
			qdrantSessionKey: vector.SessionId,
			"topic":          vector.Topic,
			"summary":        vector.Summary,
		},
	}})
}

func (r *QdrantTopicVectorRepositoryImpl) Search(ctx context.Context, query []float32, limit int) ([]*entity.TopicVector, error) {
	if limit <= 0 {
		limit = 2
	}
	points, err := r.client.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]*entity.TopicVector, 0, len(points))
	for _, p := range points {
		hit := &entity.TopicVector{Score: p.Score}
		if id, ok := p.Id.(string); ok {
			hit.Id, _ = uuid.Parse(id)
		}
		if v, ok := p.Payload[qdrantSessionKey].(string); ok {
			hit.SessionId = v
		}
		if v, ok := p.Payload["topic"].(string); ok {
			hit.Topic = v
		}
		if v, ok := p.Payload["summary"].(string); ok {
			hit.Summary = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func toQdrantFilter(filter contract.TopicVectorFilter) (*qdrant.Filter, bool) {
	cond := []qdrant.Condition{{Key: qdrantSessionKey, Match: qdrant.Match{Any: filter.SessionIds}}}
	switch {
	case filter.Exclude && len(filter.SessionIds) == 0:
		return &qdrant.Filter{}, true
	case filter.Exclude:
		return &qdrant.Filter{MustNot: cond}, true
	case len(filter.SessionIds) == 0:
		return nil, false
	default:
		return &qdrant.Filter{Must: cond}, true
	}
}

func (r *QdrantTopicVectorRepositoryImpl) Count(ctx context.Context, filter contract.TopicVectorFilter) (int64, error) {
	f, ok := toQdrantFilter(filter)
	if !ok {
		return 0, nil
	}
	return r.client.Count(ctx, f)
}

func (r *QdrantTopicVectorRepositoryImpl) Delete(ctx context.Context, filter contract.TopicVectorFilter) error {
	f, ok := toQdrantFilter(filter)
	if !ok {
		return nil
	}
	return r.client.Delete(ctx, f)
}

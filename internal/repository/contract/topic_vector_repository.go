package contract

import (
	"context"

	"kt-assistant-be/internal/entity"
)

// TopicVectorFilter selects vectors by session id. With Exclude set it
// matches every vector whose session is NOT listed; an empty exclusion list
// therefore matches everything.
type TopicVectorFilter struct {
	SessionIds []string
	Exclude    bool
}

// TopicVectorRepository is implemented by every vector backend (pgvector,
// Qdrant, in-memory). Callers never check for optional capabilities.
type TopicVectorRepository interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, vector *entity.TopicVector) error
	Search(ctx context.Context, query []float32, limit int) ([]*entity.TopicVector, error)
	Count(ctx context.Context, filter TopicVectorFilter) (int64, error)
	Delete(ctx context.Context, filter TopicVectorFilter) error
}

package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/contract"

	"github.com/google/uuid"
)

// TopicVectorRepository is an in-process vector backend for development and
// tests. Search is a brute-force cosine scan.
type TopicVectorRepository struct {
	mu      sync.RWMutex
	vectors map[uuid.UUID]*entity.TopicVector
}

func NewTopicVectorRepository() *TopicVectorRepository {
	return &TopicVectorRepository{vectors: make(map[uuid.UUID]*entity.TopicVector)}
}

var _ contract.TopicVectorRepository = (*TopicVectorRepository)(nil)

func (r *TopicVectorRepository) EnsureCollection(ctx context.Context, dimension int) error {
	return nil
}

func (r *TopicVectorRepository) Upsert(ctx context.Context, vector *entity.TopicVector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := *vector
	v.Embedding = append([]float32(nil), vector.Embedding...)
	r.vectors[v.Id] = &v
	return nil
}

func (r *TopicVectorRepository) Search(ctx context.Context, query []float32, limit int) ([]*entity.TopicVector, error) {
	if limit <= 0 {
		limit = 2
	}
	r.mu.RLock()
	hits := make([]*entity.TopicVector, 0, len(r.vectors))
	for _, v := range r.vectors {
		hit := *v
		hit.Score = cosine(query, v.Embedding)
		hits = append(hits, &hit)
	}
	r.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Id.String() < hits[j].Id.String()
		}
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matches(filter contract.TopicVectorFilter, sessionId string) bool {
	listed := false
	for _, id := range filter.SessionIds {
		if id == sessionId {
			listed = true
			break
		}
	}
	if filter.Exclude {
		return !listed
	}
	return listed
}

func (r *TopicVectorRepository) Count(ctx context.Context, filter contract.TopicVectorFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, v := range r.vectors {
		if matches(filter, v.SessionId) {
			n++
		}
	}
	return n, nil
}

func (r *TopicVectorRepository) Delete(ctx context.Context, filter contract.TopicVectorFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.vectors {
		if matches(filter, v.SessionId) {
			delete(r.vectors, id)
		}
	}
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

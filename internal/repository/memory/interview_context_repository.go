package memory

import (
	"time"

	"kt-assistant-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// InterviewContextRepository keeps live interview contexts in process so
// consecutive turns skip the database round trip.
type InterviewContextRepository struct {
	cache *cache.Cache
}

func NewInterviewContextRepository(ttl time.Duration) *InterviewContextRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &InterviewContextRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *InterviewContextRepository) Save(ic *entity.InterviewContext) {
	r.cache.Set(ic.Session.Id, ic, cache.DefaultExpiration)
}

func (r *InterviewContextRepository) Get(sessionId string) (*entity.InterviewContext, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*entity.InterviewContext), true
	}
	return nil, false
}

func (r *InterviewContextRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}

// Invalidate drops the cached context and marks it deleted so turns already
// holding it fail instead of writing the session back.
func (r *InterviewContextRepository) Invalidate(sessionId string) {
	if ic, ok := r.Get(sessionId); ok {
		ic.MarkDeleted()
	}
	r.cache.Delete(sessionId)
}

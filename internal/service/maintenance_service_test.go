package service

import (
	"context"
	"testing"
	"time"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/cache"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVector(t *testing.T, repo *memory.TopicVectorRepository, sessionId, topic string) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &entity.TopicVector{
		Id:        entity.TopicVectorId(sessionId, topic),
		SessionId: sessionId,
		Topic:     topic,
		Summary:   "{}",
		Embedding: []float32{1, 0, 0},
	}))
}

func TestVectorGateway_PurgeZombies(t *testing.T) {
	repo := memory.NewTopicVectorRepository()
	seedVector(t, repo, "a", "Overview")
	seedVector(t, repo, "b", "Overview")
	gateway := NewVectorGateway(repo, 3, logger.NewNopLogger())

	purged := gateway.PurgeZombies(context.Background(), []string{"a"})

	assert.Equal(t, int64(1), purged)
	remaining, err := repo.Count(context.Background(), contract.TopicVectorFilter{Exclude: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
}

func TestVectorGateway_Disabled(t *testing.T) {
	gateway := NewVectorGateway(nil, 3, logger.NewNopLogger())
	ctx := context.Background()

	assert.False(t, gateway.Enabled())
	gateway.UpsertTopicSummary(ctx, "a", "Overview", "{}", []float32{1, 0, 0})
	assert.Empty(t, gateway.Search(ctx, []float32{1, 0, 0}, 2))
	assert.Equal(t, int64(0), gateway.PurgeZombies(ctx, nil))
}

func TestMaintenanceService_Run(t *testing.T) {
	db := newFakeDB()
	store := NewSessionStore(&fakeUowFactory{db: db}, logger.NewNopLogger())
	repo := memory.NewTopicVectorRepository()
	vectors := NewVectorGateway(repo, 3, logger.NewNopLogger())
	contexts := memory.NewInterviewContextRepository(time.Hour)
	publisher := &recordingPublisher{}

	now := time.Now().UTC()
	db.put(entity.NewSession("stale", nil, now.Add(-7*time.Hour)))
	db.put(entity.NewSession("fresh", nil, now.Add(-1*time.Hour)))
	staleContext := entity.NewInterviewContext(entity.NewSession("stale", nil, now), nil)
	contexts.Save(staleContext)
	summaries := cache.NewMemorySummaryCache(time.Hour)
	require.NoError(t, summaries.Set(context.Background(), "stale", "# stale"))
	require.NoError(t, summaries.Set(context.Background(), "fresh", "# fresh"))

	seedVector(t, repo, "stale", "Overview")
	seedVector(t, repo, "fresh", "Overview")
	seedVector(t, repo, "zombie", "Overview")

	svc := NewMaintenanceService(store, vectors, contexts, summaries, publisher, 6*time.Hour, logger.NewNopLogger())
	res := svc.Run(context.Background())

	assert.Equal(t, []string{"stale"}, res.ExpiredSessions)
	assert.Equal(t, int64(1), res.ZombieVectors)

	_, cached := contexts.Get("stale")
	assert.False(t, cached)
	assert.True(t, staleContext.Deleted())

	_, found, err := summaries.Get(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = summaries.Get(context.Background(), "fresh")
	require.NoError(t, err)
	assert.True(t, found)

	remaining, err := repo.Count(context.Background(), contract.TopicVectorFilter{SessionIds: []string{"fresh"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)
	total, err := repo.Count(context.Background(), contract.TopicVectorFilter{Exclude: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	assert.Equal(t, []string{events.MaintenanceCompleted}, publisher.types())
}

func TestMaintenanceService_ListSessions(t *testing.T) {
	db := newFakeDB()
	store := NewSessionStore(&fakeUowFactory{db: db}, logger.NewNopLogger())
	svc := NewMaintenanceService(store, NewVectorGateway(nil, 3, logger.NewNopLogger()), nil, nil, nil, 6*time.Hour, logger.NewNopLogger())

	now := time.Now().UTC()
	for i, id := range []string{"oldest", "middle", "newest"} {
		s := entity.NewSession(id, []*entity.Topic{{Id: "t1", IsComplete: i == 2}, {Id: "t2"}}, now.Add(time.Duration(i)*time.Minute))
		db.put(s)
	}

	tests := []struct {
		name string
		req  dto.SessionListRequest
		want []string
	}{
		{name: "defaults", req: dto.SessionListRequest{}, want: []string{"newest", "middle", "oldest"}},
		{name: "first page", req: dto.SessionListRequest{Page: 1, Limit: 2}, want: []string{"newest", "middle"}},
		{name: "second page", req: dto.SessionListRequest{Page: 2, Limit: 2}, want: []string{"oldest"}},
		{name: "past the end", req: dto.SessionListRequest{Page: 3, Limit: 2}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := svc.ListSessions(context.Background(), &tt.req)
			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.Id)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	items := svc.ListSessions(context.Background(), &dto.SessionListRequest{Limit: 1})
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].CompletedTopics)
	assert.Equal(t, 2, items[0].TotalTopics)
}

package service

import (
	"context"
	"testing"
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedTopic() *entity.Topic {
	definition := "Nightly ETL"
	return &entity.Topic{
		Id:              "t1",
		Name:            "System Overview",
		ConfidenceScore: 90,
		IsComplete:      true,
		Knowledge:       entity.TopicKnowledge{Definition: &definition},
	}
}

func countVectors(t *testing.T, repo *memory.TopicVectorRepository, sessionId string) int64 {
	t.Helper()
	n, err := repo.Count(context.Background(), contract.TopicVectorFilter{SessionIds: []string{sessionId}})
	require.NoError(t, err)
	return n
}

func TestTopicIndexer_IndexTopic(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
		want   int64
	}{
		{name: "stores embedding", vector: []float32{1, 0, 0}, want: 1},
		{name: "skips degraded embedding", vector: []float32{0, 0, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewNopLogger()
			repo := memory.NewTopicVectorRepository()
			indexer := NewTopicIndexer(&fixedEmbedder{vector: tt.vector}, NewVectorGateway(repo, 3, log), log)

			indexer.IndexTopic(context.Background(), "s1", completedTopic())
			indexer.IndexTopic(context.Background(), "s1", completedTopic())

			assert.Equal(t, tt.want, countVectors(t, repo, "s1"))
		})
	}
}

func TestAsyncTopicIndexer_ConsumedByIndexConsumer(t *testing.T) {
	log := logger.NewNopLogger()
	repo := memory.NewTopicVectorRepository()
	syncIndexer := NewTopicIndexer(&fixedEmbedder{vector: []float32{0, 1, 0}}, NewVectorGateway(repo, 3, log), log)

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, NewConsumerService(pubSub, "index_topic", syncIndexer, log).Consume(ctx))

	async := NewAsyncTopicIndexer(NewPublisherService("index_topic", pubSub), log)
	async.IndexTopic(ctx, "s1", completedTopic())

	require.Eventually(t, func() bool { return countVectors(t, repo, "s1") == 1 }, time.Second, 10*time.Millisecond)

	hits, err := repo.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "System Overview", hits[0].Topic)
	assert.Contains(t, hits[0].Summary, "Nightly ETL")
}

// FILE: internal/service/topic_indexer.go
package service

import (
	"context"
	"encoding/json"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/pkg/completion"
	"kt-assistant-be/pkg/interview"
	"kt-assistant-be/pkg/interview/prompt"
)

const indexerModule = "TopicIndexer"

// Embedder is the embedding half of completion.Client.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) []float32
	GetQueryEmbedding(ctx context.Context, text string) []float32
}

// TopicIndexer embeds a completed topic's summary and stores it.
type TopicIndexer struct {
	embedder Embedder
	vectors  IVectorGateway
	logger   logger.ILogger
}

var _ interview.TopicIndexer = (*TopicIndexer)(nil)

func NewTopicIndexer(embedder Embedder, vectors IVectorGateway, log logger.ILogger) *TopicIndexer {
	return &TopicIndexer{embedder: embedder, vectors: vectors, logger: log}
}

func indexJob(sessionId string, topic *entity.Topic) dto.IndexTopicMessage {
	return dto.IndexTopicMessage{
		SessionId: sessionId,
		TopicName: topic.Name,
		Summary:   prompt.SummaryText(&topic.Knowledge),
	}
}

func (t *TopicIndexer) IndexTopic(ctx context.Context, sessionId string, topic *entity.Topic) {
	t.Index(ctx, indexJob(sessionId, topic))
}

func (t *TopicIndexer) Index(ctx context.Context, job dto.IndexTopicMessage) {
	if !t.vectors.Enabled() {
		return
	}
	vector := t.embedder.GetEmbedding(ctx, prompt.IndexText(job.TopicName, job.Summary))
	if completion.IsZeroVector(vector) {
		t.logger.Warn(indexerModule, "Skipping index of topic with degraded embedding", map[string]interface{}{
			"session_id": job.SessionId,
			"topic":      job.TopicName,
		})
		return
	}
	t.vectors.UpsertTopicSummary(ctx, job.SessionId, job.TopicName, job.Summary, vector)
}

// AsyncTopicIndexer hands indexing jobs to the watermill bus; the consumer
// service runs them through TopicIndexer.
type AsyncTopicIndexer struct {
	publisher IPublisherService
	logger    logger.ILogger
}

var _ interview.TopicIndexer = (*AsyncTopicIndexer)(nil)

func NewAsyncTopicIndexer(publisher IPublisherService, log logger.ILogger) *AsyncTopicIndexer {
	return &AsyncTopicIndexer{publisher: publisher, logger: log}
}

func (a *AsyncTopicIndexer) IndexTopic(ctx context.Context, sessionId string, topic *entity.Topic) {
	payload, err := json.Marshal(indexJob(sessionId, topic))
	if err != nil {
		a.logger.Error(indexerModule, "Failed to encode index job", map[string]interface{}{"error": err})
		return
	}
	if err := a.publisher.Publish(ctx, payload); err != nil {
		a.logger.Error(indexerModule, "Failed to publish index job", map[string]interface{}{
			"session_id": sessionId,
			"topic":      topic.Name,
			"error":      err,
		})
	}
}

// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "IndexConsumer"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	indexer    *TopicIndexer
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	indexer *TopicIndexer,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		indexer:    indexer,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.IndexTopicMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal index job", map[string]interface{}{"error": err})
		msg.Ack() // a malformed payload never becomes valid
		return
	}

	cs.logger.Debug(consumerModule, "Indexing topic", map[string]interface{}{
		"session_id": job.SessionId,
		"topic":      job.TopicName,
	})
	cs.indexer.Index(ctx, job)
	msg.Ack()
}

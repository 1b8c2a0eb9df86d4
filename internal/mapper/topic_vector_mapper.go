package mapper

import (
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type TopicVectorMapper struct{}

func NewTopicVectorMapper() *TopicVectorMapper {
	return &TopicVectorMapper{}
}

func (m *TopicVectorMapper) ToModel(v *entity.TopicVector) *model.TopicVector {
	if v == nil {
		return nil
	}
	return &model.TopicVector{
		Id:        v.Id,
		SessionId: v.SessionId,
		Topic:     v.Topic,
		Summary:   v.Summary,
		Embedding: pgvector.NewVector(v.Embedding),
	}
}

func (m *TopicVectorMapper) ToEntity(v *model.TopicVector) *entity.TopicVector {
	if v == nil {
		return nil
	}
	return &entity.TopicVector{
		Id:        v.Id,
		SessionId: v.SessionId,
		Topic:     v.Topic,
		Summary:   v.Summary,
		Embedding: v.Embedding.Slice(),
	}
}

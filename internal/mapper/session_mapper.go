package mapper

import (
	"encoding/json"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/model"

	"gorm.io/datatypes"
)

// topicRecord is the JSON shape of one topic inside kt_sessions.topics.
type topicRecord struct {
	Id              string                `json:"id"`
	Name            string                `json:"name"`
	Description     string                `json:"description,omitempty"`
	ConfidenceScore int                   `json:"confidence_score"`
	IsComplete      bool                  `json:"is_complete"`
	Knowledge       entity.TopicKnowledge `json:"knowledge"`
	MissingSections []string              `json:"missing_sections"`
}

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToModel(s *entity.Session) (*model.Session, error) {
	if s == nil {
		return nil, nil
	}

	records := make([]topicRecord, len(s.Topics))
	for i, t := range s.Topics {
		missing := t.MissingSections
		if missing == nil {
			missing = []string{}
		}
		records[i] = topicRecord{
			Id:              t.Id,
			Name:            t.Name,
			Description:     t.Description,
			ConfidenceScore: t.ConfidenceScore,
			IsComplete:      t.IsComplete,
			Knowledge:       t.Knowledge,
			MissingSections: missing,
		}
	}
	topics, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}

	return &model.Session{
		Id:                s.Id,
		OverallConfidence: s.OverallConfidence,
		Status:            s.Status,
		Topics:            datatypes.JSON(topics),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}, nil
}

func (m *SessionMapper) ToEntity(s *model.Session) (*entity.Session, error) {
	if s == nil {
		return nil, nil
	}

	var records []topicRecord
	if len(s.Topics) > 0 {
		if err := json.Unmarshal(s.Topics, &records); err != nil {
			return nil, err
		}
	}

	topics := make([]*entity.Topic, len(records))
	for i, r := range records {
		topics[i] = &entity.Topic{
			Id:              r.Id,
			Name:            r.Name,
			Description:     r.Description,
			ConfidenceScore: r.ConfidenceScore,
			IsComplete:      r.IsComplete,
			Knowledge:       r.Knowledge,
			MissingSections: r.MissingSections,
		}
	}

	return &entity.Session{
		Id:                s.Id,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		Topics:            topics,
		OverallConfidence: s.OverallConfidence,
		Status:            s.Status,
	}, nil
}

func (m *SessionMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var metadata datatypes.JSON
	if len(msg.Metadata) > 0 {
		if b, err := json.Marshal(msg.Metadata); err == nil {
			metadata = datatypes.JSON(b)
		}
	}

	return &model.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Metadata:  metadata,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *SessionMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}

	return &entity.Message{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		Metadata:  metadata,
	}
}

func (m *SessionMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

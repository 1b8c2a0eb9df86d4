package model

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// TopicVector has no fixed vector width in its tag; the table is created with
// the configured embedding dimension by the pgvector repository.
type TopicVector struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SessionId string          `gorm:"type:varchar(64);not null;index"`
	Topic     string          `gorm:"type:text;not null"`
	Summary   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector"`
}

package entity

import (
	"github.com/google/uuid"
)

// TopicVector is the indexed summary of one completed topic.
type TopicVector struct {
	Id        uuid.UUID
	SessionId string
	Topic     string
	Summary   string
	Embedding []float32
	Score     float64
}

// TopicVectorId derives a stable point id so re-indexing the same topic
// overwrites the previous record.
func TopicVectorId(sessionId, topicName string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(sessionId+"_"+topicName))
}

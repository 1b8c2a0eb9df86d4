package dto

import (
	"time"

	"github.com/google/uuid"
)

type TopicProgressDTO struct {
	Id              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	ConfidenceScore int               `json:"confidence_score"`
	IsComplete      bool              `json:"is_complete"`
	MissingSections []string          `json:"missing_sections"`
	Knowledge       map[string]string `json:"knowledge"`
}

type MessageDTO struct {
	Id        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	CreatedAt time.Time              `json:"created_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SessionResponse struct {
	Id                 string             `json:"id"`
	Status             string             `json:"status"`
	OverallConfidence  int                `json:"overall_confidence"`
	ActiveTopicId      string             `json:"active_topic_id,omitempty"`
	KnowledgeBaseReady bool               `json:"knowledge_base_ready"`
	CanGenerateSummary bool               `json:"can_generate_summary"`
	Topics             []TopicProgressDTO `json:"topics"`
	Messages           []MessageDTO       `json:"messages,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

type TurnResponse struct {
	Reply           *MessageDTO      `json:"reply,omitempty"`
	CompletedTopics []string         `json:"completed_topics"`
	Processed       bool             `json:"processed"`
	Session         *SessionResponse `json:"session"`
}

type SearchRequest struct {
	Query string `query:"q" validate:"required,max=2000"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
}

type SearchHitDTO struct {
	Topic   string  `json:"topic"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"`
}

type SearchResponse struct {
	Query  string         `json:"query"`
	Answer string         `json:"answer"`
	Hits   []SearchHitDTO `json:"hits"`
}

type SummaryResponse struct {
	SessionId string `json:"session_id"`
	Summary   string `json:"summary"`
}

type MaintenanceResponse struct {
	ExpiredSessions []string `json:"expired_sessions"`
	ZombieVectors   int64    `json:"zombie_vectors"`
}

type SessionListItemDTO struct {
	Id                string    `json:"id"`
	Status            string    `json:"status"`
	OverallConfidence int       `json:"overall_confidence"`
	CompletedTopics   int       `json:"completed_topics"`
	TotalTopics       int       `json:"total_topics"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type SessionListRequest struct {
	Page  int `query:"page" validate:"omitempty,min=1"`
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// IndexTopicMessage is the async indexing job published on the watermill bus.
type IndexTopicMessage struct {
	SessionId string `json:"session_id"`
	TopicName string `json:"topic_name"`
	Summary   string `json:"summary"`
}

// WsTurnMessage is one frame on the interview websocket.
type WsTurnMessage struct {
	Type    string        `json:"type"`
	Content string        `json:"content,omitempty"`
	Turn    *TurnResponse `json:"turn,omitempty"`
	Error   string        `json:"error,omitempty"`
}

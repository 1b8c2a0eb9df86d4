package events

import "time"

const (
	SessionStarted       = "INTERVIEW_SESSION_STARTED"
	TopicCompleted       = "INTERVIEW_TOPIC_COMPLETED"
	SummaryGenerated     = "INTERVIEW_SUMMARY_GENERATED"
	SessionDeleted       = "INTERVIEW_SESSION_DELETED"
	MaintenanceCompleted = "INTERVIEW_MAINTENANCE_COMPLETED"
)

func NewSessionStarted(sessionId string, topicCount int, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       SessionStarted,
		Data:       map[string]interface{}{"session_id": sessionId, "topics": topicCount},
		OccurredAt: at,
	}
}

func NewTopicCompleted(sessionId, topicId, topicName string, score int, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TopicCompleted,
		Data: map[string]interface{}{
			"session_id":       sessionId,
			"topic_id":         topicId,
			"topic_name":       topicName,
			"confidence_score": score,
		},
		OccurredAt: at,
	}
}

func NewSummaryGenerated(sessionId string, length int, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       SummaryGenerated,
		Data:       map[string]interface{}{"session_id": sessionId, "length": length},
		OccurredAt: at,
	}
}

func NewSessionDeleted(sessionId string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       SessionDeleted,
		Data:       map[string]interface{}{"session_id": sessionId},
		OccurredAt: at,
	}
}

func NewMaintenanceCompleted(expired int, zombies int64, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       MaintenanceCompleted,
		Data:       map[string]interface{}{"expired_sessions": expired, "zombie_vectors": zombies},
		OccurredAt: at,
	}
}

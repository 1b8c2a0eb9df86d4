package entity

import (
	"time"
)

const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
)

// Session is one knowledge-transfer interview. Topics are owned by the session
// and persisted with it; messages live in their own table.
type Session struct {
	Id                string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Topics            []*Topic
	OverallConfidence int
	Status            string
}

func NewSession(id string, topics []*Topic, now time.Time) *Session {
	return &Session{
		Id:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Topics:    topics,
		Status:    SessionStatusInProgress,
	}
}

// RecomputeConfidence sets OverallConfidence to the floor of the mean topic score.
func (s *Session) RecomputeConfidence() int {
	if len(s.Topics) == 0 {
		s.OverallConfidence = 0
		return 0
	}
	total := 0
	for _, t := range s.Topics {
		total += t.ConfidenceScore
	}
	s.OverallConfidence = total / len(s.Topics)
	return s.OverallConfidence
}

func (s *Session) TopicById(id string) *Topic {
	for _, t := range s.Topics {
		if t.Id == id {
			return t
		}
	}
	return nil
}

func (s *Session) AllTopicsComplete() bool {
	if len(s.Topics) == 0 {
		return false
	}
	for _, t := range s.Topics {
		if !t.IsComplete {
			return false
		}
	}
	return true
}

func (s *Session) AnyTopicComplete() bool {
	for _, t := range s.Topics {
		if t.IsComplete {
			return true
		}
	}
	return false
}

// ActiveTopicIndex returns the first topic still below threshold, or 0 when
// every topic has reached it.
func (s *Session) ActiveTopicIndex(threshold int) int {
	for i, t := range s.Topics {
		if t.ConfidenceScore < threshold {
			return i
		}
	}
	return 0
}

// Clone returns a deep copy so callers can snapshot state before an update.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Topics = make([]*Topic, len(s.Topics))
	for i, t := range s.Topics {
		c.Topics[i] = t.Clone()
	}
	return &c
}

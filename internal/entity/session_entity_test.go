package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(scores ...int) *Session {
	topics := make([]*Topic, len(scores))
	for i, s := range scores {
		topics[i] = &Topic{Id: string(rune('a' + i)), Name: "topic", ConfidenceScore: s}
	}
	return NewSession("s1", topics, time.Now())
}

func TestSession_RecomputeConfidence(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
	}{
		{name: "no topics", scores: nil, want: 0},
		{name: "single topic", scores: []int{73}, want: 73},
		{name: "exact mean", scores: []int{80, 60, 40}, want: 60},
		{name: "floored mean", scores: []int{85, 90, 0}, want: 58},
		{name: "floored up to one below", scores: []int{100, 99}, want: 99},
		{name: "all zero", scores: []int{0, 0, 0}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(tt.scores...)
			assert.Equal(t, tt.want, s.RecomputeConfidence())
			assert.Equal(t, tt.want, s.OverallConfidence)
		})
	}
}

func TestSession_RecomputeConfidenceMatchesFloorMean(t *testing.T) {
	for a := 0; a <= 100; a += 7 {
		for b := 0; b <= 100; b += 11 {
			for c := 0; c <= 100; c += 13 {
				s := newTestSession(a, b, c)
				want := (a + b + c) / 3
				require.Equal(t, want, s.RecomputeConfidence(), "scores %d %d %d", a, b, c)
			}
		}
	}
}

func TestTopic_ApplyScoreIsMonotonic(t *testing.T) {
	topic := &Topic{Id: "t1", Name: "System Overview"}

	edges := []bool{}
	for _, score := range []int{70, 85, 60, 95, 10} {
		edges = append(edges, topic.ApplyScore(score, 80))
	}

	assert.Equal(t, []bool{false, true, false, false, false}, edges)
	assert.True(t, topic.IsComplete)
	assert.Equal(t, 10, topic.ConfidenceScore)
}

func TestTopic_ApplyScoreClamps(t *testing.T) {
	topic := &Topic{Id: "t1"}
	topic.ApplyScore(140, 80)
	assert.Equal(t, 100, topic.ConfidenceScore)
	topic.ApplyScore(-5, 80)
	assert.Equal(t, 0, topic.ConfidenceScore)
}

func TestSession_ActiveTopicIndex(t *testing.T) {
	assert.Equal(t, 1, newTestSession(90, 40, 10).ActiveTopicIndex(80))
	assert.Equal(t, 0, newTestSession(10, 40, 10).ActiveTopicIndex(80))
	assert.Equal(t, 0, newTestSession(90, 85, 80).ActiveTopicIndex(80))
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := newTestSession(10)
	def := "a thing"
	s.Topics[0].Knowledge.Definition = &def
	s.Topics[0].MissingSections = []string{"purpose"}

	c := s.Clone()
	*c.Topics[0].Knowledge.Definition = "changed"
	c.Topics[0].MissingSections[0] = "changed"
	c.Topics[0].ConfidenceScore = 99

	assert.Equal(t, "a thing", *s.Topics[0].Knowledge.Definition)
	assert.Equal(t, "purpose", s.Topics[0].MissingSections[0])
	assert.Equal(t, 10, s.Topics[0].ConfidenceScore)
}

func TestTopicVectorId_IsDeterministic(t *testing.T) {
	a := TopicVectorId("session-1", "System Overview")
	b := TopicVectorId("session-1", "System Overview")
	c := TopicVectorId("session-2", "System Overview")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 5, int(a.Version()))
}

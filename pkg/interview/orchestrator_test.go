package interview

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/pkg/interview/prompt"
	"kt-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	replies []string
	ok      bool
	calls   [][]llm.Message
	opts    []llm.Options
}

func (f *fakeCompleter) GetCompletion(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, bool) {
	f.calls = append(f.calls, messages)
	f.opts = append(f.opts, llm.ApplyOptions(llm.Options{}, opts...))
	if !f.ok {
		return "", false
	}
	if len(f.replies) == 0 {
		return "", true
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, true
}

type recordingIndexer struct {
	indexed []string
}

func (r *recordingIndexer) IndexTopic(ctx context.Context, sessionId string, topic *entity.Topic) {
	r.indexed = append(r.indexed, sessionId+"/"+topic.Name)
}

func newSession() *entity.Session {
	return entity.NewSession("s1", []*entity.Topic{
		{Id: "t1", Name: "System Overview", MissingSections: []string{"definition", "purpose"}},
		{Id: "t2", Name: "Architecture & Data Flow"},
		{Id: "t3", Name: "Operations & Reliability"},
	}, time.Now())
}

func newOrchestrator(c Completer, idx TopicIndexer) *Orchestrator {
	return NewOrchestrator(c, idx, logger.NewNopLogger(), Config{
		PrimaryModel:        "primary",
		SecondaryModel:      "secondary",
		ConfidenceThreshold: 80,
	})
}

func TestMultiTopicValidateAndScore(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		ok    bool
		want  map[string]int
	}{
		{
			name:  "valid reply with unknown id",
			reply: `{"t1": {"knowledge": {"definition": "A batch ETL"}, "confidence_score": 55, "missing_sections": ["purpose"]}, "t9": {"confidence_score": 99}}`,
			ok:    true,
			want:  map[string]int{"t1": 55},
		},
		{
			name:  "scores clamped and coerced",
			reply: `{"t1": {"confidence_score": 150}, "t2": {"confidence_score": "42"}, "t3": {"confidence_score": 61.9}}`,
			ok:    true,
			want:  map[string]int{"t1": 100, "t2": 42, "t3": 61},
		},
		{
			name:  "fenced json",
			reply: "```json\n{\"t2\": {\"confidence_score\": -5}}\n```",
			ok:    true,
			want:  map[string]int{"t2": 0},
		},
		{name: "malformed json", reply: `{"t1": {`, ok: true, want: map[string]int{}},
		{name: "provider failure", ok: false, want: map[string]int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{replies: []string{tt.reply}, ok: tt.ok}
			o := newOrchestrator(c, nil)

			got := o.MultiTopicValidateAndScore(context.Background(), newSession(), "we run nightly")

			scores := map[string]int{}
			for id, u := range got {
				scores[id] = u.ConfidenceScore
			}
			assert.Equal(t, tt.want, scores)

			require.Len(t, c.opts, 1)
			assert.True(t, c.opts[0].JSONResponse)
			assert.Equal(t, "primary", c.opts[0].Model)
			assert.Equal(t, prompt.AnalyzerSystemPrompt, c.calls[0][0].Content)
			assert.Contains(t, c.calls[0][1].Content, "we run nightly")
		})
	}
}

func TestMultiTopicValidateAndScore_NormalizesLists(t *testing.T) {
	c := &fakeCompleter{ok: true, replies: []string{
		`{"t3": {"knowledge": {"failure cases": ["disk full", "timeout"], "operational_steps": "restart"}, "confidence_score": 70}}`,
	}}
	got := newOrchestrator(c, nil).MultiTopicValidateAndScore(context.Background(), newSession(), "x")

	require.Contains(t, got, "t3")
	require.NotNil(t, got["t3"].Knowledge.FailureCases)
	assert.Equal(t, "- disk full\n- timeout", *got["t3"].Knowledge.FailureCases)
	assert.Equal(t, "restart", *got["t3"].Knowledge.OperationalSteps)
	assert.Equal(t, []string{}, got["t3"].MissingSections)
}

func TestMalformedReplyLeavesSessionUnchanged(t *testing.T) {
	c := &fakeCompleter{ok: true, replies: []string{"not json at all"}}
	idx := &recordingIndexer{}
	o := newOrchestrator(c, idx)

	session := newSession()
	session.Topics[0].ConfidenceScore = 40
	session.RecomputeConfidence()
	before := session.Clone()

	completed := o.ApplyUpdates(context.Background(), session, o.MultiTopicValidateAndScore(context.Background(), session, "x"))

	assert.Empty(t, completed)
	assert.Empty(t, idx.indexed)
	assert.Equal(t, before, session)
}

func TestApplyUpdates_IndexesOnce(t *testing.T) {
	idx := &recordingIndexer{}
	o := newOrchestrator(&fakeCompleter{}, idx)
	session := newSession()

	var completedAt []int
	for i, score := range []int{70, 85, 60, 90} {
		completed := o.ApplyUpdates(context.Background(), session, map[string]TopicUpdate{
			"t1": {ConfidenceScore: score, MissingSections: []string{}},
		})
		if len(completed) > 0 {
			completedAt = append(completedAt, i)
		}
	}

	assert.Equal(t, []int{1}, completedAt)
	assert.Equal(t, []string{"s1/System Overview"}, idx.indexed)
	assert.True(t, session.Topics[0].IsComplete)
	assert.Equal(t, 90, session.Topics[0].ConfidenceScore)
	assert.Equal(t, 30, session.OverallConfidence)
}

func TestApplyUpdates_OverwritesKnowledge(t *testing.T) {
	o := newOrchestrator(&fakeCompleter{}, nil)
	session := newSession()
	def := "old"
	session.Topics[1].Knowledge.Definition = &def
	session.Topics[1].ConfidenceScore = 60

	purpose := "new purpose"
	o.ApplyUpdates(context.Background(), session, map[string]TopicUpdate{
		"t2": {Knowledge: entity.TopicKnowledge{Purpose: &purpose}, ConfidenceScore: 30, MissingSections: []string{"definition"}},
	})

	topic := session.Topics[1]
	assert.Nil(t, topic.Knowledge.Definition)
	assert.Equal(t, "new purpose", *topic.Knowledge.Purpose)
	assert.Equal(t, 30, topic.ConfidenceScore)
	assert.Equal(t, []string{"definition"}, topic.MissingSections)
	assert.Equal(t, 10, session.OverallConfidence)
}

func TestInterrogate(t *testing.T) {
	session := newSession()
	var history []*entity.Message
	for i := 0; i < 14; i++ {
		role := entity.MessageRoleUser
		if i%2 == 1 {
			role = entity.MessageRoleAssistant
		}
		history = append(history, entity.NewMessage("s1", role, fmt.Sprintf("m%d", i), time.Now()))
	}

	t.Run("uses last ten turns and secondary model", func(t *testing.T) {
		c := &fakeCompleter{ok: true, replies: []string{"What is the purpose?"}}
		got := newOrchestrator(c, nil).Interrogate(context.Background(), session, history, session.Topics[0])

		assert.Equal(t, "What is the purpose?", got)
		require.Len(t, c.calls[0], 11)
		assert.Equal(t, llm.RoleSystem, c.calls[0][0].Role)
		assert.Contains(t, c.calls[0][0].Content, "Currently focusing on Topic: System Overview")
		assert.Contains(t, c.calls[0][0].Content, "Missing Sections: definition, purpose")
		assert.Contains(t, c.calls[0][0].Content, "at least 80% confidence")
		assert.Equal(t, "m4", c.calls[0][1].Content)
		assert.Equal(t, "secondary", c.opts[0].Model)
	})

	t.Run("fallback on failure", func(t *testing.T) {
		got := newOrchestrator(&fakeCompleter{}, nil).Interrogate(context.Background(), session, history, session.Topics[0])
		assert.Equal(t, prompt.FallbackQuestion, got)
	})
}

func TestNextQuestion(t *testing.T) {
	c := &fakeCompleter{ok: true, replies: []string{"Q?"}}
	o := newOrchestrator(c, nil)

	t.Run("stays on active topic", func(t *testing.T) {
		session := newSession()
		assert.Equal(t, "Q?", o.NextQuestion(context.Background(), session, nil, 0))
	})

	t.Run("moves to next topic", func(t *testing.T) {
		session := newSession()
		session.Topics[0].ApplyScore(85, 80)
		got := o.NextQuestion(context.Background(), session, nil, 0)
		assert.Equal(t, "Great! I have a solid understanding of 'System Overview'. Let's move to 'Architecture & Data Flow'. Q?", got)
	})

	t.Run("all complete", func(t *testing.T) {
		session := newSession()
		for _, topic := range session.Topics {
			topic.ApplyScore(90, 80)
		}
		assert.Equal(t, CompletionNotice, o.NextQuestion(context.Background(), session, nil, 2))
	})
}

func TestGenerateFinalSummary(t *testing.T) {
	session := newSession()

	c := &fakeCompleter{ok: true, replies: []string{"# KT Document"}}
	got := newOrchestrator(c, nil).GenerateFinalSummary(context.Background(), session)

	assert.Equal(t, "# KT Document", got)
	assert.Contains(t, c.calls[0][0].Content, "Do not include the Session ID")
	assert.Contains(t, c.calls[0][1].Content, "--- Topic: Operations & Reliability ---")
	assert.False(t, strings.Contains(c.calls[0][1].Content, "s1"))

	fallback := newOrchestrator(&fakeCompleter{}, nil).GenerateFinalSummary(context.Background(), session)
	assert.Equal(t, prompt.FallbackSummary, fallback)
}

func TestValidateAndScore(t *testing.T) {
	session := newSession()
	topic := session.Topics[0]
	topic.ConfidenceScore = 33

	c := &fakeCompleter{ok: true, replies: []string{`{"t1": {"confidence_score": 77}}`}}
	assert.Equal(t, 77, newOrchestrator(c, nil).ValidateAndScore(context.Background(), topic, "x").ConfidenceScore)

	unchanged := newOrchestrator(&fakeCompleter{}, nil).ValidateAndScore(context.Background(), topic, "x")
	assert.Equal(t, 33, unchanged.ConfidenceScore)
	assert.Equal(t, []string{"definition", "purpose"}, unchanged.MissingSections)
	assert.Equal(t, 33, topic.ConfidenceScore)
}

func TestAnswerQuestion(t *testing.T) {
	hits := []*entity.TopicVector{
		{Topic: "System Overview", Summary: `{"definition": "ETL"}`},
		{Topic: "Operations & Reliability", Summary: `{}`},
	}
	c := &fakeCompleter{ok: true, replies: []string{"It is an ETL."}}
	got := newOrchestrator(c, nil).AnswerQuestion(context.Background(), "what is it?", hits)

	assert.Equal(t, "It is an ETL.", got)
	system := c.calls[0][0].Content
	assert.Contains(t, system, "say you don't know")
	assert.Contains(t, system, "Topic: System Overview\nDetails: {\"definition\": \"ETL\"}\n\nTopic: Operations & Reliability")
	assert.Equal(t, "what is it?", c.calls[0][1].Content)
}

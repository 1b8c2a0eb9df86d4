package interview

import (
	"context"
	"fmt"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/pkg/interview/prompt"
	"kt-assistant-be/pkg/llm"
)

const module = "Interview"

const (
	historyWindow = 10

	CompletionNotice = "I have gathered all the necessary information. The KT session is complete! You can now generate the final summary from the sidebar."
)

// Completer is the slice of completion.Client the orchestrator needs.
type Completer interface {
	GetCompletion(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, bool)
}

// TopicIndexer stores the summary of a topic that just completed.
type TopicIndexer interface {
	IndexTopic(ctx context.Context, sessionId string, topic *entity.Topic)
}

type Config struct {
	PrimaryModel        string
	SecondaryModel      string
	ConfidenceThreshold int
}

// Orchestrator drives one interview turn at a time. It holds no per-session
// state; callers serialize turns for the same session.
type Orchestrator struct {
	completer Completer
	indexer   TopicIndexer
	logger    logger.ILogger
	cfg       Config
}

func NewOrchestrator(completer Completer, indexer TopicIndexer, log logger.ILogger, cfg Config) *Orchestrator {
	if cfg.SecondaryModel == "" {
		cfg.SecondaryModel = cfg.PrimaryModel
	}
	return &Orchestrator{
		completer: completer,
		indexer:   indexer,
		logger:    log,
		cfg:       cfg,
	}
}

func (o *Orchestrator) Threshold() int {
	return o.cfg.ConfidenceThreshold
}

// MultiTopicValidateAndScore extracts knowledge for every topic of the session
// from a single user message. Provider failures and unparseable replies yield
// an empty map.
func (o *Orchestrator) MultiTopicValidateAndScore(ctx context.Context, session *entity.Session, userMessage string) map[string]TopicUpdate {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.AnalyzerSystemPrompt},
		{Role: llm.RoleUser, Content: prompt.ExtractionPrompt(session.Topics, userMessage)},
	}

	reply, ok := o.completer.GetCompletion(ctx, messages, llm.WithJSONResponse(), llm.WithModel(o.cfg.PrimaryModel))
	if !ok || reply == "" {
		return map[string]TopicUpdate{}
	}

	known := make(map[string]bool, len(session.Topics))
	for _, t := range session.Topics {
		known[t.Id] = true
	}

	updates, err := ParseTopicUpdates(reply, known)
	if err != nil {
		o.logger.Error(module, "Failed to parse multi-topic validation JSON", map[string]interface{}{
			"session_id": session.Id,
			"error":      err,
		})
		return map[string]TopicUpdate{}
	}
	return updates
}

// ApplyUpdates overwrites each updated topic, marks topics complete on their
// first crossing of the threshold and indexes them once. It returns the ids of
// topics that completed during this call.
func (o *Orchestrator) ApplyUpdates(ctx context.Context, session *entity.Session, updates map[string]TopicUpdate) []string {
	var completed []string

	for _, topic := range session.Topics {
		update, ok := updates[topic.Id]
		if !ok {
			continue
		}

		oldScore := topic.ConfidenceScore
		topic.Knowledge = update.Knowledge.Clone()
		topic.MissingSections = append([]string{}, update.MissingSections...)

		crossed := topic.ApplyScore(update.ConfidenceScore, o.cfg.ConfidenceThreshold)
		if topic.ConfidenceScore != oldScore {
			o.logger.Info(module, "Topic confidence updated", map[string]interface{}{
				"session_id": session.Id,
				"topic":      topic.Name,
				"from":       oldScore,
				"to":         topic.ConfidenceScore,
			})
		}

		if crossed {
			completed = append(completed, topic.Id)
			if o.indexer != nil {
				o.indexer.IndexTopic(ctx, session.Id, topic.Clone())
			}
		}
	}

	session.RecomputeConfidence()
	return completed
}

// Interrogate asks the next question for targetTopic, using only the most
// recent turns of the transcript.
func (o *Orchestrator) Interrogate(ctx context.Context, session *entity.Session, history []*entity.Message, targetTopic *entity.Topic) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt.InterrogationPrompt(targetTopic, o.cfg.ConfidenceThreshold)})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, ok := o.completer.GetCompletion(ctx, messages, llm.WithModel(o.cfg.SecondaryModel))
	if !ok || reply == "" {
		return prompt.FallbackQuestion
	}
	return reply
}

// NextQuestion picks what the assistant says after a turn. activeIndex is the
// topic that was being discussed before the turn's knowledge was applied.
func (o *Orchestrator) NextQuestion(ctx context.Context, session *entity.Session, history []*entity.Message, activeIndex int) string {
	if len(session.Topics) == 0 {
		return CompletionNotice
	}
	if activeIndex < 0 || activeIndex >= len(session.Topics) {
		activeIndex = 0
	}

	active := session.Topics[activeIndex]
	if active.IsComplete && activeIndex+1 < len(session.Topics) {
		next := session.Topics[activeIndex+1]
		transition := fmt.Sprintf("Great! I have a solid understanding of '%s'. Let's move to '%s'. ", active.Name, next.Name)
		return transition + o.Interrogate(ctx, session, history, next)
	}
	if session.AllTopicsComplete() {
		return CompletionNotice
	}
	return o.Interrogate(ctx, session, history, active)
}

// GenerateFinalSummary renders the KT document from every topic's knowledge.
// It does not check that topics are complete.
func (o *Orchestrator) GenerateFinalSummary(ctx context.Context, session *entity.Session) string {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.SummarySystemPrompt()},
		{Role: llm.RoleUser, Content: prompt.SummaryUserPrompt(session.Topics)},
	}

	reply, ok := o.completer.GetCompletion(ctx, messages, llm.WithModel(o.cfg.PrimaryModel))
	if !ok || reply == "" {
		return prompt.FallbackSummary
	}
	return reply
}

// ValidateAndScore runs extraction for a single topic. Without a usable result
// the topic's current state is returned.
func (o *Orchestrator) ValidateAndScore(ctx context.Context, topic *entity.Topic, userMessage string) TopicUpdate {
	scratch := &entity.Session{Id: "temp", Topics: []*entity.Topic{topic.Clone()}}

	updates := o.MultiTopicValidateAndScore(ctx, scratch, userMessage)
	if update, ok := updates[topic.Id]; ok {
		return update
	}
	return TopicUpdate{
		Knowledge:       topic.Knowledge.Clone(),
		ConfidenceScore: topic.ConfidenceScore,
		MissingSections: append([]string{}, topic.MissingSections...),
	}
}

// AnswerQuestion answers from retrieved topic summaries only.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, question string, hits []*entity.TopicVector) string {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.QASystemPrompt(hits)},
		{Role: llm.RoleUser, Content: question},
	}

	reply, ok := o.completer.GetCompletion(ctx, messages, llm.WithModel(o.cfg.PrimaryModel))
	if !ok || reply == "" {
		return prompt.FallbackAnswer
	}
	return reply
}

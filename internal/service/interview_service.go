// FILE: internal/service/interview_service.go
package service

import (
	"context"
	"regexp"
	"sync"
	"time"

	"kt-assistant-be/internal/config"
	"kt-assistant-be/internal/constant"
	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/cache"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/pkg/completion"
	"kt-assistant-be/pkg/events"
	"kt-assistant-be/pkg/ingest"
	"kt-assistant-be/pkg/interview"
	"kt-assistant-be/pkg/interview/prompt"
	"kt-assistant-be/pkg/utils"

	"github.com/google/uuid"
)

const interviewModule = "InterviewService"

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// EventPublisher is satisfied by pkg/nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IInterviewService interface {
	Start(ctx context.Context) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionId string) (*dto.SessionResponse, error)
	SendMessage(ctx context.Context, sessionId string, req *dto.SendMessageRequest) (*dto.TurnResponse, error)
	UploadDocument(ctx context.Context, sessionId, fileName string, data []byte) (*dto.TurnResponse, error)
	Search(ctx context.Context, sessionId string, req *dto.SearchRequest) (*dto.SearchResponse, error)
	GenerateSummary(ctx context.Context, sessionId string) (*dto.SummaryResponse, error)
	GetSummary(ctx context.Context, sessionId string) (*dto.SummaryResponse, error)
	Delete(ctx context.Context, sessionId string) error
}

type InterviewServiceDeps struct {
	Store        ISessionStore
	Vectors      IVectorGateway
	Orchestrator *interview.Orchestrator
	Embedder     Embedder
	Extractor    *ingest.Extractor
	Contexts     *memory.InterviewContextRepository
	Summaries    cache.SummaryCache
	Events       EventPublisher // optional
	Topics       []config.TopicTemplate
	Config       config.InterviewConfig
	Logger       logger.ILogger
}

type interviewService struct {
	store        ISessionStore
	vectors      IVectorGateway
	orchestrator *interview.Orchestrator
	embedder     Embedder
	extractor    *ingest.Extractor
	contexts     *memory.InterviewContextRepository
	summaries    cache.SummaryCache
	events       EventPublisher
	topics       []config.TopicTemplate
	cfg          config.InterviewConfig
	logger       logger.ILogger

	loadMu sync.Mutex
	now    func() time.Time
}

func NewInterviewService(deps InterviewServiceDeps) IInterviewService {
	topics := deps.Topics
	if len(topics) == 0 {
		topics = config.DefaultTopics()
	}
	return &interviewService{
		store:        deps.Store,
		vectors:      deps.Vectors,
		orchestrator: deps.Orchestrator,
		embedder:     deps.Embedder,
		extractor:    deps.Extractor,
		contexts:     deps.Contexts,
		summaries:    deps.Summaries,
		events:       deps.Events,
		topics:       topics,
		cfg:          deps.Config,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// Start creates a session from the topic catalog and persists the greeting.
func (s *interviewService) Start(ctx context.Context) (*dto.SessionResponse, error) {
	now := s.now().UTC()

	topics := make([]*entity.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		topics = append(topics, &entity.Topic{
			Id:              t.Id,
			Name:            t.Name,
			Description:     t.Description,
			MissingSections: append([]string{}, t.MissingSections...),
		})
	}

	session := entity.NewSession(uuid.NewString(), topics, now)
	s.store.SaveSession(ctx, session)

	greeting := entity.NewMessage(session.Id, entity.MessageRoleAssistant, constant.InterviewGreeting, now)
	s.store.SaveMessage(ctx, greeting)

	ic := entity.NewInterviewContext(session, []*entity.Message{greeting})
	s.contexts.Save(ic)

	s.logger.Info(interviewModule, "Session started", map[string]interface{}{
		"session_id": session.Id,
		"topics":     len(topics),
	})
	s.publish(ctx, events.NewSessionStarted(session.Id, len(topics), now))

	return s.toSessionResponse(ic), nil
}

func (s *interviewService) Get(ctx context.Context, sessionId string) (*dto.SessionResponse, error) {
	ic, err := s.lockContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	defer ic.Unlock()
	return s.toSessionResponse(ic), nil
}

// SendMessage runs one chat turn: extract knowledge from the message, then
// ask the next question. The active topic is fixed before knowledge is
// applied so a topic completed by this turn triggers the transition line.
func (s *interviewService) SendMessage(ctx context.Context, sessionId string, req *dto.SendMessageRequest) (*dto.TurnResponse, error) {
	ic, err := s.lockStoredContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	defer ic.Unlock()

	session := ic.Session
	activeIndex := session.ActiveTopicIndex(s.orchestrator.Threshold())
	if session.AllTopicsComplete() {
		// nothing left to move on to
		activeIndex = len(session.Topics) - 1
	}

	userMsg := entity.NewMessage(session.Id, entity.MessageRoleUser, req.Content, s.now().UTC())
	ic.Append(userMsg)
	s.store.SaveMessage(ctx, userMsg)

	completed, err := s.processKnowledge(ctx, ic, req.Content)
	if err != nil {
		return nil, err
	}

	reply := s.orchestrator.NextQuestion(ctx, session, ic.Transcript, activeIndex)
	assistantMsg := entity.NewMessage(session.Id, entity.MessageRoleAssistant, reply, s.now().UTC())
	ic.Append(assistantMsg)
	s.store.SaveMessage(ctx, assistantMsg)

	replyDTO := toMessageDTO(assistantMsg)
	return &dto.TurnResponse{
		Reply:           &replyDTO,
		CompletedTopics: completed,
		Processed:       true,
		Session:         s.toSessionResponse(ic),
	}, nil
}

// UploadDocument feeds an uploaded file through knowledge extraction. The same
// file name uploaded twice in a row is acknowledged without reprocessing.
func (s *interviewService) UploadDocument(ctx context.Context, sessionId, fileName string, data []byte) (*dto.TurnResponse, error) {
	ic, err := s.lockStoredContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	defer ic.Unlock()

	if fileName != "" && fileName == ic.LastUpload {
		s.logger.Info(interviewModule, "Skipping repeated upload", map[string]interface{}{
			"session_id": sessionId,
			"file_name":  fileName,
		})
		return &dto.TurnResponse{
			CompletedTopics: []string{},
			Processed:       false,
			Session:         s.toSessionResponse(ic),
		}, nil
	}

	text, ok := s.extractor.ExtractText(data, fileName)
	if !ok {
		return nil, ErrNoTextExtracted
	}

	docMsg := entity.NewMessage(sessionId, entity.MessageRoleUser, constant.UploadedDocumentPrefix+fileName, s.now().UTC())
	docMsg.Metadata = map[string]interface{}{
		"file_name":  fileName,
		"characters": len([]rune(text)),
	}
	ic.Append(docMsg)
	s.store.SaveMessage(ctx, docMsg)

	chunks := utils.SplitText(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	completed := []string{}
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			s.logger.Warn(interviewModule, "Document processing cancelled", map[string]interface{}{
				"session_id": sessionId,
				"chunk":      i,
				"chunks":     len(chunks),
			})
			return nil, err
		}
		done, err := s.processKnowledge(ctx, ic, chunk)
		if err != nil {
			return nil, err
		}
		completed = append(completed, done...)
	}
	ic.LastUpload = fileName

	s.logger.Info(interviewModule, "Document processed", map[string]interface{}{
		"session_id": sessionId,
		"file_name":  fileName,
		"chunks":     len(chunks),
	})

	return &dto.TurnResponse{
		CompletedTopics: completed,
		Processed:       true,
		Session:         s.toSessionResponse(ic),
	}, nil
}

// Search answers a question from the indexed topic summaries. It is refused
// until at least one topic of the session is complete.
func (s *interviewService) Search(ctx context.Context, sessionId string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	ic, err := s.lockContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	unlocked := ic.Session.AnyTopicComplete()
	ic.Unlock()
	if !unlocked {
		return nil, ErrKnowledgeBaseLocked
	}

	limit := req.Limit
	if limit <= 0 {
		limit = constant.DefaultSearchLimit
	}
	if s.cfg.RAGContextSize > 0 && limit > s.cfg.RAGContextSize {
		limit = s.cfg.RAGContextSize
	}

	hits := []*entity.TopicVector{}
	if queryVector := s.embedder.GetQueryEmbedding(ctx, req.Query); !completion.IsZeroVector(queryVector) {
		hits = s.vectors.Search(ctx, queryVector, limit)
	}
	answer := s.orchestrator.AnswerQuestion(ctx, req.Query, hits)

	res := &dto.SearchResponse{
		Query:  req.Query,
		Answer: answer,
		Hits:   make([]dto.SearchHitDTO, 0, len(hits)),
	}
	for _, h := range hits {
		res.Hits = append(res.Hits, dto.SearchHitDTO{Topic: h.Topic, Summary: h.Summary, Score: h.Score})
	}
	return res, nil
}

// GenerateSummary renders the final KT document once every topic is complete.
func (s *interviewService) GenerateSummary(ctx context.Context, sessionId string) (*dto.SummaryResponse, error) {
	ic, err := s.lockContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	defer ic.Unlock()

	if !ic.Session.AllTopicsComplete() {
		return nil, ErrTopicsIncomplete
	}

	s.logger.Info(interviewModule, "Generating final summary", map[string]interface{}{"session_id": sessionId})
	summary := htmlTagPattern.ReplaceAllString(s.orchestrator.GenerateFinalSummary(ctx, ic.Session), "")

	if summary != prompt.FallbackSummary {
		if err := s.summaries.Set(ctx, sessionId, summary); err != nil {
			s.logger.Error(interviewModule, "Failed to cache summary", map[string]interface{}{
				"session_id": sessionId,
				"error":      err,
			})
		}
		s.publish(ctx, events.NewSummaryGenerated(sessionId, len(summary), s.now().UTC()))
	}

	return &dto.SummaryResponse{SessionId: sessionId, Summary: summary}, nil
}

func (s *interviewService) GetSummary(ctx context.Context, sessionId string) (*dto.SummaryResponse, error) {
	summary, found, err := s.summaries.Get(ctx, sessionId)
	if err != nil {
		s.logger.Error(interviewModule, "Failed to read cached summary", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
		})
		return nil, ErrSummaryNotFound
	}
	if !found {
		return nil, ErrSummaryNotFound
	}
	return &dto.SummaryResponse{SessionId: sessionId, Summary: summary}, nil
}

// Delete clears the session everywhere: rows, vectors and caches.
func (s *interviewService) Delete(ctx context.Context, sessionId string) error {
	ic, err := s.lockContext(ctx, sessionId)
	if err != nil {
		return err
	}
	defer ic.Unlock()

	ic.MarkDeleted()
	s.contexts.Delete(sessionId)
	s.store.DeleteSession(ctx, sessionId)
	s.vectors.DeleteSessionVectors(ctx, sessionId)
	if err := s.summaries.Delete(ctx, sessionId); err != nil {
		s.logger.Warn(interviewModule, "Failed to drop cached summary", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	s.logger.Info(interviewModule, "Session cleared", map[string]interface{}{"session_id": sessionId})
	s.publish(ctx, events.NewSessionDeleted(sessionId, s.now().UTC()))
	return nil
}

// processKnowledge applies one extraction pass to the session and persists
// it. Callers hold the context lock.
func (s *interviewService) processKnowledge(ctx context.Context, ic *entity.InterviewContext, text string) ([]string, error) {
	session := ic.Session
	updates := s.orchestrator.MultiTopicValidateAndScore(ctx, session, text)
	completed := s.orchestrator.ApplyUpdates(ctx, session, updates)

	if session.AllTopicsComplete() {
		session.Status = entity.SessionStatusCompleted
	}
	if !s.store.UpdateSession(ctx, session) {
		s.forget(ic)
		return nil, ErrSessionNotFound
	}

	for _, id := range completed {
		topic := session.TopicById(id)
		if topic == nil {
			continue
		}
		s.publish(ctx, events.NewTopicCompleted(session.Id, topic.Id, topic.Name, topic.ConfidenceScore, s.now().UTC()))
	}
	if completed == nil {
		completed = []string{}
	}
	return completed, nil
}

// lockContext returns the session's context locked by the caller, or
// ErrSessionNotFound when the session was deleted while the context was
// cached.
func (s *interviewService) lockContext(ctx context.Context, sessionId string) (*entity.InterviewContext, error) {
	ic, err := s.loadContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	ic.Lock()
	if ic.Deleted() {
		ic.Unlock()
		return nil, ErrSessionNotFound
	}
	return ic, nil
}

// lockStoredContext is lockContext for turns that write: it also confirms
// the row still exists, since another process may have expired it.
func (s *interviewService) lockStoredContext(ctx context.Context, sessionId string) (*entity.InterviewContext, error) {
	ic, err := s.lockContext(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !s.store.SessionExists(ctx, sessionId) {
		s.forget(ic)
		ic.Unlock()
		return nil, ErrSessionNotFound
	}
	return ic, nil
}

// forget drops a context whose session row no longer exists.
func (s *interviewService) forget(ic *entity.InterviewContext) {
	ic.MarkDeleted()
	s.contexts.Delete(ic.Session.Id)
	s.logger.Warn(interviewModule, "Session no longer stored, dropping context", map[string]interface{}{
		"session_id": ic.Session.Id,
	})
}

// loadContext returns the live context for a session, rebuilding it from the
// store on a cache miss.
func (s *interviewService) loadContext(ctx context.Context, sessionId string) (*entity.InterviewContext, error) {
	if ic, ok := s.contexts.Get(sessionId); ok {
		return ic, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if ic, ok := s.contexts.Get(sessionId); ok {
		return ic, nil
	}

	session := s.store.GetSession(ctx, sessionId)
	if session == nil {
		return nil, ErrSessionNotFound
	}

	ic := entity.NewInterviewContext(session, s.store.GetMessages(ctx, sessionId))
	s.contexts.Save(ic)
	return ic, nil
}

func (s *interviewService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn(interviewModule, "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *interviewService) toSessionResponse(ic *entity.InterviewContext) *dto.SessionResponse {
	session := ic.Session
	threshold := s.orchestrator.Threshold()

	res := &dto.SessionResponse{
		Id:                 session.Id,
		Status:             session.Status,
		OverallConfidence:  session.OverallConfidence,
		KnowledgeBaseReady: session.AnyTopicComplete(),
		CanGenerateSummary: session.AllTopicsComplete(),
		Topics:             make([]dto.TopicProgressDTO, 0, len(session.Topics)),
		Messages:           make([]dto.MessageDTO, 0, len(ic.Transcript)),
		CreatedAt:          session.CreatedAt,
		UpdatedAt:          session.UpdatedAt,
	}
	if !session.AllTopicsComplete() && len(session.Topics) > 0 {
		res.ActiveTopicId = session.Topics[session.ActiveTopicIndex(threshold)].Id
	}

	for _, t := range session.Topics {
		knowledge := make(map[string]string)
		for _, f := range t.Knowledge.Fields() {
			if f.Value != nil {
				knowledge[f.Key] = *f.Value
			}
		}
		missing := t.MissingSections
		if missing == nil {
			missing = []string{}
		}
		res.Topics = append(res.Topics, dto.TopicProgressDTO{
			Id:              t.Id,
			Name:            t.Name,
			Description:     t.Description,
			ConfidenceScore: t.ConfidenceScore,
			IsComplete:      t.IsComplete,
			MissingSections: missing,
			Knowledge:       knowledge,
		})
	}

	for _, m := range ic.Transcript {
		res.Messages = append(res.Messages, toMessageDTO(m))
	}
	return res
}

func toMessageDTO(m *entity.Message) dto.MessageDTO {
	return dto.MessageDTO{
		Id:        m.Id,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Metadata:  m.Metadata,
	}
}

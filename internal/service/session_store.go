// FILE: internal/service/session_store.go
package service

import (
	"context"
	"time"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/specification"
	"kt-assistant-be/internal/repository/unitofwork"
)

const storeModule = "SessionStore"

// ISessionStore persists sessions and transcripts. No method returns an
// error: failures are logged and degrade to an empty result.
type ISessionStore interface {
	SaveSession(ctx context.Context, session *entity.Session)
	UpdateSession(ctx context.Context, session *entity.Session) bool
	SessionExists(ctx context.Context, sessionId string) bool
	SaveMessage(ctx context.Context, message *entity.Message)
	GetSession(ctx context.Context, sessionId string) *entity.Session
	GetMessages(ctx context.Context, sessionId string) []*entity.Message
	CleanupExpired(ctx context.Context, ttl time.Duration) []string
	ActiveSessionIds(ctx context.Context) []string
	ListSessions(ctx context.Context, offset, limit int) []*entity.Session
	DeleteSession(ctx context.Context, sessionId string)
}

type sessionStore struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

func NewSessionStore(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ISessionStore {
	return &sessionStore{
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
}

// SaveSession upserts the full session and stamps UpdatedAt.
func (s *sessionStore) SaveSession(ctx context.Context, session *entity.Session) {
	session.UpdatedAt = s.now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().Upsert(ctx, session); err != nil {
		s.logger.Error(storeModule, "Failed to save session", map[string]interface{}{
			"session_id": session.Id,
			"error":      err,
		})
	}
}

// UpdateSession writes an existing session back and stamps UpdatedAt. It
// returns false only when the store confirms the row is gone; a storage
// failure is logged and reported as true.
func (s *sessionStore) UpdateSession(ctx context.Context, session *entity.Session) bool {
	session.UpdatedAt = s.now().UTC()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	found, err := uow.SessionRepository().Update(ctx, session)
	if err != nil {
		s.logger.Error(storeModule, "Failed to update session", map[string]interface{}{
			"session_id": session.Id,
			"error":      err,
		})
		return true
	}
	return found
}

// SessionExists returns false only when the store confirms the row is gone.
func (s *sessionStore) SessionExists(ctx context.Context, sessionId string) bool {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ids, err := uow.SessionRepository().FindIds(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		s.logger.Error(storeModule, "Failed to check session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
		})
		return true
	}
	return len(ids) > 0
}

func (s *sessionStore) SaveMessage(ctx context.Context, message *entity.Message) {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now().UTC()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		s.logger.Error(storeModule, "Failed to save message", map[string]interface{}{
			"session_id": message.SessionId,
			"error":      err,
		})
	}
}

func (s *sessionStore) GetSession(ctx context.Context, sessionId string) *entity.Session {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		s.logger.Error(storeModule, "Failed to load session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
		})
		return nil
	}
	return session
}

func (s *sessionStore) GetMessages(ctx context.Context, sessionId string) []*entity.Message {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		s.logger.Error(storeModule, "Failed to load messages", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
		})
		return []*entity.Message{}
	}
	return messages
}

// CleanupExpired deletes sessions idle for longer than ttl together with
// their messages and returns the deleted ids.
func (s *sessionStore) CleanupExpired(ctx context.Context, ttl time.Duration) []string {
	cutoff := s.now().UTC().Add(-ttl)

	var ids []string
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := unitofwork.Transaction(ctx, uow, func() error {
		var err error
		ids, err = uow.SessionRepository().FindIds(ctx, specification.UpdatedBefore{Cutoff: cutoff})
		if err != nil || len(ids) == 0 {
			return err
		}
		if err := uow.MessageRepository().DeleteBySessionIds(ctx, ids); err != nil {
			return err
		}
		return uow.SessionRepository().DeleteByIds(ctx, ids)
	})
	if err != nil {
		s.logger.Error(storeModule, "Failed to clean up expired sessions", map[string]interface{}{
			"cutoff": cutoff,
			"error":  err,
		})
		return []string{}
	}

	if ids == nil {
		ids = []string{}
	}
	if len(ids) > 0 {
		s.logger.Info(storeModule, "Expired sessions deleted", map[string]interface{}{
			"count":  len(ids),
			"cutoff": cutoff,
		})
	}
	return ids
}

func (s *sessionStore) ActiveSessionIds(ctx context.Context) []string {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ids, err := uow.SessionRepository().FindIds(ctx)
	if err != nil {
		s.logger.Error(storeModule, "Failed to list active sessions", map[string]interface{}{"error": err})
		return []string{}
	}
	if ids == nil {
		ids = []string{}
	}
	return ids
}

// ListSessions returns sessions most recently active first.
func (s *sessionStore) ListSessions(ctx context.Context, offset, limit int) []*entity.Session {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.SessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		s.logger.Error(storeModule, "Failed to list sessions", map[string]interface{}{"error": err})
		return []*entity.Session{}
	}
	return sessions
}

func (s *sessionStore) DeleteSession(ctx context.Context, sessionId string) {
	ids := []string{sessionId}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := unitofwork.Transaction(ctx, uow, func() error {
		if err := uow.MessageRepository().DeleteBySessionIds(ctx, ids); err != nil {
			return err
		}
		return uow.SessionRepository().DeleteByIds(ctx, ids)
	})
	if err != nil {
		s.logger.Error(storeModule, "Failed to delete session", map[string]interface{}{
			"session_id": sessionId,
			"error":      err,
		})
	}
}

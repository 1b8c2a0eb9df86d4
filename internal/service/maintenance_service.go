// FILE: internal/service/maintenance_service.go
package service

import (
	"context"
	"time"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/cache"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/pkg/events"
)

const maintenanceModule = "Maintenance"

type IMaintenanceService interface {
	Run(ctx context.Context) *dto.MaintenanceResponse
	ListSessions(ctx context.Context, req *dto.SessionListRequest) []dto.SessionListItemDTO
}

const defaultSessionPageSize = 20

type maintenanceService struct {
	store    ISessionStore
	vectors  IVectorGateway
	contexts  *memory.InterviewContextRepository
	summaries cache.SummaryCache
	events   EventPublisher
	ttl      time.Duration
	logger   logger.ILogger
}

// NewMaintenanceService wires the expiry sweep. contexts, summaries and
// publisher may be nil.
func NewMaintenanceService(store ISessionStore, vectors IVectorGateway, contexts *memory.InterviewContextRepository, summaries cache.SummaryCache, publisher EventPublisher, ttl time.Duration, log logger.ILogger) IMaintenanceService {
	return &maintenanceService{
		store:     store,
		vectors:   vectors,
		contexts:  contexts,
		summaries: summaries,
		events:    publisher,
		ttl:       ttl,
		logger:    log,
	}
}

// Run expires idle sessions, then deletes every vector whose session no
// longer exists.
func (m *maintenanceService) Run(ctx context.Context) *dto.MaintenanceResponse {
	expired := m.store.CleanupExpired(ctx, m.ttl)
	for _, id := range expired {
		if m.contexts != nil {
			m.contexts.Invalidate(id)
		}
		if m.summaries != nil {
			if err := m.summaries.Delete(ctx, id); err != nil {
				m.logger.Warn(maintenanceModule, "Failed to drop cached summary", map[string]interface{}{
					"session_id": id,
					"error":      err.Error(),
				})
			}
		}
	}
	m.vectors.CleanupExpiredVectors(ctx, expired)

	activeIds := m.store.ActiveSessionIds(ctx)
	zombies := m.vectors.PurgeZombies(ctx, activeIds)

	m.logger.Info(maintenanceModule, "Healthcheck done", map[string]interface{}{
		"expired_sessions": len(expired),
		"active_sessions":  len(activeIds),
		"zombie_vectors":   zombies,
	})

	if m.events != nil {
		if err := m.events.Publish(ctx, events.NewMaintenanceCompleted(len(expired), zombies, time.Now().UTC())); err != nil {
			m.logger.Warn(maintenanceModule, "Failed to publish event", map[string]interface{}{"error": err.Error()})
		}
	}

	if expired == nil {
		expired = []string{}
	}
	return &dto.MaintenanceResponse{ExpiredSessions: expired, ZombieVectors: zombies}
}

func (m *maintenanceService) ListSessions(ctx context.Context, req *dto.SessionListRequest) []dto.SessionListItemDTO {
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultSessionPageSize
	}

	sessions := m.store.ListSessions(ctx, (page-1)*limit, limit)
	items := make([]dto.SessionListItemDTO, 0, len(sessions))
	for _, s := range sessions {
		completed := 0
		for _, t := range s.Topics {
			if t.IsComplete {
				completed++
			}
		}
		items = append(items, dto.SessionListItemDTO{
			Id:                s.Id,
			Status:            s.Status,
			OverallConfidence: s.OverallConfidence,
			CompletedTopics:   completed,
			TotalTopics:       len(s.Topics),
			UpdatedAt:         s.UpdatedAt,
		})
	}
	return items
}

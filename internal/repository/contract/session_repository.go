package contract

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/specification"
)

type SessionRepository interface {
	// Upsert inserts the session or fully replaces the stored row.
	Upsert(ctx context.Context, session *entity.Session) error
	// Update replaces an existing row and reports whether one was there.
	Update(ctx context.Context, session *entity.Session) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error)
	FindIds(ctx context.Context, specs ...specification.Specification) ([]string, error)
	DeleteByIds(ctx context.Context, ids []string) error
}

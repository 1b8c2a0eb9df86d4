package contract

import (
	"context"

	"kt-assistant-be/internal/entity"
	"kt-assistant-be/internal/repository/specification"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	DeleteBySessionIds(ctx context.Context, sessionIds []string) error
}

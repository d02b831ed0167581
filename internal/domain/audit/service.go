package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/carebook/carebook/internal/platform/auth"
)

type Service struct {
	logs LogRepository
}

func NewService(logs LogRepository) *Service {
	return &Service{logs: logs}
}

// Record writes one audit entry using whatever connection or transaction the
// context carries. Callers invoke it inside their own mutation transaction,
// which keeps the trail exactly as durable as the change it describes.
//
// The actor is taken from the authenticated user on the context; background
// jobs fall back to "system".
func (s *Service) Record(ctx context.Context, table string, entityID uuid.UUID, action string, oldValue, newValue any) error {
	entry := &AuditLog{
		TableName: table,
		EntityID:  entityID,
		Action:    action,
		Actor:     "system",
	}
	if userID := auth.UserIDFromContext(ctx); userID != "" {
		entry.Actor = userID
	}

	var err error
	if oldValue != nil {
		if entry.OldValue, err = json.Marshal(oldValue); err != nil {
			return fmt.Errorf("marshal old value: %w", err)
		}
	}
	if newValue != nil {
		if entry.NewValue, err = json.Marshal(newValue); err != nil {
			return fmt.Errorf("marshal new value: %w", err)
		}
	}
	return s.logs.Insert(ctx, entry)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*AuditLog, int, error) {
	return s.logs.Search(ctx, params, limit, offset)
}

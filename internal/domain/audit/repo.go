package audit

import (
	"context"
)

type LogRepository interface {
	Insert(ctx context.Context, entry *AuditLog) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*AuditLog, int, error)
}

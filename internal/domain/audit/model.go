package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionStatusChange = "STATUS_CHANGE"
)

// AuditLog is one immutable record of a mutation: which row changed, how,
// and by whom. Written in the same transaction as the mutation itself, so a
// rolled-back change leaves no trace here either.
type AuditLog struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TableName string          `json:"table_name" db:"table_name"`
	EntityID  uuid.UUID       `json:"entity_id" db:"entity_id"`
	Action    string          `json:"action" db:"action"`
	OldValue  json.RawMessage `json:"old_value,omitempty" db:"old_value"`
	NewValue  json.RawMessage `json:"new_value,omitempty" db:"new_value"`
	Actor     string          `json:"actor" db:"actor"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

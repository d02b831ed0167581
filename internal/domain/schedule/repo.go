package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RuleRepository persists schedule rules.
type RuleRepository interface {
	Create(ctx context.Context, r *ScheduleRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduleRule, error)
	// GetForDay returns the rule for (department, doctor, weekday), or nil when
	// no rule is configured.
	GetForDay(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, dayOfWeek int) (*ScheduleRule, error)
	Update(ctx context.Context, r *ScheduleRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*ScheduleRule, int, error)
}

// SlotRepository persists slots. The increment/decrement operations return
// the row as left by the statement so the booking engine can validate the
// post-mutation state under the row lock the UPDATE takes.
type SlotRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	BulkInsert(ctx context.Context, slots []*Slot) error
	DeleteByDay(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, day time.Time) error
	ListByDay(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, day time.Time, limit, offset int) ([]*Slot, int, error)
	IncrementBooked(ctx context.Context, id uuid.UUID) (*Slot, error)
	DecrementBookedAndReopen(ctx context.Context, id uuid.UUID) (*Slot, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

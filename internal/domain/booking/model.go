package booking

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusBooked    = "BOOKED"
	StatusCheckedIn = "CHECKED_IN"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

var validStatuses = map[string]bool{
	StatusBooked:    true,
	StatusCheckedIn: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

type Appointment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	SlotID         uuid.UUID `json:"slot_id" db:"slot_id"`
	PatientID      uuid.UUID `json:"patient_id" db:"patient_id"`
	Status         string    `json:"status" db:"status"`
	IdempotencyKey string    `json:"idempotency_key" db:"idempotency_key"`
	CancelReason   *string   `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

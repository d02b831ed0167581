package visit

import (
	"time"

	"github.com/google/uuid"
)

// Visit step statuses.
const (
	StepPending    = "PENDING"
	StepInProgress = "IN_PROGRESS"
	StepCompleted  = "COMPLETED"
)

var validStatuses = map[string]bool{
	StepPending:    true,
	StepInProgress: true,
	StepCompleted:  true,
}

// VisitStep is one entry in a patient's way-finding journey for a day:
// where to go next and whether they have been there.
type VisitStep struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	Title     string    `json:"title" db:"title"`
	Location  string    `json:"location" db:"location"`
	Sequence  int       `json:"sequence" db:"sequence"`
	Status    string    `json:"status" db:"status"`
	StepDate  time.Time `json:"step_date" db:"step_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type StepRepository interface {
	Create(ctx context.Context, s *VisitStep) error
	GetByID(ctx context.Context, id uuid.UUID) (*VisitStep, error)
	Update(ctx context.Context, s *VisitStep) error
	DeleteByPatientAndDay(ctx context.Context, patientID uuid.UUID, day time.Time) error
	ListByPatientAndDay(ctx context.Context, patientID uuid.UUID, day time.Time) ([]*VisitStep, error)
}

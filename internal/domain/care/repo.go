package care

import (
	"context"

	"github.com/google/uuid"
)

type SurgeryTypeRepository interface {
	Create(ctx context.Context, st *SurgeryType) error
	GetByID(ctx context.Context, id uuid.UUID) (*SurgeryType, error)
	Update(ctx context.Context, st *SurgeryType) error
	List(ctx context.Context, limit, offset int) ([]*SurgeryType, int, error)
}

type SurgeryCaseRepository interface {
	Create(ctx context.Context, sc *SurgeryCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*SurgeryCase, error)
	// GetByIDForUpdate locks the case row for the remainder of the
	// surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*SurgeryCase, error)
	Update(ctx context.Context, sc *SurgeryCase) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SurgeryCase, int, error)
}

type CarePlanRepository interface {
	Create(ctx context.Context, p *CarePlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*CarePlan, error)
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (*CarePlan, error)
}

type CarePlanItemRepository interface {
	BulkInsert(ctx context.Context, items []*CarePlanItem) error
	Create(ctx context.Context, item *CarePlanItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*CarePlanItem, error)
	Update(ctx context.Context, item *CarePlanItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*CarePlanItem, error)
}

// PatientDirectory and DoctorDirectory are the slices of the registry this
// package needs: existence checks when registering a surgery.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DoctorDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

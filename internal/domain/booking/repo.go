package booking

import (
	"context"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetByIDForUpdate locks the appointment row for the remainder of the
	// surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetByIdempotencyKey returns (nil, nil) when no appointment carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*Appointment, error)
	// HasActiveForSlot reports whether the patient already holds a
	// non-cancelled appointment on the slot.
	HasActiveForSlot(ctx context.Context, slotID, patientID uuid.UUID) (bool, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}

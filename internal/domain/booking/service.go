package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carebook/carebook/internal/domain/schedule"
)

// Booking errors, distinguished with errors.Is in the handler layer.
var (
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrSlotNotFound          = errors.New("slot not found")
	ErrSlotNotOpen           = errors.New("slot is not open for booking")
	ErrSlotFull              = errors.New("slot is fully booked")
	ErrSlotInPast            = errors.New("slot is in the past")
	ErrDuplicateBooking      = errors.New("patient already has a booking on this slot")
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrAlreadyCancelled      = errors.New("appointment is already cancelled")
	ErrInvalidStatus         = errors.New("invalid appointment status")
)

// TxRunner executes fn inside a single database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// SlotStore is the slice of the slot repository the booking engine needs.
// Satisfied by schedule.SlotRepository.
type SlotStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	IncrementBooked(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	DecrementBookedAndReopen(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// AuditRecorder writes an audit entry inside the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, table string, entityID uuid.UUID, action string, oldValue, newValue any) error
}

// JourneyResetter restarts a patient's way-finding steps for the day.
type JourneyResetter interface {
	ResetJourney(ctx context.Context, patientID uuid.UUID, day time.Time) error
}

type Service struct {
	appointments AppointmentRepository
	slots        SlotStore
	visits       JourneyResetter
	audit        AuditRecorder
	tx           TxRunner
}

func NewService(appointments AppointmentRepository, slots SlotStore, visits JourneyResetter, audit AuditRecorder, tx TxRunner) *Service {
	return &Service{appointments: appointments, slots: slots, visits: visits, audit: audit, tx: tx}
}

// Book places an appointment on a slot. The whole operation runs in one
// transaction: the booked counter is incremented unconditionally, then the
// re-read row is validated, so two concurrent bookings for the last place
// serialize on the slot's row lock and the loser rolls back.
//
// Re-sending the same idempotency key returns the appointment created by the
// first call instead of booking again.
func (s *Service) Book(ctx context.Context, slotID, patientID uuid.UUID, idempotencyKey string) (*Appointment, error) {
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if slotID == uuid.Nil || patientID == uuid.Nil {
		return nil, fmt.Errorf("slot_id and patient_id are required")
	}

	var appt *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		existing, err := s.appointments.GetByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			appt = existing
			return nil
		}

		slot, err := s.slots.GetByID(ctx, slotID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSlotNotFound
			}
			return err
		}
		if slot.StartTime.Before(time.Now()) {
			return ErrSlotInPast
		}

		dup, err := s.appointments.HasActiveForSlot(ctx, slotID, patientID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateBooking
		}

		updated, err := s.slots.IncrementBooked(ctx, slotID)
		if err != nil {
			return err
		}
		switch {
		case updated.BookedCount > updated.Capacity:
			return ErrSlotFull
		case updated.Status == schedule.SlotClosed:
			return ErrSlotNotOpen
		case updated.Status == schedule.SlotFull:
			return ErrSlotFull
		}
		if updated.BookedCount == updated.Capacity {
			if err := s.slots.UpdateStatus(ctx, slotID, schedule.SlotFull); err != nil {
				return err
			}
		}

		appt = &Appointment{
			SlotID:         slotID,
			PatientID:      patientID,
			Status:         StatusBooked,
			IdempotencyKey: idempotencyKey,
		}
		if err := s.appointments.Create(ctx, appt); err != nil {
			return err
		}
		return s.audit.Record(ctx, "appointment", appt.ID, "CREATE", nil, appt)
	})
	if err != nil {
		// Two requests racing on the same key both miss the lookup; the
		// loser's insert trips the unique index and we hand back the
		// winner's appointment.
		if isUniqueViolation(err, "appointment_idempotency_key_key") {
			return s.appointments.GetByIdempotencyKey(ctx, idempotencyKey)
		}
		if isUniqueViolation(err, "appointment_slot_patient_active_idx") {
			return nil, ErrDuplicateBooking
		}
		return nil, err
	}
	return appt, nil
}

// SetStatus moves an appointment through its lifecycle. Cancellation hands
// the place back to the slot and forces it open; check-in restarts the
// patient's visit journey for today.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus string, cancelReason *string) (*Appointment, error) {
	if !validStatuses[newStatus] || newStatus == StatusBooked {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, newStatus)
	}

	var appt *Appointment
	err := s.tx(ctx, func(ctx context.Context) error {
		current, err := s.appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAppointmentNotFound
			}
			return err
		}
		if current.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if current.Status == newStatus {
			appt = current
			return nil
		}

		old := *current
		current.Status = newStatus
		if newStatus == StatusCancelled {
			current.CancelReason = cancelReason
		}
		if err := s.appointments.Update(ctx, current); err != nil {
			return err
		}

		switch newStatus {
		case StatusCancelled:
			if _, err := s.slots.DecrementBookedAndReopen(ctx, current.SlotID); err != nil {
				return err
			}
		case StatusCheckedIn:
			if err := s.visits.ResetJourney(ctx, current.PatientID, time.Now()); err != nil {
				return err
			}
		}

		if err := s.audit.Record(ctx, "appointment", id, "STATUS_CHANGE", &old, current); err != nil {
			return err
		}
		appt = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListBySlot(ctx context.Context, slotID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListBySlot(ctx, slotID, limit, offset)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

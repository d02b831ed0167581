package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const appointmentCols = `id, slot_id, patient_id, status, idempotency_key, cancel_reason,
	created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.SlotID, &a.PatientID, &a.Status, &a.IdempotencyKey, &a.CancelReason,
		&a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, slot_id, patient_id, status, idempotency_key, cancel_reason)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		a.ID, a.SlotID, a.PatientID, a.Status, a.IdempotencyKey, a.CancelReason,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1 FOR UPDATE`, id))
}

func (r *appointmentRepoPG) GetByIdempotencyKey(ctx context.Context, key string) (*Appointment, error) {
	a, err := r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE idempotency_key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepoPG) HasActiveForSlot(ctx context.Context, slotID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE slot_id = $1 AND patient_id = $2 AND status <> $3
		)`, slotID, patientID, StatusCancelled).Scan(&exists)
	return exists, err
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment
		SET status = $2, cancel_reason = $3, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.CancelReason)
	return err
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id`, patientID, limit, offset)
}

func (r *appointmentRepoPG) ListBySlot(ctx context.Context, slotID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `slot_id`, slotID, limit, offset)
}

func (r *appointmentRepoPG) list(ctx context.Context, col string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE `+col+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+appointmentCols+` FROM appointment
		WHERE `+col+` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, a)
	}
	return result, total, rows.Err()
}

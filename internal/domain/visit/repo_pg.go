package visit

import (
	"context"
	"time"

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

type stepRepoPG struct{ pool *pgxpool.Pool }

func NewStepRepoPG(pool *pgxpool.Pool) StepRepository {
	return &stepRepoPG{pool: pool}
}

func (r *stepRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const stepCols = `id, patient_id, title, location, sequence, status, step_date, created_at, updated_at`

func (r *stepRepoPG) scanStep(row pgx.Row) (*VisitStep, error) {
	var s VisitStep
	err := row.Scan(&s.ID, &s.PatientID, &s.Title, &s.Location, &s.Sequence, &s.Status, &s.StepDate,
		&s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *stepRepoPG) Create(ctx context.Context, s *VisitStep) error {
	s.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visit_step (id, patient_id, title, location, sequence, status, step_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		s.ID, s.PatientID, s.Title, s.Location, s.Sequence, s.Status, s.StepDate,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *stepRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*VisitStep, error) {
	return r.scanStep(r.conn(ctx).QueryRow(ctx, `SELECT `+stepCols+` FROM visit_step WHERE id = $1`, id))
}

func (r *stepRepoPG) Update(ctx context.Context, s *VisitStep) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit_step
		SET title = $2, location = $3, sequence = $4, status = $5, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Title, s.Location, s.Sequence, s.Status)
	return err
}

func (r *stepRepoPG) DeleteByPatientAndDay(ctx context.Context, patientID uuid.UUID, day time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM visit_step WHERE patient_id = $1 AND step_date = $2`,
		patientID, day.Format("2006-01-02"))
	return err
}

func (r *stepRepoPG) ListByPatientAndDay(ctx context.Context, patientID uuid.UUID, day time.Time) ([]*VisitStep, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+stepCols+` FROM visit_step
		WHERE patient_id = $1 AND step_date = $2
		ORDER BY sequence`,
		patientID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*VisitStep
	for rows.Next() {
		s, err := r.scanStep(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

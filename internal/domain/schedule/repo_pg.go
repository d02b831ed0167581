package schedule

import (
	"context"
	"errors"
	"fmt"
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

// =========== Rule Repository ===========

type ruleRepoPG struct{ pool *pgxpool.Pool }

func NewRuleRepoPG(pool *pgxpool.Pool) RuleRepository { return &ruleRepoPG{pool: pool} }

func (r *ruleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const ruleCols = `id, department_id, doctor_id, day_of_week, start_time, end_time,
	break_start, break_end, slot_duration_min, capacity_per_slot, is_holiday,
	created_at, updated_at`

func (r *ruleRepoPG) scanRule(row pgx.Row) (*ScheduleRule, error) {
	var sr ScheduleRule
	err := row.Scan(&sr.ID, &sr.DepartmentID, &sr.DoctorID, &sr.DayOfWeek, &sr.StartTime, &sr.EndTime,
		&sr.BreakStart, &sr.BreakEnd, &sr.SlotDurationMin, &sr.CapacityPerSlot, &sr.IsHoliday,
		&sr.CreatedAt, &sr.UpdatedAt)
	return &sr, err
}

func (r *ruleRepoPG) Create(ctx context.Context, sr *ScheduleRule) error {
	sr.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_rule (id, department_id, doctor_id, day_of_week, start_time, end_time,
			break_start, break_end, slot_duration_min, capacity_per_slot, is_holiday)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		sr.ID, sr.DepartmentID, sr.DoctorID, sr.DayOfWeek, sr.StartTime, sr.EndTime,
		sr.BreakStart, sr.BreakEnd, sr.SlotDurationMin, sr.CapacityPerSlot, sr.IsHoliday)
	return err
}

func (r *ruleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleRule, error) {
	return r.scanRule(r.conn(ctx).QueryRow(ctx, `SELECT `+ruleCols+` FROM schedule_rule WHERE id = $1`, id))
}

func (r *ruleRepoPG) GetForDay(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, dayOfWeek int) (*ScheduleRule, error) {
	var row pgx.Row
	if doctorID != nil {
		row = r.conn(ctx).QueryRow(ctx, `
			SELECT `+ruleCols+` FROM schedule_rule
			WHERE department_id = $1 AND doctor_id = $2 AND day_of_week = $3`,
			departmentID, *doctorID, dayOfWeek)
	} else {
		row = r.conn(ctx).QueryRow(ctx, `
			SELECT `+ruleCols+` FROM schedule_rule
			WHERE department_id = $1 AND doctor_id IS NULL AND day_of_week = $2`,
			departmentID, dayOfWeek)
	}
	rule, err := r.scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *ruleRepoPG) Update(ctx context.Context, sr *ScheduleRule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedule_rule SET start_time=$2, end_time=$3, break_start=$4, break_end=$5,
			slot_duration_min=$6, capacity_per_slot=$7, is_holiday=$8, updated_at=NOW()
		WHERE id = $1`,
		sr.ID, sr.StartTime, sr.EndTime, sr.BreakStart, sr.BreakEnd,
		sr.SlotDurationMin, sr.CapacityPerSlot, sr.IsHoliday)
	return err
}

func (r *ruleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_rule WHERE id = $1`, id)
	return err
}

func (r *ruleRepoPG) ListByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*ScheduleRule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedule_rule WHERE department_id = $1`, departmentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+ruleCols+` FROM schedule_rule WHERE department_id = $1 ORDER BY day_of_week ASC, start_time ASC LIMIT $2 OFFSET $3`, departmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ScheduleRule
	for rows.Next() {
		sr, err := r.scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sr)
	}
	return items, total, nil
}

// =========== Slot Repository ===========

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository { return &slotRepoPG{pool: pool} }

func (r *slotRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const slotCols = `id, department_id, doctor_id, start_time, end_time,
	capacity, booked_count, status, version, created_at, updated_at`

func (r *slotRepoPG) scanSlot(row pgx.Row) (*Slot, error) {
	var sl Slot
	err := row.Scan(&sl.ID, &sl.DepartmentID, &sl.DoctorID, &sl.StartTime, &sl.EndTime,
		&sl.Capacity, &sl.BookedCount, &sl.Status, &sl.Version, &sl.CreatedAt, &sl.UpdatedAt)
	return &sl, err
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
}

func (r *slotRepoPG) BulkInsert(ctx context.Context, slots []*Slot) error {
	for _, sl := range slots {
		sl.ID = uuid.New()
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO slot (id, department_id, doctor_id, start_time, end_time,
				capacity, booked_count, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			sl.ID, sl.DepartmentID, sl.DoctorID, sl.StartTime, sl.EndTime,
			sl.Capacity, sl.BookedCount, sl.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *slotRepoPG) DeleteByDay(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, day time.Time) error {
	if doctorID != nil {
		_, err := r.conn(ctx).Exec(ctx, `
			DELETE FROM slot WHERE department_id = $1 AND doctor_id = $2 AND start_time::date = $3`,
			departmentID, *doctorID, day.Format("2006-01-02"))
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM slot WHERE department_id = $1 AND doctor_id IS NULL AND start_time::date = $2`,
		departmentID, day.Format("2006-01-02"))
	return err
}

func (r *slotRepoPG) ListByDay(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, day time.Time, limit, offset int) ([]*Slot, int, error) {
	query := `SELECT ` + slotCols + ` FROM slot WHERE department_id = $1 AND start_time::date = $2`
	countQuery := `SELECT COUNT(*) FROM slot WHERE department_id = $1 AND start_time::date = $2`
	args := []interface{}{departmentID, day.Format("2006-01-02")}

	if doctorID != nil {
		query += ` AND doctor_id = $3`
		countQuery += ` AND doctor_id = $3`
		args = append(args, *doctorID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY start_time ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Slot
	for rows.Next() {
		sl, err := r.scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sl)
	}
	return items, total, nil
}

// IncrementBooked bumps booked_count by one and returns the updated row. The
// UPDATE takes a row lock, so concurrent increments on the same slot serialize
// and the returned counts reflect every committed increment before this one.
func (r *slotRepoPG) IncrementBooked(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `
		UPDATE slot SET booked_count = booked_count + 1, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+slotCols, id))
}

// DecrementBookedAndReopen releases one booking and forces the slot back to
// OPEN. Cancellation always reopens capacity, even on a FULL slot.
func (r *slotRepoPG) DecrementBookedAndReopen(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.scanSlot(r.conn(ctx).QueryRow(ctx, `
		UPDATE slot SET booked_count = booked_count - 1, status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+slotCols, id, SlotOpen))
}

func (r *slotRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE slot SET status = $2, version = version + 1, updated_at = NOW() WHERE id = $1`,
		id, status)
	return err
}

package care

import (
	"context"

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Surgery Type Repository ===========

type surgeryTypeRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryTypeRepoPG(pool *pgxpool.Pool) SurgeryTypeRepository {
	return &surgeryTypeRepoPG{pool: pool}
}

const surgeryTypeCols = `id, name, default_stay_days, admission_required, pre_op_exam_required,
	medication_stop_days, created_at, updated_at`

func scanSurgeryType(row pgx.Row) (*SurgeryType, error) {
	var st SurgeryType
	err := row.Scan(&st.ID, &st.Name, &st.DefaultStayDays, &st.AdmissionRequired, &st.PreOpExamRequired,
		&st.MedicationStopDays, &st.CreatedAt, &st.UpdatedAt)
	return &st, err
}

func (r *surgeryTypeRepoPG) Create(ctx context.Context, st *SurgeryType) error {
	st.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO surgery_type (id, name, default_stay_days, admission_required, pre_op_exam_required, medication_stop_days)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		st.ID, st.Name, st.DefaultStayDays, st.AdmissionRequired, st.PreOpExamRequired, st.MedicationStopDays,
	).Scan(&st.CreatedAt, &st.UpdatedAt)
}

func (r *surgeryTypeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SurgeryType, error) {
	return scanSurgeryType(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+surgeryTypeCols+` FROM surgery_type WHERE id = $1`, id))
}

func (r *surgeryTypeRepoPG) Update(ctx context.Context, st *SurgeryType) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE surgery_type
		SET name = $2, default_stay_days = $3, admission_required = $4,
			pre_op_exam_required = $5, medication_stop_days = $6, updated_at = NOW()
		WHERE id = $1`,
		st.ID, st.Name, st.DefaultStayDays, st.AdmissionRequired, st.PreOpExamRequired, st.MedicationStopDays)
	return err
}

func (r *surgeryTypeRepoPG) List(ctx context.Context, limit, offset int) ([]*SurgeryType, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM surgery_type`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+surgeryTypeCols+` FROM surgery_type ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*SurgeryType
	for rows.Next() {
		st, err := scanSurgeryType(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, st)
	}
	return result, total, rows.Err()
}

// =========== Surgery Case Repository ===========

type surgeryCaseRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryCaseRepoPG(pool *pgxpool.Pool) SurgeryCaseRepository {
	return &surgeryCaseRepoPG{pool: pool}
}

const surgeryCaseCols = `id, patient_id, doctor_id, surgery_type_id, surgery_at, admission_date,
	discharge_date, status, room, diagnosis, created_at, updated_at`

func scanSurgeryCase(row pgx.Row) (*SurgeryCase, error) {
	var sc SurgeryCase
	err := row.Scan(&sc.ID, &sc.PatientID, &sc.DoctorID, &sc.SurgeryTypeID, &sc.SurgeryAt, &sc.AdmissionDate,
		&sc.DischargeDate, &sc.Status, &sc.Room, &sc.Diagnosis, &sc.CreatedAt, &sc.UpdatedAt)
	return &sc, err
}

func (r *surgeryCaseRepoPG) Create(ctx context.Context, sc *SurgeryCase) error {
	sc.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO surgery_case (id, patient_id, doctor_id, surgery_type_id, surgery_at, admission_date,
			discharge_date, status, room, diagnosis)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		sc.ID, sc.PatientID, sc.DoctorID, sc.SurgeryTypeID, sc.SurgeryAt, sc.AdmissionDate,
		sc.DischargeDate, sc.Status, sc.Room, sc.Diagnosis,
	).Scan(&sc.CreatedAt, &sc.UpdatedAt)
}

func (r *surgeryCaseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SurgeryCase, error) {
	return scanSurgeryCase(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+surgeryCaseCols+` FROM surgery_case WHERE id = $1`, id))
}

func (r *surgeryCaseRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*SurgeryCase, error) {
	return scanSurgeryCase(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+surgeryCaseCols+` FROM surgery_case WHERE id = $1 FOR UPDATE`, id))
}

func (r *surgeryCaseRepoPG) Update(ctx context.Context, sc *SurgeryCase) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE surgery_case
		SET surgery_at = $2, admission_date = $3, discharge_date = $4, status = $5,
			room = $6, diagnosis = $7, updated_at = NOW()
		WHERE id = $1`,
		sc.ID, sc.SurgeryAt, sc.AdmissionDate, sc.DischargeDate, sc.Status, sc.Room, sc.Diagnosis)
	return err
}

func (r *surgeryCaseRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SurgeryCase, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM surgery_case WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+surgeryCaseCols+` FROM surgery_case
		WHERE patient_id = $1
		ORDER BY surgery_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*SurgeryCase
	for rows.Next() {
		sc, err := scanSurgeryCase(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, sc)
	}
	return result, total, rows.Err()
}

// =========== Care Plan Repository ===========

type carePlanRepoPG struct{ pool *pgxpool.Pool }

func NewCarePlanRepoPG(pool *pgxpool.Pool) CarePlanRepository {
	return &carePlanRepoPG{pool: pool}
}

const carePlanCols = `id, surgery_case_id, start_date, end_date, created_at, updated_at`

func scanCarePlan(row pgx.Row) (*CarePlan, error) {
	var p CarePlan
	err := row.Scan(&p.ID, &p.SurgeryCaseID, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *carePlanRepoPG) Create(ctx context.Context, p *CarePlan) error {
	p.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO care_plan (id, surgery_case_id, start_date, end_date)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		p.ID, p.SurgeryCaseID, p.StartDate, p.EndDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *carePlanRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CarePlan, error) {
	return scanCarePlan(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+carePlanCols+` FROM care_plan WHERE id = $1`, id))
}

func (r *carePlanRepoPG) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*CarePlan, error) {
	return scanCarePlan(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+carePlanCols+` FROM care_plan WHERE surgery_case_id = $1`, caseID))
}

// =========== Care Plan Item Repository ===========

type carePlanItemRepoPG struct{ pool *pgxpool.Pool }

func NewCarePlanItemRepoPG(pool *pgxpool.Pool) CarePlanItemRepository {
	return &carePlanItemRepoPG{pool: pool}
}

const carePlanItemCols = `id, care_plan_id, title, description, category, priority, scheduled_at,
	completed, completed_at, created_at, updated_at`

func scanCarePlanItem(row pgx.Row) (*CarePlanItem, error) {
	var it CarePlanItem
	err := row.Scan(&it.ID, &it.CarePlanID, &it.Title, &it.Description, &it.Category, &it.Priority,
		&it.ScheduledAt, &it.Completed, &it.CompletedAt, &it.CreatedAt, &it.UpdatedAt)
	return &it, err
}

func (r *carePlanItemRepoPG) BulkInsert(ctx context.Context, items []*CarePlanItem) error {
	for _, it := range items {
		it.ID = uuid.New()
		_, err := conn(ctx, r.pool).Exec(ctx, `
			INSERT INTO care_plan_item (id, care_plan_id, title, description, category, priority, scheduled_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.CarePlanID, it.Title, it.Description, it.Category, it.Priority, it.ScheduledAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *carePlanItemRepoPG) Create(ctx context.Context, it *CarePlanItem) error {
	it.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO care_plan_item (id, care_plan_id, title, description, category, priority, scheduled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		it.ID, it.CarePlanID, it.Title, it.Description, it.Category, it.Priority, it.ScheduledAt,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
}

func (r *carePlanItemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CarePlanItem, error) {
	return scanCarePlanItem(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+carePlanItemCols+` FROM care_plan_item WHERE id = $1`, id))
}

func (r *carePlanItemRepoPG) Update(ctx context.Context, it *CarePlanItem) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE care_plan_item
		SET title = $2, description = $3, category = $4, priority = $5, scheduled_at = $6,
			completed = $7, completed_at = $8, updated_at = NOW()
		WHERE id = $1`,
		it.ID, it.Title, it.Description, it.Category, it.Priority, it.ScheduledAt,
		it.Completed, it.CompletedAt)
	return err
}

func (r *carePlanItemRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM care_plan_item WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *carePlanItemRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*CarePlanItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+carePlanItemCols+` FROM care_plan_item
		WHERE care_plan_id = $1
		ORDER BY scheduled_at`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*CarePlanItem
	for rows.Next() {
		it, err := scanCarePlanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// =========== Directories ===========

type patientDirectoryPG struct{ pool *pgxpool.Pool }

func NewPatientDirectoryPG(pool *pgxpool.Pool) PatientDirectory {
	return &patientDirectoryPG{pool: pool}
}

func (r *patientDirectoryPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

type doctorDirectoryPG struct{ pool *pgxpool.Pool }

func NewDoctorDirectoryPG(pool *pgxpool.Pool) DoctorDirectory {
	return &doctorDirectoryPG{pool: pool}
}

func (r *doctorDirectoryPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM practitioner WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

package care

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrSurgeryTypeNotFound = errors.New("surgery type not found")
	ErrCaseNotFound        = errors.New("surgery case not found")
	ErrPlanNotFound        = errors.New("care plan not found")
	ErrItemNotFound        = errors.New("care plan item not found")
	ErrCaseCancelled       = errors.New("surgery case is cancelled")
	ErrInvalidCaseStatus   = errors.New("invalid surgery case status")
)

type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// AuditRecorder writes an audit entry inside the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, table string, entityID uuid.UUID, action string, oldValue, newValue any) error
}

// Notifier persists an in-app notification for a patient.
type Notifier interface {
	Notify(ctx context.Context, patientID uuid.UUID, title, body string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, patientID uuid.UUID, title, body string) error

func (f NotifierFunc) Notify(ctx context.Context, patientID uuid.UUID, title, body string) error {
	return f(ctx, patientID, title, body)
}

type Service struct {
	types    SurgeryTypeRepository
	cases    SurgeryCaseRepository
	plans    CarePlanRepository
	items    CarePlanItemRepository
	patients PatientDirectory
	doctors  DoctorDirectory
	notify   Notifier
	audit    AuditRecorder
	tx       TxRunner
}

func NewService(types SurgeryTypeRepository, cases SurgeryCaseRepository, plans CarePlanRepository,
	items CarePlanItemRepository, patients PatientDirectory, doctors DoctorDirectory,
	notify Notifier, audit AuditRecorder, tx TxRunner) *Service {
	return &Service{
		types: types, cases: cases, plans: plans, items: items,
		patients: patients, doctors: doctors, notify: notify, audit: audit, tx: tx,
	}
}

// -- Surgery types --

func (s *Service) CreateSurgeryType(ctx context.Context, st *SurgeryType) error {
	if st.Name == "" {
		return fmt.Errorf("name is required")
	}
	if st.DefaultStayDays < 0 {
		return fmt.Errorf("default_stay_days must not be negative")
	}
	if st.MedicationStopDays <= 0 {
		st.MedicationStopDays = 7
	}
	return s.types.Create(ctx, st)
}

func (s *Service) GetSurgeryType(ctx context.Context, id uuid.UUID) (*SurgeryType, error) {
	st, err := s.types.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSurgeryTypeNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *Service) ListSurgeryTypes(ctx context.Context, limit, offset int) ([]*SurgeryType, int, error) {
	return s.types.List(ctx, limit, offset)
}

// -- Surgery registration --

type RegisterSurgeryInput struct {
	PatientID          uuid.UUID  `json:"patient_id"`
	DoctorID           uuid.UUID  `json:"doctor_id"`
	SurgeryTypeID      uuid.UUID  `json:"surgery_type_id"`
	SurgeryAt          time.Time  `json:"surgery_at"`
	AdmissionDate      *time.Time `json:"admission_date,omitempty"`
	DischargeDate      *time.Time `json:"discharge_date,omitempty"`
	Diagnosis          string     `json:"diagnosis"`
	MedicationStopDays int        `json:"medication_stop_days,omitempty"`
	Room               *string    `json:"room,omitempty"`
}

// RegisterSurgery creates the surgical case, its care plan and every
// templated care item as one atomic unit, then notifies the patient. A
// failure anywhere rolls the whole registration back.
func (s *Service) RegisterSurgery(ctx context.Context, in RegisterSurgeryInput) (*SurgeryCaseWithPlan, error) {
	if in.SurgeryAt.IsZero() {
		return nil, fmt.Errorf("surgery_at is required")
	}
	if in.Diagnosis == "" {
		return nil, fmt.Errorf("diagnosis is required")
	}

	st, err := s.types.GetByID(ctx, in.SurgeryTypeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSurgeryTypeNotFound
		}
		return nil, err
	}
	if ok, err := s.patients.Exists(ctx, in.PatientID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrPatientNotFound
	}
	if ok, err := s.doctors.Exists(ctx, in.DoctorID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrDoctorNotFound
	}

	admission := in.SurgeryAt
	if st.AdmissionRequired {
		admission = in.SurgeryAt.AddDate(0, 0, -1)
	}
	if in.AdmissionDate != nil {
		admission = *in.AdmissionDate
	}
	discharge := in.SurgeryAt.AddDate(0, 0, st.DefaultStayDays)
	if in.DischargeDate != nil {
		discharge = *in.DischargeDate
	}

	var result *SurgeryCaseWithPlan
	err = s.tx(ctx, func(ctx context.Context) error {
		sc := &SurgeryCase{
			PatientID:     in.PatientID,
			DoctorID:      in.DoctorID,
			SurgeryTypeID: in.SurgeryTypeID,
			SurgeryAt:     in.SurgeryAt,
			AdmissionDate: admission,
			DischargeDate: discharge,
			Status:        CaseConfirmed,
			Room:          in.Room,
			Diagnosis:     in.Diagnosis,
		}
		if err := s.cases.Create(ctx, sc); err != nil {
			return err
		}

		plan := &CarePlan{
			SurgeryCaseID: sc.ID,
			StartDate:     in.SurgeryAt.AddDate(0, 0, -7),
			EndDate:       discharge.AddDate(0, 0, 14),
		}
		if err := s.plans.Create(ctx, plan); err != nil {
			return err
		}

		items := BuildCarePlanItems(in.SurgeryAt, st, in.MedicationStopDays)
		for _, it := range items {
			it.CarePlanID = plan.ID
		}
		if err := s.items.BulkInsert(ctx, items); err != nil {
			return err
		}

		body := fmt.Sprintf("Your %s is scheduled for %s.", st.Name, in.SurgeryAt.Format("January 2, 2006 at 15:04"))
		if st.AdmissionRequired {
			body += fmt.Sprintf(" Please be admitted by %s.", admission.Format("January 2, 2006"))
		}
		if err := s.notify.Notify(ctx, in.PatientID, "Surgery scheduled", body); err != nil {
			return err
		}

		if err := s.audit.Record(ctx, "surgery_case", sc.ID, "CREATE", nil, sc); err != nil {
			return err
		}
		result = &SurgeryCaseWithPlan{Case: sc, Plan: plan, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetCase returns the case joined with its plan and items.
func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*SurgeryCaseWithPlan, error) {
	sc, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	plan, err := s.plans.GetByCaseID(ctx, sc.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	items, err := s.items.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return &SurgeryCaseWithPlan{Case: sc, Plan: plan, Items: items}, nil
}

// Reschedule moves the surgery to a new time. Only the case's date changes;
// previously generated items keep their original schedule.
// TODO: decide with the product team whether items should shift by the same
// delta — callers currently rely on absolute item times staying put.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time) (*SurgeryCase, error) {
	if newDate.IsZero() {
		return nil, fmt.Errorf("new_date is required")
	}

	var sc *SurgeryCase
	err := s.tx(ctx, func(ctx context.Context) error {
		current, err := s.cases.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCaseNotFound
			}
			return err
		}
		if current.Status == CaseCancelled {
			return ErrCaseCancelled
		}

		old := *current
		current.SurgeryAt = newDate
		if err := s.cases.Update(ctx, current); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, "surgery_case", id, "UPDATE", &old, current); err != nil {
			return err
		}
		body := fmt.Sprintf("Your surgery has been rescheduled to %s.", newDate.Format("January 2, 2006 at 15:04"))
		if err := s.notify.Notify(ctx, current.PatientID, "Surgery rescheduled", body); err != nil {
			return err
		}
		sc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// SetStatus advances the case through its lifecycle and tells the patient.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, newStatus string) (*SurgeryCase, error) {
	if !validCaseStatuses[newStatus] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCaseStatus, newStatus)
	}

	var sc *SurgeryCase
	err := s.tx(ctx, func(ctx context.Context) error {
		current, err := s.cases.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCaseNotFound
			}
			return err
		}
		if current.Status == CaseCancelled {
			return ErrCaseCancelled
		}
		if current.Status == newStatus {
			sc = current
			return nil
		}

		old := *current
		current.Status = newStatus
		if err := s.cases.Update(ctx, current); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, "surgery_case", id, "STATUS_CHANGE", &old, current); err != nil {
			return err
		}

		title, body := statusMessage(newStatus)
		if title != "" {
			if err := s.notify.Notify(ctx, current.PatientID, title, body); err != nil {
				return err
			}
		}
		sc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// statusMessage renders the patient-facing text for a surgery status change.
func statusMessage(status string) (title, body string) {
	switch status {
	case CaseAdmitted:
		return "Admission complete", "You have been admitted. Your care team will visit you shortly."
	case CaseInSurgery:
		return "Surgery in progress", "The surgery has started. Family can wait in the surgical waiting area."
	case CasePostOp:
		return "Surgery completed", "The surgery is complete. You are now in post-operative recovery."
	case CaseDischarged:
		return "Discharged", "You have been discharged. Follow your home care instructions and attend the follow-up exam."
	case CaseCancelled:
		return "Surgery cancelled", "Your scheduled surgery has been cancelled. Contact your department for details."
	default:
		return "", ""
	}
}

// -- Care plan items --

func (s *Service) ListPlanItems(ctx context.Context, planID uuid.UUID) ([]*CarePlanItem, error) {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return s.items.ListByPlan(ctx, planID)
}

func (s *Service) AddPlanItem(ctx context.Context, planID uuid.UUID, item *CarePlanItem) error {
	if item.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validCategories[item.Category] {
		return fmt.Errorf("invalid category: %s", item.Category)
	}
	if item.Priority == "" {
		item.Priority = PriorityNormal
	}
	if item.Priority != PriorityNormal && item.Priority != PriorityCritical {
		return fmt.Errorf("invalid priority: %s", item.Priority)
	}
	if item.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPlanNotFound
		}
		return err
	}
	item.CarePlanID = planID
	return s.items.Create(ctx, item)
}

func (s *Service) CompleteItem(ctx context.Context, id uuid.UUID) (*CarePlanItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if item.Completed {
		return item, nil
	}
	now := time.Now()
	item.Completed = true
	item.CompletedAt = &now
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ListCasesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SurgeryCase, int, error) {
	return s.cases.ListByPatient(ctx, patientID, limit, offset)
}

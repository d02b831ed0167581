package care

import (
	"time"

	"github.com/google/uuid"
)

// Surgery case statuses.
const (
	CaseConfirmed  = "CONFIRMED"
	CaseAdmitted   = "ADMITTED"
	CaseInSurgery  = "IN_SURGERY"
	CasePostOp     = "POST_OP"
	CaseDischarged = "DISCHARGED"
	CaseCancelled  = "CANCELLED"
)

var validCaseStatuses = map[string]bool{
	CaseConfirmed:  true,
	CaseAdmitted:   true,
	CaseInSurgery:  true,
	CasePostOp:     true,
	CaseDischarged: true,
	CaseCancelled:  true,
}

// Care item categories and priorities.
const (
	CategoryMedication = "MEDICATION"
	CategoryInjection  = "INJECTION"
	CategoryMeal       = "MEAL"
	CategoryExam       = "EXAM"
	CategoryTreatment  = "TREATMENT"
	CategoryNotice     = "NOTICE"

	PriorityNormal   = "NORMAL"
	PriorityCritical = "CRITICAL"
)

var validCategories = map[string]bool{
	CategoryMedication: true,
	CategoryInjection:  true,
	CategoryMeal:       true,
	CategoryExam:       true,
	CategoryTreatment:  true,
	CategoryNotice:     true,
}

// SurgeryType is a catalog entry: how long a procedure keeps the patient in,
// whether admission the day before is needed, and how early medication stops.
type SurgeryType struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	DefaultStayDays    int       `json:"default_stay_days" db:"default_stay_days"`
	AdmissionRequired  bool      `json:"admission_required" db:"admission_required"`
	PreOpExamRequired  bool      `json:"pre_op_exam_required" db:"pre_op_exam_required"`
	MedicationStopDays int       `json:"medication_stop_days" db:"medication_stop_days"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// SurgeryCase is one surgical episode for a patient.
type SurgeryCase struct {
	ID            uuid.UUID `json:"id" db:"id"`
	PatientID     uuid.UUID `json:"patient_id" db:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id" db:"doctor_id"`
	SurgeryTypeID uuid.UUID `json:"surgery_type_id" db:"surgery_type_id"`
	SurgeryAt     time.Time `json:"surgery_at" db:"surgery_at"`
	AdmissionDate time.Time `json:"admission_date" db:"admission_date"`
	DischargeDate time.Time `json:"discharge_date" db:"discharge_date"`
	Status        string    `json:"status" db:"status"`
	Room          *string   `json:"room,omitempty" db:"room"`
	Diagnosis     string    `json:"diagnosis" db:"diagnosis"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CarePlan owns the dated tasks of one surgical episode. Its window is wider
// than the admission window so pre-admission and follow-up items fit inside.
type CarePlan struct {
	ID            uuid.UUID `json:"id" db:"id"`
	SurgeryCaseID uuid.UUID `json:"surgery_case_id" db:"surgery_case_id"`
	StartDate     time.Time `json:"start_date" db:"start_date"`
	EndDate       time.Time `json:"end_date" db:"end_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CarePlanItem is one dated, categorized task on a plan.
type CarePlanItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CarePlanID  uuid.UUID  `json:"care_plan_id" db:"care_plan_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Category    string     `json:"category" db:"category"`
	Priority    string     `json:"priority" db:"priority"`
	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// SurgeryCaseWithPlan is what surgery registration hands back: the case, its
// plan, and every generated item.
type SurgeryCaseWithPlan struct {
	Case  *SurgeryCase    `json:"case"`
	Plan  *CarePlan       `json:"plan"`
	Items []*CarePlanItem `json:"items"`
}

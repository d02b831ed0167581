package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The two steps every journey restarts from.
const (
	stepCheckedIn  = "Checked in"
	stepWaitingFor = "Waiting for department"
)

type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	steps StepRepository
	tx    TxRunner
}

func NewService(steps StepRepository, tx TxRunner) *Service {
	return &Service{steps: steps, tx: tx}
}

// ResetJourney wipes the patient's steps for the day and starts a fresh
// journey: a completed check-in step followed by a pending waiting step.
// Check-in calls this so a patient who checks in twice sees one journey.
func (s *Service) ResetJourney(ctx context.Context, patientID uuid.UUID, day time.Time) error {
	return s.tx(ctx, func(ctx context.Context) error {
		if err := s.steps.DeleteByPatientAndDay(ctx, patientID, day); err != nil {
			return err
		}
		checkedIn := &VisitStep{
			PatientID: patientID,
			Title:     stepCheckedIn,
			Location:  "Reception",
			Sequence:  1,
			Status:    StepCompleted,
			StepDate:  day,
		}
		if err := s.steps.Create(ctx, checkedIn); err != nil {
			return err
		}
		waiting := &VisitStep{
			PatientID: patientID,
			Title:     stepWaitingFor,
			Location:  "Waiting area",
			Sequence:  2,
			Status:    StepPending,
			StepDate:  day,
		}
		return s.steps.Create(ctx, waiting)
	})
}

func (s *Service) CreateStep(ctx context.Context, step *VisitStep) error {
	if step.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if step.Title == "" {
		return fmt.Errorf("title is required")
	}
	if step.Status == "" {
		step.Status = StepPending
	}
	if !validStatuses[step.Status] {
		return fmt.Errorf("invalid step status: %s", step.Status)
	}
	if step.StepDate.IsZero() {
		step.StepDate = time.Now()
	}
	return s.steps.Create(ctx, step)
}

func (s *Service) SetStepStatus(ctx context.Context, id uuid.UUID, status string) (*VisitStep, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid step status: %s", status)
	}
	step, err := s.steps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	step.Status = status
	if err := s.steps.Update(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *Service) ListSteps(ctx context.Context, patientID uuid.UUID, day time.Time) ([]*VisitStep, error) {
	return s.steps.ListByPatientAndDay(ctx, patientID, day)
}

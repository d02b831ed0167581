package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Notify persists an in-app notification for the patient. It uses whatever
// connection or transaction the context carries, so callers that notify as
// part of a mutation get all-or-nothing behavior for free.
func (s *Service) Notify(ctx context.Context, patientID uuid.UUID, title, body string) (*Notification, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	n := &Notification{PatientID: patientID, Title: title, Body: body}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	notifications map[uuid.UUID]*Notification
}

func newMockRepo() *mockRepo {
	return &mockRepo{notifications: make(map[uuid.UUID]*Notification)}
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.notifications[n.ID] = n
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := m.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return n, nil
}

func (m *mockRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	n, ok := m.notifications[id]
	if !ok {
		return pgx.ErrNoRows
	}
	n.Read = true
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var result []*Notification
	for _, n := range m.notifications {
		if n.PatientID == patientID {
			result = append(result, n)
		}
	}
	return result, len(result), nil
}

func TestNotify(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patient := uuid.New()

	n, err := svc.Notify(context.Background(), patient, "Surgery confirmed", "Your surgery is scheduled for 2026-09-15.")
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if n.Read {
		t.Error("new notification must start unread")
	}

	items, total, err := svc.ListByPatient(context.Background(), patient, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Title != "Surgery confirmed" {
		t.Errorf("unexpected list result: total=%d items=%v", total, items)
	}
}

func TestNotify_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	if _, err := svc.Notify(context.Background(), uuid.Nil, "t", "b"); err == nil {
		t.Error("expected error for missing patient")
	}
	if _, err := svc.Notify(context.Background(), uuid.New(), "", "b"); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestMarkRead(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patient := uuid.New()

	n, err := svc.Notify(context.Background(), patient, "Reminder", "Stop medication today.")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkRead(context.Background(), n.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !repo.notifications[n.ID].Read {
		t.Error("notification not marked read")
	}

	if err := svc.MarkRead(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown notification")
	}
}

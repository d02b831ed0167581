package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carebook/carebook/internal/domain/schedule"
)

// -- Mock Repositories --

type mockApptRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockApptRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return m.GetByID(ctx, id)
}

func (m *mockApptRepo) GetByIdempotencyKey(_ context.Context, key string) (*Appointment, error) {
	for _, a := range m.appts {
		if a.IdempotencyKey == key {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockApptRepo) HasActiveForSlot(_ context.Context, slotID, patientID uuid.UUID) (bool, error) {
	for _, a := range m.appts {
		if a.SlotID == slotID && a.PatientID == patientID && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockApptRepo) ListBySlot(_ context.Context, slotID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.SlotID == slotID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockApptRepo) snapshot() map[uuid.UUID]Appointment {
	snap := make(map[uuid.UUID]Appointment, len(m.appts))
	for id, a := range m.appts {
		snap[id] = *a
	}
	return snap
}

func (m *mockApptRepo) restore(snap map[uuid.UUID]Appointment) {
	m.appts = make(map[uuid.UUID]*Appointment, len(snap))
	for id, a := range snap {
		a := a
		m.appts[id] = &a
	}
}

type mockSlotStore struct {
	slots map[uuid.UUID]*schedule.Slot
}

func newMockSlotStore() *mockSlotStore {
	return &mockSlotStore{slots: make(map[uuid.UUID]*schedule.Slot)}
}

func (m *mockSlotStore) add(s *schedule.Slot) *schedule.Slot {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.slots[s.ID] = s
	return s
}

func (m *mockSlotStore) GetByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSlotStore) IncrementBooked(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.BookedCount++
	s.Version++
	return s, nil
}

func (m *mockSlotStore) DecrementBookedAndReopen(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.BookedCount--
	s.Version++
	s.Status = schedule.SlotOpen
	return s, nil
}

func (m *mockSlotStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	s, ok := m.slots[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Status = status
	return nil
}

func (m *mockSlotStore) snapshot() map[uuid.UUID]schedule.Slot {
	snap := make(map[uuid.UUID]schedule.Slot, len(m.slots))
	for id, s := range m.slots {
		snap[id] = *s
	}
	return snap
}

func (m *mockSlotStore) restore(snap map[uuid.UUID]schedule.Slot) {
	for id := range m.slots {
		if _, ok := snap[id]; !ok {
			delete(m.slots, id)
		}
	}
	for id, s := range snap {
		if cur, ok := m.slots[id]; ok {
			*cur = s
		} else {
			s := s
			m.slots[id] = &s
		}
	}
}

type auditEntry struct {
	Table    string
	EntityID uuid.UUID
	Action   string
}

type mockAudit struct {
	entries []auditEntry
}

func (m *mockAudit) Record(_ context.Context, table string, entityID uuid.UUID, action string, _, _ any) error {
	m.entries = append(m.entries, auditEntry{Table: table, EntityID: entityID, Action: action})
	return nil
}

type mockVisits struct {
	resets []uuid.UUID
}

func (m *mockVisits) ResetJourney(_ context.Context, patientID uuid.UUID, _ time.Time) error {
	m.resets = append(m.resets, patientID)
	return nil
}

// txHarness emulates the serializing behavior of the real transaction: each
// fn runs exclusively, and on error every store is restored to its state at
// the start of the fn.
type txHarness struct {
	mu     sync.Mutex
	appts  *mockApptRepo
	slots  *mockSlotStore
	audit  *mockAudit
	visits *mockVisits
}

func (h *txHarness) run(ctx context.Context, fn func(ctx context.Context) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	apptSnap := h.appts.snapshot()
	slotSnap := h.slots.snapshot()
	auditSnap := len(h.audit.entries)
	visitSnap := len(h.visits.resets)

	if err := fn(ctx); err != nil {
		h.appts.restore(apptSnap)
		h.slots.restore(slotSnap)
		h.audit.entries = h.audit.entries[:auditSnap]
		h.visits.resets = h.visits.resets[:visitSnap]
		return err
	}
	return nil
}

type fixture struct {
	svc    *Service
	appts  *mockApptRepo
	slots  *mockSlotStore
	audit  *mockAudit
	visits *mockVisits
}

func newFixture() *fixture {
	f := &fixture{
		appts:  newMockApptRepo(),
		slots:  newMockSlotStore(),
		audit:  &mockAudit{},
		visits: &mockVisits{},
	}
	h := &txHarness{appts: f.appts, slots: f.slots, audit: f.audit, visits: f.visits}
	f.svc = NewService(f.appts, f.slots, f.visits, f.audit, h.run)
	return f
}

func (f *fixture) openSlot(capacity int) *schedule.Slot {
	return f.slots.add(&schedule.Slot{
		DepartmentID: uuid.New(),
		StartTime:    time.Now().Add(24 * time.Hour),
		EndTime:      time.Now().Add(24*time.Hour + 30*time.Minute),
		Capacity:     capacity,
		Status:       schedule.SlotOpen,
	})
}

func pastSlot() *schedule.Slot {
	return &schedule.Slot{
		DepartmentID: uuid.New(),
		StartTime:    time.Now().Add(-1 * time.Hour),
		EndTime:      time.Now().Add(-30 * time.Minute),
		Capacity:     5,
		Status:       schedule.SlotOpen,
	}
}

// -- Book --

func TestBook(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(3)
	patient := uuid.New()

	appt, err := f.svc.Book(context.Background(), slot.ID, patient, "key-1")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if appt.Status != StatusBooked {
		t.Errorf("status = %s, want %s", appt.Status, StatusBooked)
	}
	if slot.BookedCount != 1 {
		t.Errorf("booked_count = %d, want 1", slot.BookedCount)
	}
	if slot.Status != schedule.SlotOpen {
		t.Errorf("slot below capacity should stay open, got %s", slot.Status)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "CREATE" {
		t.Errorf("expected one CREATE audit entry, got %v", f.audit.entries)
	}
}

func TestBook_LastPlaceFlipsFull(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(1)

	if _, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1"); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if slot.Status != schedule.SlotFull {
		t.Errorf("slot at capacity should be FULL, got %s", slot.Status)
	}
}

func TestBook_SlotNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Book(context.Background(), uuid.New(), uuid.New(), "key-1")
	if !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestBook_PastSlot(t *testing.T) {
	f := newFixture()
	slot := f.slots.add(&schedule.Slot{
		StartTime: time.Now().Add(-1 * time.Hour),
		Capacity:  5,
		Status:    schedule.SlotOpen,
	})

	_, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1")
	if !errors.Is(err, ErrSlotInPast) {
		t.Errorf("expected ErrSlotInPast, got %v", err)
	}
	if slot.BookedCount != 0 {
		t.Errorf("failed booking must not consume capacity, booked_count = %d", slot.BookedCount)
	}
}

func TestBook_MissingIdempotencyKey(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(1)
	_, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "")
	if !errors.Is(err, ErrMissingIdempotencyKey) {
		t.Errorf("expected ErrMissingIdempotencyKey, got %v", err)
	}
}

func TestBook_IdempotentRetry(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(3)
	patient := uuid.New()

	first, err := f.svc.Book(context.Background(), slot.ID, patient, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Book(context.Background(), slot.ID, patient, "key-1")
	if err != nil {
		t.Fatalf("retry with same key must succeed, got %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("retry returned a different appointment: %s vs %s", first.ID, second.ID)
	}
	if slot.BookedCount != 1 {
		t.Errorf("retry must not consume capacity again, booked_count = %d", slot.BookedCount)
	}
	if len(f.audit.entries) != 1 {
		t.Errorf("retry must not write a second audit entry, got %d", len(f.audit.entries))
	}
}

func TestBook_DuplicatePatient(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(5)
	patient := uuid.New()

	if _, err := f.svc.Book(context.Background(), slot.ID, patient, "key-1"); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Book(context.Background(), slot.ID, patient, "key-2")
	if !errors.Is(err, ErrDuplicateBooking) {
		t.Errorf("expected ErrDuplicateBooking, got %v", err)
	}
	if slot.BookedCount != 1 {
		t.Errorf("booked_count = %d, want 1", slot.BookedCount)
	}
}

func TestBook_FullSlotRejected(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(1)

	if _, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1"); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-2")
	if !errors.Is(err, ErrSlotFull) {
		t.Errorf("expected ErrSlotFull, got %v", err)
	}
	if slot.BookedCount != 1 {
		t.Errorf("rejected booking must roll back its increment, booked_count = %d", slot.BookedCount)
	}
	if len(f.audit.entries) != 1 {
		t.Errorf("rolled-back booking must leave no audit entry, got %d entries", len(f.audit.entries))
	}
}

func TestBook_ClosedSlotRejected(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(5)
	slot.Status = schedule.SlotClosed

	_, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1")
	if !errors.Is(err, ErrSlotNotOpen) {
		t.Errorf("expected ErrSlotNotOpen, got %v", err)
	}
	if slot.BookedCount != 0 {
		t.Errorf("booked_count = %d, want 0", slot.BookedCount)
	}
}

func TestBook_ConcurrentNoOverbooking(t *testing.T) {
	const capacity = 5
	const requests = 20

	f := newFixture()
	slot := f.openSlot(capacity)

	var wg sync.WaitGroup
	results := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), uuid.NewString())
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var won, full int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotFull):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != capacity {
		t.Errorf("winners = %d, want exactly %d", won, capacity)
	}
	if full != requests-capacity {
		t.Errorf("rejections = %d, want %d", full, requests-capacity)
	}
	if slot.BookedCount != capacity {
		t.Errorf("booked_count = %d, want %d", slot.BookedCount, capacity)
	}
	if slot.Status != schedule.SlotFull {
		t.Errorf("slot status = %s, want %s", slot.Status, schedule.SlotFull)
	}
	if len(f.audit.entries) != capacity {
		t.Errorf("audit entries = %d, want one per successful booking (%d)", len(f.audit.entries), capacity)
	}
}

// -- SetStatus --

func TestSetStatus_CancelReopensSlot(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(1)
	appt, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if slot.Status != schedule.SlotFull {
		t.Fatalf("precondition: slot should be FULL")
	}

	reason := "patient request"
	updated, err := f.svc.SetStatus(context.Background(), appt.ID, StatusCancelled, &reason)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", updated.Status, StatusCancelled)
	}
	if slot.BookedCount != 0 {
		t.Errorf("cancel must release the place, booked_count = %d", slot.BookedCount)
	}
	if slot.Status != schedule.SlotOpen {
		t.Errorf("cancel must reopen the slot, status = %s", slot.Status)
	}
	if len(f.audit.entries) != 2 || f.audit.entries[1].Action != "STATUS_CHANGE" {
		t.Errorf("expected STATUS_CHANGE audit entry, got %v", f.audit.entries)
	}
}

func TestSetStatus_CancelledPlaceCanBeRebooked(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(1)
	patient := uuid.New()

	appt, err := f.svc.Book(context.Background(), slot.ID, patient, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SetStatus(context.Background(), appt.ID, StatusCancelled, nil); err != nil {
		t.Fatal(err)
	}

	// Same patient again: the cancelled row must not count as a duplicate.
	if _, err := f.svc.Book(context.Background(), slot.ID, patient, "key-2"); err != nil {
		t.Errorf("rebooking a freed place failed: %v", err)
	}
	if slot.BookedCount != 1 {
		t.Errorf("booked_count = %d, want 1", slot.BookedCount)
	}
}

func TestSetStatus_DoubleCancel(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(2)
	appt, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.SetStatus(context.Background(), appt.ID, StatusCancelled, nil); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.SetStatus(context.Background(), appt.ID, StatusCancelled, nil)
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("expected ErrAlreadyCancelled, got %v", err)
	}
	if slot.BookedCount != 0 {
		t.Errorf("double cancel must not decrement twice, booked_count = %d", slot.BookedCount)
	}
}

func TestSetStatus_CheckInResetsJourney(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(2)
	patient := uuid.New()
	appt, err := f.svc.Book(context.Background(), slot.ID, patient, "key-1")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.SetStatus(context.Background(), appt.ID, StatusCheckedIn, nil)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if updated.Status != StatusCheckedIn {
		t.Errorf("status = %s, want %s", updated.Status, StatusCheckedIn)
	}
	if len(f.visits.resets) != 1 || f.visits.resets[0] != patient {
		t.Errorf("check-in must reset the patient's journey, resets = %v", f.visits.resets)
	}
	if slot.BookedCount != 1 {
		t.Errorf("check-in must not touch the slot counter, booked_count = %d", slot.BookedCount)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SetStatus(context.Background(), uuid.New(), StatusCancelled, nil)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestSetStatus_InvalidTarget(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(1)
	appt, err := f.svc.Book(context.Background(), slot.ID, uuid.New(), "key-1")
	if err != nil {
		t.Fatal(err)
	}

	for _, status := range []string{"DONE", "", StatusBooked} {
		if _, err := f.svc.SetStatus(context.Background(), appt.ID, status, nil); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("status %q: expected ErrInvalidStatus, got %v", status, err)
		}
	}
}

package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Slot statuses.
const (
	SlotOpen   = "OPEN"
	SlotFull   = "FULL"
	SlotClosed = "CLOSED"
)

// ScheduleRule defines the operating hours for one department on one day of
// the week: opening window, optional break window, slot length, and how many
// patients each slot can take. The slot generator expands rules into slots.
type ScheduleRule struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	DepartmentID    uuid.UUID  `db:"department_id" json:"department_id"`
	DoctorID        *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	DayOfWeek       int        `db:"day_of_week" json:"day_of_week"` // 0 = Sunday, per time.Weekday
	StartTime       string     `db:"start_time" json:"start_time"`   // "HH:MM"
	EndTime         string     `db:"end_time" json:"end_time"`
	BreakStart      *string    `db:"break_start" json:"break_start,omitempty"`
	BreakEnd        *string    `db:"break_end" json:"break_end,omitempty"`
	SlotDurationMin int        `db:"slot_duration_min" json:"slot_duration_min"`
	CapacityPerSlot int        `db:"capacity_per_slot" json:"capacity_per_slot"`
	IsHoliday       bool       `db:"is_holiday" json:"is_holiday"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Slot is one bookable time window for a department, optionally narrowed to
// one doctor. BookedCount is owned by the booking engine and only ever moves
// inside a transaction that re-validates 0 <= booked_count <= capacity.
type Slot struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	DepartmentID uuid.UUID  `db:"department_id" json:"department_id"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      time.Time  `db:"end_time" json:"end_time"`
	Capacity     int        `db:"capacity" json:"capacity"`
	BookedCount  int        `db:"booked_count" json:"booked_count"`
	Status       string     `db:"status" json:"status"`
	Version      int        `db:"version" json:"version"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// HasCapacity reports whether the slot can accept another booking.
func (s *Slot) HasCapacity() bool {
	return s.Status == SlotOpen && s.BookedCount < s.Capacity
}

package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the scheduling service.
var (
	ErrRuleNotFound   = errors.New("schedule rule not found")
	ErrInvalidWindow  = errors.New("end_time must be after start_time")
	ErrInvalidBreak   = errors.New("break window must fall inside the operating window")
	ErrInvalidDayTime = errors.New("time must be in HH:MM format")
)

// TxRunner executes fn inside a single database transaction. Any error from
// fn rolls the transaction back.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	rules RuleRepository
	slots SlotRepository
	tx    TxRunner
}

func NewService(rules RuleRepository, slots SlotRepository, tx TxRunner) *Service {
	return &Service{rules: rules, slots: slots, tx: tx}
}

// -- Rules --

func (s *Service) CreateRule(ctx context.Context, r *ScheduleRule) error {
	if r.DepartmentID == uuid.Nil {
		return fmt.Errorf("department_id is required")
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	if r.SlotDurationMin <= 0 {
		return fmt.Errorf("slot_duration_min must be positive")
	}
	if r.CapacityPerSlot <= 0 {
		return fmt.Errorf("capacity_per_slot must be positive")
	}
	start, err := parseDayTime(r.StartTime)
	if err != nil {
		return err
	}
	end, err := parseDayTime(r.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return ErrInvalidWindow
	}
	if (r.BreakStart == nil) != (r.BreakEnd == nil) {
		return fmt.Errorf("break_start and break_end must be set together")
	}
	if r.BreakStart != nil {
		bs, err := parseDayTime(*r.BreakStart)
		if err != nil {
			return err
		}
		be, err := parseDayTime(*r.BreakEnd)
		if err != nil {
			return err
		}
		if be <= bs || bs < start || be > end {
			return ErrInvalidBreak
		}
	}
	return s.rules.Create(ctx, r)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*ScheduleRule, error) {
	return s.rules.GetByID(ctx, id)
}

func (s *Service) UpdateRule(ctx context.Context, r *ScheduleRule) error {
	return s.rules.Update(ctx, r)
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.rules.Delete(ctx, id)
}

func (s *Service) ListRulesByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*ScheduleRule, int, error) {
	return s.rules.ListByDepartment(ctx, departmentID, limit, offset)
}

// -- Slot generation --

// GenerateSlots expands the schedule rule for (department, weekday of day)
// into discrete slots and stores them, replacing any slots previously
// generated for that day. Re-running generation for the same day always
// yields the same slot set. Days with no rule, and holidays, generate
// nothing; that is not an error.
func (s *Service) GenerateSlots(ctx context.Context, departmentID uuid.UUID, day time.Time, doctorID *uuid.UUID) (int, error) {
	if departmentID == uuid.Nil {
		return 0, fmt.Errorf("department_id is required")
	}

	rule, err := s.rules.GetForDay(ctx, departmentID, doctorID, int(day.Weekday()))
	if err != nil {
		return 0, err
	}
	if rule == nil || rule.IsHoliday {
		return 0, nil
	}

	slots, err := ExpandRule(rule, day)
	if err != nil {
		return 0, err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.slots.DeleteByDay(ctx, departmentID, doctorID, day); err != nil {
			return err
		}
		return s.slots.BulkInsert(ctx, slots)
	})
	if err != nil {
		return 0, err
	}
	return len(slots), nil
}

// ExpandRule walks the rule's operating window in slot-duration steps and
// returns one slot per step, skipping steps that fall wholly inside the break
// window. Pure: the result depends only on the rule and the day.
func ExpandRule(rule *ScheduleRule, day time.Time) ([]*Slot, error) {
	start, err := parseDayTime(rule.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseDayTime(rule.EndTime)
	if err != nil {
		return nil, err
	}

	var breakStart, breakEnd time.Duration
	hasBreak := rule.BreakStart != nil && rule.BreakEnd != nil
	if hasBreak {
		bs, err := parseDayTime(*rule.BreakStart)
		if err != nil {
			return nil, err
		}
		be, err := parseDayTime(*rule.BreakEnd)
		if err != nil {
			return nil, err
		}
		breakStart, breakEnd = bs, be
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	step := time.Duration(rule.SlotDurationMin) * time.Minute

	var slots []*Slot
	for at := start; at+step <= end; at += step {
		if hasBreak && at >= breakStart && at+step <= breakEnd {
			continue
		}
		slots = append(slots, &Slot{
			DepartmentID: rule.DepartmentID,
			DoctorID:     rule.DoctorID,
			StartTime:    midnight.Add(at),
			EndTime:      midnight.Add(at + step),
			Capacity:     rule.CapacityPerSlot,
			BookedCount:  0,
			Status:       SlotOpen,
		})
	}
	return slots, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, departmentID uuid.UUID, doctorID *uuid.UUID, day time.Time, limit, offset int) ([]*Slot, int, error) {
	return s.slots.ListByDay(ctx, departmentID, doctorID, day, limit, offset)
}

// parseDayTime parses "HH:MM" into an offset from midnight.
func parseDayTime(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDayTime, v)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

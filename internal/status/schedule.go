package status

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// ScheduleFunc reports whether the market is in a known closed window at t, with a reason.
type ScheduleFunc func(t time.Time) (closed bool, reason string)

// Schedule describes the weekly trading calendar of the instrument's home exchange.
// Minute values count from local midnight in Location.
type Schedule struct {
	Location               *time.Location
	WeekOpenMinute         int // Sunday open
	WeekCloseMinute        int // Friday close
	MaintenanceStartMinute int
	MaintenanceEndMinute   int
}

// DefaultSchedule is the spot gold calendar: Sunday 18:00 to Friday 17:00 New York time,
// with a daily break 17:00-18:00.
func DefaultSchedule() Schedule {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return Schedule{
		Location:               loc,
		WeekOpenMinute:         18 * 60,
		WeekCloseMinute:        17 * 60,
		MaintenanceStartMinute: 17 * 60,
		MaintenanceEndMinute:   18 * 60,
	}
}

// NewSchedule builds a schedule for the named timezone.
func NewSchedule(tz string, openMin, closeMin, maintStart, maintEnd int) (Schedule, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Schedule{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return Schedule{
		Location:               loc,
		WeekOpenMinute:         openMin,
		WeekCloseMinute:        closeMin,
		MaintenanceStartMinute: maintStart,
		MaintenanceEndMinute:   maintEnd,
	}, nil
}

// IsClosed evaluates the calendar in the reference timezone.
func (s Schedule) IsClosed(t time.Time) (bool, string) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	minute := local.Hour()*60 + local.Minute()

	switch local.Weekday() {
	case time.Saturday:
		return true, "weekend closure"
	case time.Sunday:
		if minute < s.WeekOpenMinute {
			return true, "before weekly open"
		}
	case time.Friday:
		if minute >= s.WeekCloseMinute {
			return true, "after weekly close"
		}
	}
	if s.MaintenanceStartMinute < s.MaintenanceEndMinute &&
		minute >= s.MaintenanceStartMinute && minute < s.MaintenanceEndMinute {
		return true, "daily maintenance break"
	}
	return false, ""
}

// Func adapts the schedule to a ScheduleFunc.
func (s Schedule) Func() ScheduleFunc { return s.IsClosed }

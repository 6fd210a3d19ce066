// Package cycle computes positions inside the fixed-length daily investment
// cycle and groups them into calendar months. Every function is pure: the
// current instant is always passed in.
//
// Dates are compared as calendar dates in the location of each time value, so
// callers should express epoch and now in the same location.
package cycle

import (
	"math"
	"time"
)

// DefaultTotalDays is five years of daily contributions (2025-04-01 to 2030-03-31).
const DefaultTotalDays = 1826

// Status of the cycle as a whole
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusActive     Status = "ACTIVE"
	StatusCompleted  Status = "COMPLETED"
)

// DayStatus is the single classification of a calendar cell.
// Precedence, highest first: out-of-cycle, today, confirmed, due, future.
type DayStatus string

const (
	DayOutOfCycle DayStatus = "OUT_OF_CYCLE"
	DayToday      DayStatus = "TODAY"
	DayConfirmed  DayStatus = "CONFIRMED"
	DayDue        DayStatus = "DUE"
	DayFuture     DayStatus = "FUTURE"
)

// DaySet is a set of confirmed successful cycle day indices
type DaySet map[int]struct{}

// NewDaySet builds a DaySet from a list, dropping duplicates.
func NewDaySet(days []int) DaySet {
	set := make(DaySet, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

// Has reports whether day is in the set
func (s DaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

// DayCell is one day-of-month in a MonthGrid
type DayCell struct {
	Day          int       `json:"day"`
	Date         string    `json:"date"`
	CycleDay     int       `json:"cycle_day"` // 0 when out of cycle
	Status       DayStatus `json:"status"`
	InCycle      bool      `json:"in_cycle"`
	IsToday      bool      `json:"is_today"`
	IsConfirmed  bool      `json:"is_confirmed"`
	IsInvestable bool      `json:"is_investable"`
}

// MonthGrid is a calendar month projected onto the cycle
type MonthGrid struct {
	Year               int        `json:"year"`
	Month              time.Month `json:"month"`
	FirstWeekdayOffset int        `json:"first_weekday_offset"` // Monday = 0
	DaysInMonth        int        `json:"days_in_month"`
	Days               []DayCell  `json:"days"`
}

// YearMonth identifies a calendar month
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Summary aggregates the cycle position against confirmed days
type Summary struct {
	Status          Status  `json:"status"`
	CurrentDayIndex int     `json:"current_day_index"`
	TotalDays       int     `json:"total_days"`
	ElapsedDays     int     `json:"elapsed_days"`
	ConfirmedDays   int     `json:"confirmed_days"`
	DueUnconfirmed  int     `json:"due_unconfirmed"`
	RemainingDays   int     `json:"remaining_days"`
	ProgressPercent float64 `json:"progress_percent"`
}

// CurrentDayIndex returns the 1-based cycle day of now, clamped to [1, totalDays].
// Before the epoch the result is 1 and only informational; use CycleStatus to
// tell a not-started cycle apart from day 1.
func CurrentDayIndex(epoch, now time.Time, totalDays int) int {
	return clamp(rawDayIndex(epoch, now), 1, totalDays)
}

// CycleStatus reports whether now is before, inside or after the cycle.
func CycleStatus(epoch, now time.Time, totalDays int) Status {
	raw := rawDayIndex(epoch, now)
	switch {
	case raw < 1:
		return StatusNotStarted
	case raw > totalDays:
		return StatusCompleted
	default:
		return StatusActive
	}
}

// BuildMonthGrid projects a calendar month onto the cycle.
func BuildMonthGrid(year int, month time.Month, epoch, now time.Time, totalDays int, successful DaySet) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	todayIndex := rawDayIndex(epoch, now)

	grid := MonthGrid{
		Year:               first.Year(),
		Month:              first.Month(),
		FirstWeekdayOffset: (int(first.Weekday()) + 6) % 7,
		DaysInMonth:        daysInMonth,
		Days:               make([]DayCell, 0, daysInMonth),
	}

	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
		index := daysBetween(epoch, date) + 1
		inCycle := index >= 1 && index <= totalDays

		cell := DayCell{
			Day:     d,
			Date:    date.Format("2006-01-02"),
			InCycle: inCycle,
		}
		if inCycle {
			cell.CycleDay = index
			cell.IsConfirmed = successful.Has(index)
			cell.IsInvestable = index <= todayIndex && !cell.IsConfirmed
		}
		cell.Status = classify(index, todayIndex, totalDays, cell.IsConfirmed)
		cell.IsToday = cell.Status == DayToday

		grid.Days = append(grid.Days, cell)
	}

	return grid
}

// MonthRange returns the first and last months that contain cycle days.
func MonthRange(epoch time.Time, totalDays int) (YearMonth, YearMonth) {
	start := dateOnly(epoch)
	end := start.AddDate(0, 0, totalDays-1)
	return YearMonth{Year: start.Year(), Month: start.Month()},
		YearMonth{Year: end.Year(), Month: end.Month()}
}

// Summarize counts confirmed and due days up to now.
// Indices outside [1, totalDays] in successful are ignored.
func Summarize(epoch, now time.Time, totalDays int, successful DaySet) Summary {
	raw := rawDayIndex(epoch, now)
	elapsed := clamp(raw, 0, totalDays)

	confirmed := 0
	confirmedElapsed := 0
	for day := range successful {
		if day < 1 || day > totalDays {
			continue
		}
		confirmed++
		if day <= elapsed {
			confirmedElapsed++
		}
	}

	progress := 0.0
	if totalDays > 0 {
		progress = math.Round(float64(confirmed)/float64(totalDays)*10000) / 100
	}

	return Summary{
		Status:          CycleStatus(epoch, now, totalDays),
		CurrentDayIndex: CurrentDayIndex(epoch, now, totalDays),
		TotalDays:       totalDays,
		ElapsedDays:     elapsed,
		ConfirmedDays:   confirmed,
		DueUnconfirmed:  elapsed - confirmedElapsed,
		RemainingDays:   totalDays - elapsed,
		ProgressPercent: progress,
	}
}

func classify(index, todayIndex, totalDays int, confirmed bool) DayStatus {
	switch {
	case index < 1 || index > totalDays:
		return DayOutOfCycle
	case index == todayIndex:
		return DayToday
	case confirmed:
		return DayConfirmed
	case index < todayIndex:
		return DayDue
	default:
		return DayFuture
	}
}

// rawDayIndex is the unclamped 1-based index of now; <1 before the epoch
func rawDayIndex(epoch, now time.Time) int {
	return daysBetween(epoch, now) + 1
}

// daysBetween counts calendar days from a to b, negative when b precedes a.
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package services

import (
	"time"

	"gie-wallet/internal/core/cycle"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/clock"
)

// CycleSettings fixes the investment cycle for the whole process
type CycleSettings struct {
	Epoch     time.Time
	TotalDays int
	Location  *time.Location
}

// CalendarService evaluates the cycle against the clock
type CalendarService struct {
	settings CycleSettings
	clock    clock.Clock
}

// NewCalendarService creates a calendar service.
// The epoch is normalized to midnight in the cycle location.
func NewCalendarService(settings CycleSettings, c clock.Clock) *CalendarService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.TotalDays <= 0 {
		settings.TotalDays = cycle.DefaultTotalDays
	}
	if c == nil {
		c = clock.Real{}
	}
	y, m, d := settings.Epoch.Date()
	settings.Epoch = time.Date(y, m, d, 0, 0, 0, 0, settings.Location)

	return &CalendarService{settings: settings, clock: c}
}

// Settings returns the normalized cycle settings
func (s *CalendarService) Settings() CycleSettings {
	return s.settings
}

// Now returns the current instant in the cycle location
func (s *CalendarService) Now() time.Time {
	return s.clock.Now().In(s.settings.Location)
}

// CurrentDayIndex returns today's clamped cycle day
func (s *CalendarService) CurrentDayIndex() int {
	return cycle.CurrentDayIndex(s.settings.Epoch, s.Now(), s.settings.TotalDays)
}

// Status returns whether the cycle has started or completed
func (s *CalendarService) Status() cycle.Status {
	return cycle.CycleStatus(s.settings.Epoch, s.Now(), s.settings.TotalDays)
}

// BuildMonthGrid projects a month onto the cycle for a GIE's successful days
func (s *CalendarService) BuildMonthGrid(year int, month time.Month, successfulDays []int) (cycle.MonthGrid, error) {
	if month < time.January || month > time.December || year < 1 || year > 9999 {
		return cycle.MonthGrid{}, domain.ErrInvalidMonth
	}
	return cycle.BuildMonthGrid(year, month, s.settings.Epoch, s.Now(), s.settings.TotalDays, cycle.NewDaySet(successfulDays)), nil
}

// Summary aggregates the GIE's progress through the cycle
func (s *CalendarService) Summary(successfulDays []int) cycle.Summary {
	return cycle.Summarize(s.settings.Epoch, s.Now(), s.settings.TotalDays, cycle.NewDaySet(successfulDays))
}

// MonthRange returns the first and last months containing cycle days
func (s *CalendarService) MonthRange() (cycle.YearMonth, cycle.YearMonth) {
	return cycle.MonthRange(s.settings.Epoch, s.settings.TotalDays)
}

// CurrentMonth returns the month of today in the cycle location
func (s *CalendarService) CurrentMonth() cycle.YearMonth {
	now := s.Now()
	return cycle.YearMonth{Year: now.Year(), Month: now.Month()}
}

package cycle

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

func TestCurrentDayIndex(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"epoch day", epoch, 1},
		{"epoch day evening", time.Date(2025, time.April, 1, 23, 59, 0, 0, time.UTC), 1},
		{"thirteenth day", time.Date(2025, time.April, 13, 8, 0, 0, 0, time.UTC), 13},
		{"one day before epoch", epoch.AddDate(0, 0, -1), 1},
		{"one year before epoch", epoch.AddDate(-1, 0, 0), 1},
		{"last cycle day", time.Date(2030, time.March, 31, 12, 0, 0, 0, time.UTC), 1826},
		{"after cycle", time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC), 1826},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentDayIndex(epoch, tt.now, DefaultTotalDays); got != tt.want {
				t.Fatalf("CurrentDayIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentDayIndexMatchesFloorAndIsMonotonic(t *testing.T) {
	prev := 0
	for h := 0; h < 24*400; h += 7 {
		now := epoch.Add(time.Duration(h) * time.Hour)
		got := CurrentDayIndex(epoch, now, DefaultTotalDays)
		want := int(now.Sub(epoch).Hours()/24) + 1
		if got != want {
			t.Fatalf("at +%dh: got %d, want %d", h, got, want)
		}
		if got < prev {
			t.Fatalf("index decreased from %d to %d at +%dh", prev, got, h)
		}
		prev = got
	}
}

func TestCurrentDayIndexClampsToTotalDays(t *testing.T) {
	now := epoch.AddDate(0, 0, 50)
	if got := CurrentDayIndex(epoch, now, 10); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
}

func TestCycleStatus(t *testing.T) {
	if got := CycleStatus(epoch, epoch.AddDate(0, 0, -1), DefaultTotalDays); got != StatusNotStarted {
		t.Fatalf("before epoch: got %s", got)
	}
	if got := CycleStatus(epoch, epoch, DefaultTotalDays); got != StatusActive {
		t.Fatalf("on epoch: got %s", got)
	}
	if got := CycleStatus(epoch, epoch.AddDate(0, 0, DefaultTotalDays), DefaultTotalDays); got != StatusCompleted {
		t.Fatalf("after last day: got %s", got)
	}
}

func TestBuildMonthGridClassification(t *testing.T) {
	now := time.Date(2025, time.April, 13, 10, 0, 0, 0, time.UTC)
	successful := NewDaySet([]int{1, 2, 5, 13, 20})

	grid := BuildMonthGrid(2025, time.April, epoch, now, DefaultTotalDays, successful)

	if grid.FirstWeekdayOffset != 1 {
		t.Fatalf("FirstWeekdayOffset = %d, want 1 (Tuesday)", grid.FirstWeekdayOffset)
	}
	if grid.DaysInMonth != 30 || len(grid.Days) != 30 {
		t.Fatalf("DaysInMonth = %d, cells = %d", grid.DaysInMonth, len(grid.Days))
	}

	want := map[int]DayStatus{
		1:  DayConfirmed,
		3:  DayDue,
		12: DayDue,
		13: DayToday,
		14: DayFuture,
		20: DayConfirmed,
		30: DayFuture,
	}
	for day, status := range want {
		cell := grid.Days[day-1]
		if cell.Status != status {
			t.Errorf("day %d: status %s, want %s", day, cell.Status, status)
		}
		if cell.CycleDay != day {
			t.Errorf("day %d: cycle day %d", day, cell.CycleDay)
		}
	}

	today := grid.Days[12]
	if !today.IsToday || !today.IsConfirmed || today.IsInvestable {
		t.Fatalf("today cell flags wrong: %+v", today)
	}
	if !grid.Days[2].IsInvestable {
		t.Fatalf("day 3 should be investable")
	}
	if grid.Days[13].IsInvestable {
		t.Fatalf("day 14 is in the future and not investable")
	}
}

func TestBuildMonthGridExactlyOneToday(t *testing.T) {
	now := time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)
	grid := BuildMonthGrid(2025, time.June, epoch, now, DefaultTotalDays, NewDaySet(nil))

	count := 0
	for _, cell := range grid.Days {
		if cell.IsToday {
			count++
			if cell.Day != 9 {
				t.Fatalf("today on day %d", cell.Day)
			}
		}
	}
	if count != 1 {
		t.Fatalf("today cells = %d, want 1", count)
	}
}

func TestBuildMonthGridNoTodayOutsideCycle(t *testing.T) {
	before := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	for _, cell := range BuildMonthGrid(2025, time.April, epoch, before, DefaultTotalDays, nil).Days {
		if cell.IsToday {
			t.Fatalf("day %d marked today before the cycle started", cell.Day)
		}
		if cell.Status != DayFuture {
			t.Fatalf("day %d: status %s before start, want FUTURE", cell.Day, cell.Status)
		}
		if cell.IsInvestable {
			t.Fatalf("day %d investable before the cycle started", cell.Day)
		}
	}

	after := time.Date(2030, time.April, 2, 0, 0, 0, 0, time.UTC)
	for _, cell := range BuildMonthGrid(2030, time.March, epoch, after, DefaultTotalDays, nil).Days {
		if cell.IsToday {
			t.Fatalf("day %d marked today after the cycle completed", cell.Day)
		}
		if cell.Status != DayDue {
			t.Fatalf("day %d: status %s after completion, want DUE", cell.Day, cell.Status)
		}
	}
}

func TestBuildMonthGridBoundaryMonths(t *testing.T) {
	now := time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC)

	march := BuildMonthGrid(2025, time.March, epoch, now, DefaultTotalDays, nil)
	if march.FirstWeekdayOffset != 5 {
		t.Fatalf("March 2025 offset = %d, want 5 (Saturday)", march.FirstWeekdayOffset)
	}
	for _, cell := range march.Days {
		if cell.Status != DayOutOfCycle || cell.InCycle || cell.CycleDay != 0 {
			t.Fatalf("March day %d should be out of cycle: %+v", cell.Day, cell)
		}
	}

	short := BuildMonthGrid(2025, time.April, epoch, now, 10, nil)
	for _, cell := range short.Days {
		if cell.Day <= 10 && !cell.InCycle {
			t.Fatalf("day %d should be in a 10-day cycle", cell.Day)
		}
		if cell.Day > 10 && cell.Status != DayOutOfCycle {
			t.Fatalf("day %d should be out of a 10-day cycle, got %s", cell.Day, cell.Status)
		}
	}

	midMonthEpoch := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	mid := BuildMonthGrid(2025, time.April, midMonthEpoch, now, DefaultTotalDays, nil)
	if mid.Days[13].InCycle || !mid.Days[14].InCycle || mid.Days[14].CycleDay != 1 {
		t.Fatalf("partial epoch month wrong: day14=%+v day15=%+v", mid.Days[13], mid.Days[14])
	}

	last := BuildMonthGrid(2030, time.March, epoch, now, DefaultTotalDays, nil)
	if got := last.Days[30].CycleDay; got != DefaultTotalDays {
		t.Fatalf("2030-03-31 cycle day = %d, want %d", got, DefaultTotalDays)
	}
	if BuildMonthGrid(2030, time.April, epoch, now, DefaultTotalDays, nil).Days[0].InCycle {
		t.Fatalf("2030-04-01 should be out of cycle")
	}
}

func TestBuildMonthGridEveryCellHasOneStatus(t *testing.T) {
	now := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	successful := NewDaySet([]int{300, 310, 316, 320})
	first, last := MonthRange(epoch, DefaultTotalDays)

	ym := first
	for {
		grid := BuildMonthGrid(ym.Year, ym.Month, epoch, now, DefaultTotalDays, successful)
		for _, cell := range grid.Days {
			switch cell.Status {
			case DayOutOfCycle, DayToday, DayConfirmed, DayDue, DayFuture:
			default:
				t.Fatalf("%s has no status", cell.Date)
			}
		}
		if ym == last {
			break
		}
		next := time.Date(ym.Year, ym.Month+1, 1, 0, 0, 0, 0, time.UTC)
		ym = YearMonth{Year: next.Year(), Month: next.Month()}
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(epoch, DefaultTotalDays)
	if first != (YearMonth{2025, time.April}) {
		t.Fatalf("first = %+v", first)
	}
	if last != (YearMonth{2030, time.March}) {
		t.Fatalf("last = %+v", last)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, time.April, 13, 9, 0, 0, 0, time.UTC)
	successful := NewDaySet([]int{1, 2, 5, 13, 20, 0, 5000})

	s := Summarize(epoch, now, DefaultTotalDays, successful)

	if s.Status != StatusActive || s.CurrentDayIndex != 13 {
		t.Fatalf("status %s index %d", s.Status, s.CurrentDayIndex)
	}
	if s.ConfirmedDays != 5 {
		t.Fatalf("ConfirmedDays = %d, want 5", s.ConfirmedDays)
	}
	if s.ElapsedDays != 13 || s.DueUnconfirmed != 9 {
		t.Fatalf("elapsed %d due %d, want 13 and 9", s.ElapsedDays, s.DueUnconfirmed)
	}
	if s.RemainingDays != DefaultTotalDays-13 {
		t.Fatalf("RemainingDays = %d", s.RemainingDays)
	}
	if s.ProgressPercent != 0.27 {
		t.Fatalf("ProgressPercent = %v, want 0.27", s.ProgressPercent)
	}

	notStarted := Summarize(epoch, epoch.AddDate(0, 0, -3), DefaultTotalDays, successful)
	if notStarted.Status != StatusNotStarted || notStarted.ElapsedDays != 0 || notStarted.DueUnconfirmed != 0 {
		t.Fatalf("not started summary wrong: %+v", notStarted)
	}
}

package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/store"
)

func entry(task, title, topic string, minutes int, at time.Time) store.TimeEntry {
	return store.TimeEntry{
		ID:              task + at.String(),
		TaskID:          task,
		TaskTitle:       title,
		TaskTopic:       topic,
		DurationMinutes: minutes,
		StartedAt:       at,
	}
}

// ============================================================
// Keys
// ============================================================

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Research", "Research"},
		{"  padded  ", "padded"},
		{"a/b\\c", "a-b-c"},
		{"bell\x07tab\tnl\n", "belltabnl"},
		{"", "fallback"},
		{"\x00\x01", "fallback"},
		{strings.Repeat("x", 100), strings.Repeat("x", maxKeyRunes)},
		{strings.Repeat("é", 70), strings.Repeat("é", maxKeyRunes)},
	}
	for _, tt := range tests {
		if got := SanitizeKey(tt.in, "fallback"); got != tt.want {
			t.Fatalf("SanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupKey(t *testing.T) {
	e := store.TimeEntry{TaskTitle: "Draft/2", TaskTopic: ""}
	if got := GroupKey(e); got != "Uncategorized/Draft-2" {
		t.Fatalf("GroupKey = %q", got)
	}
}

// ============================================================
// Range grouping
// ============================================================

func TestGroupRange(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entries := []store.TimeEntry{
		entry("t1", "Write", "Book", 30, at),
		entry("t1", "Write", "Book", 20, at.Add(time.Hour)),
		entry("t2", "Read", "", 15, at),
	}
	groups := GroupRange(entries)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if g := groups["Book/Write"]; g.Total != 50 || len(g.Entries) != 2 {
		t.Fatalf("unexpected Book/Write group: %+v", g)
	}
	if g := groups["Uncategorized/Read"]; g.Total != 15 {
		t.Fatalf("unexpected Uncategorized/Read group: %+v", g)
	}
}

func TestGroupRangeEmpty(t *testing.T) {
	groups := GroupRange(nil)
	if groups == nil || len(groups) != 0 {
		t.Fatal("expected empty non-nil map")
	}
}

// ============================================================
// Week view
// ============================================================

func TestWeekEmpty(t *testing.T) {
	clock := dayclock.New(6, time.UTC)
	ws := clock.WeekStart(time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC), 0)
	w := Week(clock, ws, nil, nil)

	if w.Stats.TotalMinutes != 0 {
		t.Fatalf("total = %d", w.Stats.TotalMinutes)
	}
	if len(w.DailyData) != 7 {
		t.Fatalf("expected 7 days, got %d", len(w.DailyData))
	}
	for _, d := range w.DailyData {
		if d.Minutes != 0 {
			t.Fatalf("expected zero day, got %+v", d)
		}
	}
	if w.Comparison.Growth != 0 {
		t.Fatalf("growth = %v", w.Comparison.Growth)
	}
	if w.DailyData[0].Weekday != time.Sunday {
		t.Fatalf("week should start on Sunday, got %v", w.DailyData[0].Weekday)
	}
}

func TestWeekTotalsAndComparison(t *testing.T) {
	clock := dayclock.New(0, time.UTC)
	ws := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) // Sunday
	entries := []store.TimeEntry{
		entry("t1", "Write", "Book", 60, ws.Add(10*time.Hour)),
		entry("t1", "Write", "Book", 30, ws.Add(34*time.Hour)),
		entry("t2", "Code", "Work", 90, ws.Add(35*time.Hour)),
		entry("t3", "Late", "Work", 999, ws.Add(7*24*time.Hour)), // next week
	}
	previous := []store.TimeEntry{
		entry("t1", "Write", "Book", 120, ws.Add(-2*24*time.Hour)),
	}
	w := Week(clock, ws, entries, previous)

	sum := 0
	for _, d := range w.DailyData {
		sum += d.Minutes
	}
	if sum != 180 || w.Stats.TotalMinutes != 180 {
		t.Fatalf("daily sum %d and total %d should both be 180", sum, w.Stats.TotalMinutes)
	}
	if w.Stats.ActiveDays != 2 || w.Stats.DistinctTasks != 2 {
		t.Fatalf("unexpected stats: %+v", w.Stats)
	}
	if w.Stats.AveragePerActiveDay != 90 {
		t.Fatalf("average should divide by active days: %v", w.Stats.AveragePerActiveDay)
	}
	if w.Stats.Consistency != 28.6 {
		t.Fatalf("consistency = %v", w.Stats.Consistency)
	}
	if w.Topics["Book"] != 90 || w.Topics["Work"] != 90 {
		t.Fatalf("unexpected topics: %v", w.Topics)
	}
	if w.Comparison.PreviousMinutes != 120 || w.Comparison.Growth != 50 {
		t.Fatalf("unexpected comparison: %+v", w.Comparison)
	}
	if w.DailyData[1].Topics["Work"] != 90 || w.DailyData[1].Entries != 2 {
		t.Fatalf("unexpected Monday: %+v", w.DailyData[1])
	}
}

func TestWeekHonorsDayStartHour(t *testing.T) {
	clock := dayclock.New(6, time.UTC)
	ws := time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC)
	// Monday 03:00 belongs to Sunday's civil day.
	entries := []store.TimeEntry{entry("t1", "Night", "", 40, time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC))}
	w := Week(clock, ws, entries, nil)
	if w.DailyData[0].Minutes != 40 || w.DailyData[1].Minutes != 0 {
		t.Fatalf("entry bucketed wrong: sun=%d mon=%d", w.DailyData[0].Minutes, w.DailyData[1].Minutes)
	}
}

func TestDayOverDay(t *testing.T) {
	days := []DayTotal{{Date: "2025-03-09", Minutes: 40}, {Date: "2025-03-10", Minutes: 60}}
	c := DayOverDay(days, "2025-03-10")
	if c.PreviousMinutes != 40 || c.Growth != 50 {
		t.Fatalf("unexpected comparison: %+v", c)
	}
	if c := DayOverDay(days, "2025-03-09"); c.Growth != 0 {
		t.Fatalf("first day has no predecessor: %+v", c)
	}
}

func TestGrowth(t *testing.T) {
	if Growth(100, 0) != 0 {
		t.Fatal("prev 0 should give 0")
	}
	if Growth(50, 100) != -50 {
		t.Fatal("expected -50")
	}
	if Growth(150, 100) != 50 {
		t.Fatal("expected 50")
	}
}

// ============================================================
// Month view
// ============================================================

func TestMonthZeroFilledAndSorted(t *testing.T) {
	clock := dayclock.New(0, time.UTC)
	for _, tc := range []struct {
		year, month0, days, weeks int
	}{
		{2025, 1, 28, 4},
		{2024, 1, 29, 5},
		{2025, 3, 30, 5},
		{2025, 0, 31, 5},
	} {
		m := Month(clock, tc.year, tc.month0, nil)
		if len(m.DailyBreakdown) != tc.days {
			t.Fatalf("%d-%d: expected %d days, got %d", tc.year, tc.month0, tc.days, len(m.DailyBreakdown))
		}
		for i := 1; i < len(m.DailyBreakdown); i++ {
			if m.DailyBreakdown[i-1].Date >= m.DailyBreakdown[i].Date {
				t.Fatalf("days not ascending at %d", i)
			}
		}
		if len(m.Weeks) != tc.weeks {
			t.Fatalf("%d-%d: expected %d weeks, got %d", tc.year, tc.month0, tc.weeks, len(m.Weeks))
		}
		if m.TotalMinutes != 0 || m.Consistency != 0 || m.LongestStreak != 0 {
			t.Fatalf("empty month should be zeroed: %+v", m)
		}
	}
}

func TestMonthTopicsStreakAndWeeks(t *testing.T) {
	clock := dayclock.New(0, time.UTC)
	day := func(d int) time.Time { return time.Date(2025, 4, d, 10, 0, 0, 0, time.UTC) }
	entries := []store.TimeEntry{
		entry("t1", "Write", "Book", 60, day(1)),
		entry("t1", "Write", "Book", 60, day(2)),
		entry("t2", "Code", "", 60, day(3)),
		entry("t2", "Code", "", 30, day(9)),
		entry("t2", "Code", "", 30, day(10)),
		entry("t2", "Code", "", 999, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
	}
	m := Month(clock, 2025, 3, entries)

	if m.TotalMinutes != 240 {
		t.Fatalf("total = %d", m.TotalMinutes)
	}
	if m.ActiveDays != 5 || m.LongestStreak != 3 {
		t.Fatalf("active=%d longest=%d", m.ActiveDays, m.LongestStreak)
	}
	if m.Consistency != 16.7 {
		t.Fatalf("consistency = %v", m.Consistency)
	}
	if m.AveragePerActiveDay != 48 {
		t.Fatalf("average = %v", m.AveragePerActiveDay)
	}
	if len(m.TopicSummary) != 2 {
		t.Fatalf("topics = %+v", m.TopicSummary)
	}
	if m.TopicSummary[0].Topic != "Book" || m.TopicSummary[0].Percentage != 50 {
		t.Fatalf("first topic = %+v", m.TopicSummary[0])
	}
	if m.TopicSummary[1].Topic != UncategorizedTopic {
		t.Fatalf("second topic = %+v", m.TopicSummary[1])
	}
	if m.Weeks[0].Minutes != 180 || m.Weeks[1].Minutes != 60 {
		t.Fatalf("weeks = %+v", m.Weeks)
	}
	if m.Weeks[1].Growth != -66.7 || m.Weeks[0].Growth != 0 {
		t.Fatalf("week growth = %v, %v", m.Weeks[0].Growth, m.Weeks[1].Growth)
	}
	if m.Weeks[4].StartDate != "2025-04-29" || m.Weeks[4].EndDate != "2025-04-30" {
		t.Fatalf("last week bounds = %+v", m.Weeks[4])
	}
}

func TestLongestRun(t *testing.T) {
	days := []DayTotal{{Minutes: 1}, {Minutes: 0}, {Minutes: 5}, {Minutes: 5}, {Minutes: 5}, {Minutes: 0}}
	if got := LongestRun(days); got != 3 {
		t.Fatalf("LongestRun = %d", got)
	}
}

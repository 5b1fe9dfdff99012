package analytics

import (
	"time"

	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/store"
)

const maxMonthWeeks = 5

// WeekRollup is a seven-day slice of a month counted from day 1; the last
// slice may be shorter.
type WeekRollup struct {
	Index      int     `json:"index"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Minutes    int     `json:"minutes"`
	ActiveDays int     `json:"activeDays"`
	Growth     float64 `json:"growth"`
}

type MonthView struct {
	Year                int          `json:"year"`
	Month               int          `json:"month"`
	Start               time.Time    `json:"start"`
	End                 time.Time    `json:"end"`
	DailyBreakdown      []DayTotal   `json:"dailyBreakdown"`
	TopicSummary        []TopicTotal `json:"topicSummary"`
	TotalMinutes        int          `json:"totalMinutes"`
	ActiveDays          int          `json:"activeDays"`
	DistinctTasks       int          `json:"distinctTasks"`
	LongestStreak       int          `json:"longestStreak"`
	Consistency         float64      `json:"consistency"`
	AveragePerActiveDay float64      `json:"averagePerActiveDay"`
	Weeks               []WeekRollup `json:"weeks"`
}

// Month builds the view of a zero-based month.
func Month(clock dayclock.Clock, year, month0 int, entries []store.TimeEntry) MonthView {
	start, end := clock.MonthRange(year, month0)
	n := dayclock.DaysInMonth(year, month0)
	days, in := dayGrid(clock, start, n, entries)

	total := totalMinutes(days)
	active := activeDays(days)

	return MonthView{
		Year:                year,
		Month:               month0,
		Start:               start,
		End:                 end,
		DailyBreakdown:      days,
		TopicSummary:        topicSummary(topicTotals(in), total),
		TotalMinutes:        total,
		ActiveDays:          active,
		DistinctTasks:       distinctTasks(in),
		LongestStreak:       LongestRun(days),
		Consistency:         Percent(active, n),
		AveragePerActiveDay: averagePerActiveDay(total, active),
		Weeks:               weekRollups(days),
	}
}

func weekRollups(days []DayTotal) []WeekRollup {
	var weeks []WeekRollup
	for i := 0; i < len(days) && len(weeks) < maxMonthWeeks; i += 7 {
		chunk := days[i:min(i+7, len(days))]
		w := WeekRollup{
			Index:      len(weeks),
			StartDate:  chunk[0].Date,
			EndDate:    chunk[len(chunk)-1].Date,
			Minutes:    totalMinutes(chunk),
			ActiveDays: activeDays(chunk),
		}
		if len(weeks) > 0 {
			w.Growth = Growth(w.Minutes, weeks[len(weeks)-1].Minutes)
		}
		weeks = append(weeks, w)
	}
	return weeks
}

package analytics

import (
	"time"

	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/store"
)

type WeekStats struct {
	TotalMinutes        int     `json:"totalMinutes"`
	ActiveDays          int     `json:"activeDays"`
	DistinctTasks       int     `json:"distinctTasks"`
	Consistency         float64 `json:"consistency"`
	AveragePerActiveDay float64 `json:"averagePerActiveDay"`
}

type Comparison struct {
	PreviousMinutes int     `json:"previousMinutes"`
	Growth          float64 `json:"growth"`
}

type WeekView struct {
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	DailyData  []DayTotal     `json:"dailyData"`
	Topics     map[string]int `json:"topics"`
	Stats      WeekStats      `json:"weekStats"`
	Comparison Comparison     `json:"comparison"`
}

// Week builds the seven-day view starting at weekStart. previous holds the
// entries of the week before and only feeds the comparison.
func Week(clock dayclock.Clock, weekStart time.Time, entries, previous []store.TimeEntry) WeekView {
	days, in := dayGrid(clock, weekStart, 7, entries)
	prevDays, _ := dayGrid(clock, clock.AddDays(weekStart, -7), 7, previous)

	total := totalMinutes(days)
	active := activeDays(days)
	prevTotal := totalMinutes(prevDays)

	return WeekView{
		Start:     weekStart,
		End:       clock.AddDays(weekStart, 7),
		DailyData: days,
		Topics:    topicTotals(in),
		Stats: WeekStats{
			TotalMinutes:        total,
			ActiveDays:          active,
			DistinctTasks:       distinctTasks(in),
			Consistency:         Percent(active, 7),
			AveragePerActiveDay: averagePerActiveDay(total, active),
		},
		Comparison: Comparison{
			PreviousMinutes: prevTotal,
			Growth:          Growth(total, prevTotal),
		},
	}
}

// DayOverDay compares the day keyed today with the day before it in the grid.
func DayOverDay(days []DayTotal, today string) Comparison {
	for i, d := range days {
		if d.Date != today {
			continue
		}
		if i == 0 {
			return Comparison{}
		}
		prev := days[i-1].Minutes
		return Comparison{PreviousMinutes: prev, Growth: Growth(d.Minutes, prev)}
	}
	return Comparison{}
}

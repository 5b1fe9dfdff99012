// Package streak derives streak length, per-day consistency and momentum from a
// rolling window of daily totals.
package streak

import (
	"math"
	"time"

	"github.com/sadopc/tempo/internal/dayclock"
)

const (
	// DefaultMinMinutes is the activity a day needs to extend a streak.
	DefaultMinMinutes = 30
	// DefaultTargetMinutes is the daily target behind the consistency score.
	DefaultTargetMinutes = 180
	// HistoryWindow bounds how many days a streak walk examines.
	HistoryWindow = 100
	// MomentumWindow is the number of trailing days momentum compares against.
	MomentumWindow = 7
)

// Day is one civil day and the minutes logged on it.
type Day struct {
	Date    string
	Minutes int
}

// Stats are the derived per-day scores persisted alongside the raw counters.
type Stats struct {
	Streak      int
	Consistency int
	Momentum    int
}

// Streak counts consecutive days ending at today with at least minMinutes.
// Days absent from history count as zero. The walk stops after HistoryWindow days.
func Streak(history []Day, today string, minMinutes int) int {
	byDate := index(history)
	day, err := time.Parse(dayclock.DateLayout, today)
	if err != nil {
		return 0
	}
	n := 0
	for n < HistoryWindow {
		if byDate[day.Format(dayclock.DateLayout)] < minMinutes {
			break
		}
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// Consistency scores a day against the target, capped at 100.
func Consistency(minutes, target int) int {
	if target <= 0 {
		return 0
	}
	return min(100, int(math.Round(float64(minutes)/float64(target)*100)))
}

// Momentum compares today's minutes with the trailing window mean. It is centered
// at 50 and bounded to [0, 100]. Missing trailing days count as zero.
func Momentum(today int, trailing []int) int {
	sum := 0
	for i, m := range trailing {
		if i == MomentumWindow {
			break
		}
		sum += m
	}
	avg := float64(sum) / MomentumWindow
	if avg == 0 {
		return 50
	}
	t := float64(today)
	if t > avg {
		return min(100, int(math.Round((t-avg)/avg*100))+50)
	}
	return max(0, 50-int(math.Round((avg-t)/avg*100)))
}

// Trailing returns the minutes of the MomentumWindow days before today, most
// recent first, zero-filled.
func Trailing(history []Day, today string) []int {
	byDate := index(history)
	day, err := time.Parse(dayclock.DateLayout, today)
	if err != nil {
		return nil
	}
	out := make([]int, MomentumWindow)
	for i := range out {
		day = day.AddDate(0, 0, -1)
		out[i] = byDate[day.Format(dayclock.DateLayout)]
	}
	return out
}

// Compute derives all scores for today. today.Minutes overrides any history
// row for the same date.
func Compute(history []Day, today Day, minMinutes, target int) Stats {
	merged := make([]Day, 0, len(history)+1)
	for _, d := range history {
		if d.Date != today.Date {
			merged = append(merged, d)
		}
	}
	merged = append(merged, today)
	return Stats{
		Streak:      Streak(merged, today.Date, minMinutes),
		Consistency: Consistency(today.Minutes, target),
		Momentum:    Momentum(today.Minutes, Trailing(merged, today.Date)),
	}
}

func index(history []Day) map[string]int {
	m := make(map[string]int, len(history))
	for _, d := range history {
		m[d.Date] = d.Minutes
	}
	return m
}

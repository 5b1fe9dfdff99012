// Package analytics rolls ledger entries up into range groups, week views and
// month views bucketed by civil day.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/store"
)

// Group is one topic/title bucket of a range.
type Group struct {
	Total   int               `json:"total"`
	Entries []store.TimeEntry `json:"entries"`
}

// DayTotal is one civil day of a week or month view. Days without entries are
// present with zero totals.
type DayTotal struct {
	Date    string         `json:"date"`
	Start   time.Time      `json:"start"`
	Weekday time.Weekday   `json:"weekday"`
	Minutes int            `json:"minutes"`
	Entries int            `json:"entries"`
	Topics  map[string]int `json:"topics"`
}

// TopicTotal is a topic's share of a period.
type TopicTotal struct {
	Topic      string  `json:"topic"`
	Minutes    int     `json:"minutes"`
	Percentage float64 `json:"percentage"`
}

// GroupRange buckets entries by topic/title.
func GroupRange(entries []store.TimeEntry) map[string]Group {
	groups := make(map[string]Group)
	for _, e := range entries {
		k := GroupKey(e)
		g := groups[k]
		g.Total += e.DurationMinutes
		g.Entries = append(g.Entries, e)
		groups[k] = g
	}
	return groups
}

// Growth is the percentage change from prev to curr, 0 when prev is 0.
func Growth(curr, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return round1(float64(curr-prev) / float64(prev) * 100)
}

// Percent is part/whole as a percentage, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

// averagePerActiveDay divides by active days so sparse periods are not diluted.
func averagePerActiveDay(total, activeDays int) float64 {
	if activeDays == 0 {
		return 0
	}
	return round1(float64(total) / float64(activeDays))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// dayGrid lays out n zero-filled days from start and fills them from entries.
// Entries outside the grid are ignored. It returns the days and the entries
// that landed in the grid.
func dayGrid(clock dayclock.Clock, start time.Time, n int, entries []store.TimeEntry) ([]DayTotal, []store.TimeEntry) {
	days := make([]DayTotal, n)
	pos := make(map[string]int, n)
	for i := range days {
		ds := clock.AddDays(start, i)
		days[i] = DayTotal{
			Date:    ds.Format(dayclock.DateLayout),
			Start:   ds,
			Weekday: ds.Weekday(),
			Topics:  map[string]int{},
		}
		pos[days[i].Date] = i
	}

	var in []store.TimeEntry
	for _, e := range entries {
		i, ok := pos[clock.Bucket(e.StartedAt)]
		if !ok {
			continue
		}
		days[i].Minutes += e.DurationMinutes
		days[i].Entries++
		days[i].Topics[TopicKey(e)] += e.DurationMinutes
		in = append(in, e)
	}
	return days, in
}

func topicTotals(entries []store.TimeEntry) map[string]int {
	topics := make(map[string]int)
	for _, e := range entries {
		topics[TopicKey(e)] += e.DurationMinutes
	}
	return topics
}

func topicSummary(topics map[string]int, total int) []TopicTotal {
	out := make([]TopicTotal, 0, len(topics))
	for name, m := range topics {
		out = append(out, TopicTotal{Topic: name, Minutes: m, Percentage: Percent(m, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

func activeDays(days []DayTotal) int {
	n := 0
	for _, d := range days {
		if d.Minutes > 0 {
			n++
		}
	}
	return n
}

func totalMinutes(days []DayTotal) int {
	n := 0
	for _, d := range days {
		n += d.Minutes
	}
	return n
}

func distinctTasks(entries []store.TimeEntry) int {
	seen := make(map[string]struct{})
	for _, e := range entries {
		seen[e.TaskID] = struct{}{}
	}
	return len(seen)
}

// LongestRun is the longest run of consecutive days with any activity.
func LongestRun(days []DayTotal) int {
	run, longest := 0, 0
	for _, d := range days {
		if d.Minutes > 0 {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}

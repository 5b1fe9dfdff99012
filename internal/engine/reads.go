package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/tempo/internal/analytics"
	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/streak"
)

// TaskSummary is a task with the minutes logged on it today and in total.
type TaskSummary struct {
	store.Task
	TodayMinutes int
	TotalMinutes int
}

// Dashboard is the combined read behind the primary view.
type Dashboard struct {
	Date         string
	Tasks        []TaskSummary
	Today        map[string]analytics.Group
	TotalToday   int
	Stats        streak.Stats
	Celebrations []store.Celebration
}

// GetRangeGrouped groups the owner's entries in [start, end) by topic and title.
func (e *Engine) GetRangeGrouped(ctx context.Context, start, end time.Time) (map[string]analytics.Group, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("range %s..%s: %w", start.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidArgument)
	}
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return map[string]analytics.Group{}, nil
	}
	entries, err := e.store.EntriesInRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	return analytics.GroupRange(entries), nil
}

// GetWeekAnalytics returns the Sunday-anchored week weekOffset weeks from the
// current one, bucketed with dayStartHour.
func (e *Engine) GetWeekAnalytics(ctx context.Context, weekOffset, dayStartHour int) (analytics.WeekView, error) {
	if err := validHour(dayStartHour); err != nil {
		return analytics.WeekView{}, err
	}
	clock := e.clock(dayStartHour)
	start := clock.WeekStart(e.opts.Now(), weekOffset)
	prevStart := clock.AddDays(start, -7)
	end := clock.AddDays(start, 7)

	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return analytics.Week(clock, start, nil, nil), nil
	}
	entries, err := e.store.EntriesInRange(ctx, ownerID, start, end)
	if err != nil {
		return analytics.WeekView{}, err
	}
	previous, err := e.store.EntriesInRange(ctx, ownerID, prevStart, start)
	if err != nil {
		return analytics.WeekView{}, err
	}
	return analytics.Week(clock, start, entries, previous), nil
}

// GetMonthAnalytics returns the view of a zero-based month.
func (e *Engine) GetMonthAnalytics(ctx context.Context, year, month0, dayStartHour int) (analytics.MonthView, error) {
	if err := validHour(dayStartHour); err != nil {
		return analytics.MonthView{}, err
	}
	if month0 < 0 || month0 > 11 {
		return analytics.MonthView{}, fmt.Errorf("month %d: %w", month0, ErrInvalidArgument)
	}
	clock := e.clock(dayStartHour)

	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return analytics.Month(clock, year, month0, nil), nil
	}
	start, end := clock.MonthRange(year, month0)
	entries, err := e.store.EntriesInRange(ctx, ownerID, start, end)
	if err != nil {
		return analytics.MonthView{}, err
	}
	return analytics.Month(clock, year, month0, entries), nil
}

// GetDashboardSnapshot reads everything the primary view needs for the civil
// day starting at todayStart. Streak scores are derived live from the ledger,
// so a day without entries reports a zero streak.
func (e *Engine) GetDashboardSnapshot(ctx context.Context, todayStart time.Time) (*Dashboard, error) {
	todayStart = todayStart.In(e.opts.Location)
	d := &Dashboard{
		Date:  todayStart.Format(dayclock.DateLayout),
		Today: map[string]analytics.Group{},
	}
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		d.Stats.Momentum = streak.Compute(nil, streak.Day{Date: d.Date}, e.opts.MinStreakMinutes, e.opts.TargetMinutes).Momentum
		return d, nil
	}
	todayEnd := todayStart.Add(dayclock.Day)

	var (
		tasks   []store.Task
		todayBy map[string]int
		allBy   map[string]int
		entries []store.TimeEntry
		recent  []store.DailyStat
		pending []store.Celebration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = e.store.ListTasks(gctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		todayBy, err = e.store.TaskTotals(gctx, ownerID, &todayStart, &todayEnd)
		return err
	})
	g.Go(func() (err error) {
		allBy, err = e.store.TaskTotals(gctx, ownerID, nil, nil)
		return err
	})
	g.Go(func() (err error) {
		entries, err = e.store.EntriesInRange(gctx, ownerID, todayStart, todayEnd)
		return err
	})
	g.Go(func() (err error) {
		recent, err = e.store.RecentDailyStats(gctx, ownerID, d.Date, streak.HistoryWindow)
		return err
	})
	g.Go(func() (err error) {
		pending, err = e.store.PendingCelebrations(gctx, ownerID, e.opts.PendingLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard snapshot: %w", err)
	}

	for _, t := range tasks {
		d.Tasks = append(d.Tasks, TaskSummary{
			Task:         t,
			TodayMinutes: todayBy[t.ID],
			TotalMinutes: allBy[t.ID],
		})
	}
	d.Today = analytics.GroupRange(entries)
	for _, en := range entries {
		d.TotalToday += en.DurationMinutes
	}

	history := make([]streak.Day, len(recent))
	for i, ds := range recent {
		history[i] = streak.Day{Date: ds.Date, Minutes: ds.DailyMinutes}
	}
	d.Stats = streak.Compute(history, streak.Day{Date: d.Date, Minutes: d.TotalToday}, e.opts.MinStreakMinutes, e.opts.TargetMinutes)
	d.Celebrations = pending
	return d, nil
}

// DailyStats returns the stored rollups for date keys in [from, to], oldest first.
func (e *Engine) DailyStats(ctx context.Context, from, to string) ([]store.DailyStat, error) {
	f, err := time.Parse(dayclock.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("from %q: %w", from, ErrInvalidArgument)
	}
	t, err := time.Parse(dayclock.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("to %q: %w", to, ErrInvalidArgument)
	}
	if t.Before(f) {
		return nil, fmt.Errorf("range %s..%s: %w", from, to, ErrInvalidArgument)
	}
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.DailyStatsBetween(ctx, ownerID, from, to)
}

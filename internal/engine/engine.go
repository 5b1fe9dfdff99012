// Package engine is the owner-scoped entry point to the tracker. It resolves
// the caller from the context, validates input, serializes writes per owner
// and turns ledger appends into daily stats, milestones and celebrations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/milestone"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/streak"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = store.ErrNotFound
	ErrInvalidArgument = store.ErrInvalidArgument
	ErrUnauthorized    = store.ErrWrongOwner
)

// DefaultPendingLimit caps how many unshown celebrations a dashboard carries.
const DefaultPendingLimit = 5

type ownerKey struct{}

// WithOwner attaches the authenticated owner to ctx.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner attached to ctx, if any.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}

type Options struct {
	Now              func() time.Time
	Location         *time.Location
	TargetMinutes    int
	MinStreakMinutes int
	TimeThresholds   []int
	StreakThresholds []int
	PendingLimit     int
	Logger           *slog.Logger
}

type Engine struct {
	store    *store.Store
	opts     Options
	detector *milestone.Detector
	log      *slog.Logger

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

func New(s *store.Store, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TargetMinutes <= 0 {
		opts.TargetMinutes = streak.DefaultTargetMinutes
	}
	if opts.MinStreakMinutes <= 0 {
		opts.MinStreakMinutes = streak.DefaultMinMinutes
	}
	if opts.PendingLimit <= 0 {
		opts.PendingLimit = DefaultPendingLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		store:    s,
		opts:     opts,
		detector: milestone.NewDetector(opts.TimeThresholds, opts.StreakThresholds, opts.Now),
		log:      opts.Logger,
		owners:   make(map[string]*sync.Mutex),
	}
}

// lock serializes writes of one owner. Different owners never contend.
func (e *Engine) lock(ownerID string) func() {
	e.mu.Lock()
	m, ok := e.owners[ownerID]
	if !ok {
		m = &sync.Mutex{}
		e.owners[ownerID] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (e *Engine) writer(ctx context.Context) (string, error) {
	id, ok := OwnerFrom(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return id, nil
}

func (e *Engine) clock(hour int) dayclock.Clock {
	return dayclock.New(hour, e.opts.Location)
}

func (e *Engine) ownerClock(ctx context.Context, s *store.Store, ownerID string) (dayclock.Clock, error) {
	us, err := s.GetUserSettings(ctx, ownerID)
	if err != nil {
		return dayclock.Clock{}, err
	}
	return e.clock(us.DayStartHour), nil
}

func validHour(h int) error {
	if h < 0 || h > 23 {
		return fmt.Errorf("day start hour %d: %w", h, ErrInvalidArgument)
	}
	return nil
}

// ============================================================
// Time
// ============================================================

// AddTime appends an entry to the owner's ledger and, in the same transaction,
// refreshes today's daily stat and runs milestone detection.
func (e *Engine) AddTime(ctx context.Context, taskID string, minutes int, note string) (string, error) {
	ownerID, err := e.writer(ctx)
	if err != nil {
		return "", err
	}
	if minutes <= 0 {
		return "", fmt.Errorf("add time: duration %d: %w", minutes, ErrInvalidArgument)
	}
	defer e.lock(ownerID)()

	var entry *store.TimeEntry
	err = e.store.InTx(ctx, func(tx *store.Store) error {
		clock, err := e.ownerClock(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		now := e.opts.Now()
		entry, err = tx.AppendEntry(ctx, ownerID, taskID, minutes, note, now)
		if err != nil {
			return err
		}

		todayStart := clock.TodayStart(now)
		today := clock.Bucket(now)
		dayMinutes, dayTasks, err := tx.DaySummary(ctx, ownerID, todayStart, todayStart.Add(dayclock.Day))
		if err != nil {
			return err
		}

		prevStreak, err := e.previousStreak(ctx, tx, ownerID, today, clock.Bucket(clock.YesterdayStart(now)))
		if err != nil {
			return err
		}
		history, err := e.history(ctx, tx, ownerID, today)
		if err != nil {
			return err
		}
		stats := streak.Compute(history, streak.Day{Date: today, Minutes: dayMinutes}, e.opts.MinStreakMinutes, e.opts.TargetMinutes)
		if err := tx.UpsertDailyStat(ctx, store.DailyStat{
			OwnerID:          ownerID,
			Date:             today,
			DailyMinutes:     dayMinutes,
			TasksWorkedOn:    dayTasks,
			StreakCount:      stats.Streak,
			ConsistencyScore: stats.Consistency,
			Momentum:         stats.Momentum,
		}); err != nil {
			return err
		}

		taskTotal, err := tx.TaskTotalMinutes(ctx, ownerID, taskID)
		if err != nil {
			return err
		}
		ref := &milestone.TaskRef{ID: taskID, Title: entry.TaskTitle}
		reached, err := e.detector.CheckTime(ctx, tx, ownerID, taskTotal-minutes, taskTotal, ref)
		if err != nil {
			return err
		}
		streaks, err := e.detector.CheckStreak(ctx, tx, ownerID, prevStreak, stats.Streak)
		if err != nil {
			return err
		}
		if _, err := e.detector.CheckGoal(ctx, tx, ownerID, dayMinutes-minutes, dayMinutes, e.opts.TargetMinutes); err != nil {
			return err
		}
		if err := e.detector.Celebrate(ctx, tx, ownerID, store.CelebrationTimeAdded, &minutes, ""); err != nil {
			return err
		}

		for _, m := range append(reached, streaks...) {
			e.log.Info("milestone reached", "owner", ownerID, "type", m.Type, "value", m.Value)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("add time: %w", err)
	}
	e.log.Debug("time added", "owner", ownerID, "task", taskID, "entry", entry.ID, "minutes", minutes)
	return entry.ID, nil
}

// previousStreak is the streak stored before this write: today's row when it
// exists, otherwise yesterday's.
func (e *Engine) previousStreak(ctx context.Context, s *store.Store, ownerID, today, yesterday string) (int, error) {
	for _, date := range []string{today, yesterday} {
		ds, err := s.GetDailyStat(ctx, ownerID, date)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return ds.StreakCount, nil
	}
	return 0, nil
}

func (e *Engine) history(ctx context.Context, s *store.Store, ownerID, today string) ([]streak.Day, error) {
	rows, err := s.RecentDailyStats(ctx, ownerID, today, streak.HistoryWindow)
	if err != nil {
		return nil, err
	}
	days := make([]streak.Day, len(rows))
	for i, ds := range rows {
		days[i] = streak.Day{Date: ds.Date, Minutes: ds.DailyMinutes}
	}
	return days, nil
}

// ============================================================
// Tasks
// ============================================================

func normalize(a store.TaskAttrs) (store.TaskAttrs, error) {
	a.Title = strings.TrimSpace(a.Title)
	a.Topic = strings.TrimSpace(a.Topic)
	a.Subtopic = strings.TrimSpace(a.Subtopic)
	a.Color = strings.TrimSpace(a.Color)
	if a.Title == "" {
		return a, fmt.Errorf("task title is required: %w", ErrInvalidArgument)
	}
	return a, nil
}

func (e *Engine) CreateTask(ctx context.Context, attrs store.TaskAttrs) (*store.Task, error) {
	ownerID, err := e.writer(ctx)
	if err != nil {
		return nil, err
	}
	attrs, err = normalize(attrs)
	if err != nil {
		return nil, err
	}
	defer e.lock(ownerID)()
	t, err := e.store.CreateTask(ctx, ownerID, attrs)
	if err != nil {
		return nil, err
	}
	e.log.Debug("task created", "owner", ownerID, "task", t.ID)
	return t, nil
}

// UpdateTask saves attrs and, when any display attribute changed, patches the
// snapshot on every existing entry of the task. The patch runs entry by entry
// outside the task update; a failure leaves the remaining entries stale.
func (e *Engine) UpdateTask(ctx context.Context, id string, attrs store.TaskAttrs) error {
	ownerID, err := e.writer(ctx)
	if err != nil {
		return err
	}
	attrs, err = normalize(attrs)
	if err != nil {
		return err
	}
	defer e.lock(ownerID)()

	old, err := e.store.GetTask(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := e.store.UpdateTask(ctx, ownerID, id, attrs); err != nil {
		return err
	}
	if old.Attrs() == attrs {
		return nil
	}
	n, err := e.store.RefreshEntrySnapshots(ctx, ownerID, id, attrs)
	if err != nil {
		e.log.Warn("entry refresh stopped", "owner", ownerID, "task", id, "patched", n, "err", err)
		return fmt.Errorf("refresh entries of task %s after %d: %w", id, n, err)
	}
	e.log.Debug("entries refreshed", "owner", ownerID, "task", id, "patched", n)
	return nil
}

func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	ownerID, err := e.writer(ctx)
	if err != nil {
		return err
	}
	defer e.lock(ownerID)()
	return e.store.DeleteTask(ctx, ownerID, id)
}

func (e *Engine) ListTasks(ctx context.Context) ([]store.Task, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.ListTasks(ctx, ownerID)
}

// ============================================================
// Celebrations & settings
// ============================================================

func (e *Engine) MarkCelebrationShown(ctx context.Context, id string) error {
	ownerID, err := e.writer(ctx)
	if err != nil {
		return err
	}
	defer e.lock(ownerID)()
	return e.store.MarkCelebrationShown(ctx, ownerID, id, e.opts.Now())
}

func (e *Engine) PendingCelebrations(ctx context.Context) ([]store.Celebration, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.PendingCelebrations(ctx, ownerID, e.opts.PendingLimit)
}

func (e *Engine) Celebrations(ctx context.Context) ([]store.Celebration, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.ListCelebrations(ctx, ownerID)
}

func (e *Engine) Milestones(ctx context.Context) ([]store.Milestone, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.ListMilestones(ctx, ownerID)
}

func (e *Engine) GetUserSettings(ctx context.Context) (store.UserSettings, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return store.UserSettings{}, nil
	}
	return e.store.GetUserSettings(ctx, ownerID)
}

// StoredSettings lists the caller's persisted setting rows. Defaults that were
// never written are not included.
func (e *Engine) StoredSettings(ctx context.Context) ([]store.Setting, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.GetAllSettings(ctx, ownerID)
}

func (e *Engine) UpdateUserSettings(ctx context.Context, dayStartHour int) error {
	ownerID, err := e.writer(ctx)
	if err != nil {
		return err
	}
	if err := validHour(dayStartHour); err != nil {
		return err
	}
	defer e.lock(ownerID)()
	return e.store.SetDayStartHour(ctx, ownerID, dayStartHour)
}

// TodayStart is the start of the caller's current civil day.
func (e *Engine) TodayStart(ctx context.Context) (time.Time, error) {
	us, err := e.GetUserSettings(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return e.clock(us.DayStartHour).TodayStart(e.opts.Now()), nil
}

// Entries lists the caller's ledger, newest first.
func (e *Engine) Entries(ctx context.Context, f store.EntryFilter) ([]store.TimeEntry, error) {
	ownerID, ok := OwnerFrom(ctx)
	if !ok {
		return nil, nil
	}
	return e.store.ListEntries(ctx, ownerID, f)
}

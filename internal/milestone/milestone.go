// Package milestone detects threshold crossings on monotonically increasing
// metrics and turns them into milestone records and celebrations.
package milestone

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

var (
	// DefaultTimeThresholds are cumulative task minutes.
	DefaultTimeThresholds = []int{60, 120, 180, 240, 300, 360}
	// DefaultStreakThresholds are streak lengths in days.
	DefaultStreakThresholds = []int{3, 7, 14, 30, 60, 100}
)

// PerfectDayScore is the consistency score recorded when the daily target is met.
const PerfectDayScore = 100

// Priority orders celebrations for presentation: streaks first, time added last.
func Priority(t store.CelebrationType) int {
	switch t {
	case store.CelebrationStreak:
		return 4
	case store.CelebrationMilestone:
		return 3
	case store.CelebrationGoalCompleted:
		return 2
	case store.CelebrationTimeAdded:
		return 1
	}
	return 0
}

// Crossed returns every threshold T with prev < T <= next, ascending.
// thresholds must be sorted ascending.
func Crossed(thresholds []int, prev, next int) []int {
	var out []int
	for _, t := range thresholds {
		if prev < t && t <= next {
			out = append(out, t)
		}
	}
	return out
}

// Recorder persists milestones and celebrations. *store.Store implements it.
type Recorder interface {
	RecordMilestone(ctx context.Context, m *store.Milestone) (bool, error)
	EnqueueCelebration(ctx context.Context, c *store.Celebration) error
}

// TaskRef identifies the task a time milestone was reached on.
type TaskRef struct {
	ID    string
	Title string
}

type Detector struct {
	timeThresholds   []int
	streakThresholds []int
	now              func() time.Time
}

// NewDetector copies and sorts the threshold lists. Empty lists fall back to
// the defaults.
func NewDetector(timeThresholds, streakThresholds []int, now func() time.Time) *Detector {
	if len(timeThresholds) == 0 {
		timeThresholds = DefaultTimeThresholds
	}
	if len(streakThresholds) == 0 {
		streakThresholds = DefaultStreakThresholds
	}
	if now == nil {
		now = time.Now
	}
	tt := slices.Clone(timeThresholds)
	st := slices.Clone(streakThresholds)
	slices.Sort(tt)
	slices.Sort(st)
	return &Detector{timeThresholds: tt, streakThresholds: st, now: now}
}

// CheckTime records a time milestone for every threshold crossed between prev
// and next minutes and celebrates each one that was not already recorded.
func (d *Detector) CheckTime(ctx context.Context, rec Recorder, ownerID string, prev, next int, task *TaskRef) ([]store.Milestone, error) {
	var recorded []store.Milestone
	for _, t := range Crossed(d.timeThresholds, prev, next) {
		m := store.Milestone{
			OwnerID:    ownerID,
			Type:       store.MilestoneTime,
			Value:      t,
			AchievedAt: d.now(),
		}
		if task != nil {
			m.TaskID = task.ID
			m.TaskTitle = task.Title
		}
		ok, err := rec.RecordMilestone(ctx, &m)
		if err != nil {
			return recorded, err
		}
		if !ok {
			continue
		}
		recorded = append(recorded, m)
		if err := d.Celebrate(ctx, rec, ownerID, store.CelebrationMilestone, &t, m.ID); err != nil {
			return recorded, err
		}
	}
	return recorded, nil
}

// CheckStreak records every streak threshold crossed between prev and next but
// celebrates only the first newly recorded one.
func (d *Detector) CheckStreak(ctx context.Context, rec Recorder, ownerID string, prev, next int) ([]store.Milestone, error) {
	var recorded []store.Milestone
	for _, t := range Crossed(d.streakThresholds, prev, next) {
		m := store.Milestone{
			OwnerID:    ownerID,
			Type:       store.MilestoneStreak,
			Value:      t,
			AchievedAt: d.now(),
			Metadata:   map[string]int{"streak": next},
		}
		ok, err := rec.RecordMilestone(ctx, &m)
		if err != nil {
			return recorded, err
		}
		if !ok {
			continue
		}
		recorded = append(recorded, m)
		if len(recorded) > 1 {
			continue
		}
		if err := d.Celebrate(ctx, rec, ownerID, store.CelebrationStreak, &t, m.ID); err != nil {
			return recorded, err
		}
	}
	return recorded, nil
}

// CheckGoal celebrates the day's minutes crossing target. The first time it
// happens also records a consistency_score milestone.
func (d *Detector) CheckGoal(ctx context.Context, rec Recorder, ownerID string, prev, next, target int) (bool, error) {
	if target <= 0 || !(prev < target && target <= next) {
		return false, nil
	}
	m := store.Milestone{
		OwnerID:    ownerID,
		Type:       store.MilestoneConsistency,
		Value:      PerfectDayScore,
		AchievedAt: d.now(),
		Metadata:   map[string]int{"minutes": next},
	}
	if _, err := rec.RecordMilestone(ctx, &m); err != nil {
		return false, err
	}
	if err := d.Celebrate(ctx, rec, ownerID, store.CelebrationGoalCompleted, &target, m.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Celebrate enqueues a celebration with its presentation priority.
func (d *Detector) Celebrate(ctx context.Context, rec Recorder, ownerID string, typ store.CelebrationType, value *int, milestoneID string) error {
	c := &store.Celebration{
		OwnerID:     ownerID,
		Type:        typ,
		TriggeredAt: d.now(),
		MilestoneID: milestoneID,
		Priority:    Priority(typ),
	}
	if value != nil {
		v := *value
		c.Value = &v
	}
	if err := rec.EnqueueCelebration(ctx, c); err != nil {
		return fmt.Errorf("celebrate %s: %w", typ, err)
	}
	return nil
}

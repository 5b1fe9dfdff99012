package milestone

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

var fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestDetector() *Detector {
	return NewDetector([]int{60, 120}, nil, func() time.Time { return fixedNow })
}

// ============================================================
// Crossed
// ============================================================

func TestCrossed(t *testing.T) {
	thresholds := []int{60, 120, 180, 240, 300, 360}
	tests := []struct {
		prev, next int
		want       []int
	}{
		{0, 59, nil},
		{0, 60, []int{60}},
		{60, 60, nil},
		{60, 61, nil},
		{50, 130, []int{60, 120}},
		{0, 400, []int{60, 120, 180, 240, 300, 360}},
		{130, 100, nil},
	}
	for _, tt := range tests {
		got := Crossed(thresholds, tt.prev, tt.next)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Crossed(%d, %d) = %v, want %v", tt.prev, tt.next, got, tt.want)
		}
	}
}

func TestPriority(t *testing.T) {
	order := []store.CelebrationType{
		store.CelebrationStreak,
		store.CelebrationMilestone,
		store.CelebrationGoalCompleted,
		store.CelebrationTimeAdded,
	}
	for i := 1; i < len(order); i++ {
		if Priority(order[i-1]) <= Priority(order[i]) {
			t.Errorf("expected %s above %s", order[i-1], order[i])
		}
	}
	if Priority("unknown") != 0 {
		t.Error("unknown type should have priority 0")
	}
}

func TestNewDetectorSortsAndDefaults(t *testing.T) {
	in := []int{120, 60}
	d := NewDetector(in, nil, nil)
	if !slices.Equal(d.timeThresholds, []int{60, 120}) {
		t.Errorf("time thresholds = %v", d.timeThresholds)
	}
	if in[0] != 120 {
		t.Error("caller slice was mutated")
	}
	if !slices.Equal(d.streakThresholds, DefaultStreakThresholds) {
		t.Errorf("streak thresholds = %v", d.streakThresholds)
	}
}

// ============================================================
// Time milestones
// ============================================================

func TestCheckTimeRecordsEachCrossing(t *testing.T) {
	s := newTestStore(t)
	d := newTestDetector()
	ctx := context.Background()

	got, err := d.CheckTime(ctx, s, "alice", 50, 130, &TaskRef{ID: "t1", Title: "Read"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Value != 60 || got[1].Value != 120 {
		t.Fatalf("recorded = %+v", got)
	}
	if got[0].TaskTitle != "Read" {
		t.Errorf("task title = %q", got[0].TaskTitle)
	}

	cs, err := s.ListCelebrations(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 {
		t.Fatalf("expected 2 celebrations, got %d", len(cs))
	}
	for _, c := range cs {
		if c.Type != store.CelebrationMilestone || c.Priority != 3 || c.MilestoneID == "" {
			t.Errorf("unexpected celebration %+v", c)
		}
	}
}

func TestCheckTimeDeduplicates(t *testing.T) {
	s := newTestStore(t)
	d := newTestDetector()
	ctx := context.Background()

	if _, err := d.CheckTime(ctx, s, "alice", 0, 60, nil); err != nil {
		t.Fatal(err)
	}
	got, err := d.CheckTime(ctx, s, "alice", 0, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected retry to record nothing, got %+v", got)
	}
	ms, _ := s.ListMilestones(ctx, "alice")
	if len(ms) != 1 {
		t.Errorf("expected 1 milestone, got %d", len(ms))
	}
	cs, _ := s.ListCelebrations(ctx, "alice")
	if len(cs) != 1 {
		t.Errorf("expected 1 celebration, got %d", len(cs))
	}

	// Another owner reaches the same threshold independently.
	got, err = d.CheckTime(ctx, s, "bob", 0, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected bob to record 1, got %d", len(got))
	}
}

// ============================================================
// Streak milestones
// ============================================================

func TestCheckStreakCelebratesFirstOnly(t *testing.T) {
	s := newTestStore(t)
	d := newTestDetector()
	ctx := context.Background()

	got, err := d.CheckStreak(ctx, s, "alice", 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Value != 3 || got[1].Value != 7 {
		t.Fatalf("recorded = %+v", got)
	}
	if got[1].Metadata["streak"] != 7 {
		t.Errorf("metadata = %v", got[1].Metadata)
	}

	cs, _ := s.ListCelebrations(ctx, "alice")
	if len(cs) != 1 {
		t.Fatalf("expected 1 celebration, got %d", len(cs))
	}
	if cs[0].Type != store.CelebrationStreak || *cs[0].Value != 3 || cs[0].MilestoneID != got[0].ID {
		t.Errorf("unexpected celebration %+v", cs[0])
	}
}

func TestCheckStreakSkipsRecorded(t *testing.T) {
	s := newTestStore(t)
	d := newTestDetector()
	ctx := context.Background()

	if _, err := d.CheckStreak(ctx, s, "alice", 2, 3); err != nil {
		t.Fatal(err)
	}
	// Streak broke and was rebuilt past 3 and 7.
	got, err := d.CheckStreak(ctx, s, "alice", 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != 7 {
		t.Fatalf("recorded = %+v", got)
	}
	cs, _ := s.ListCelebrations(ctx, "alice")
	if len(cs) != 2 {
		t.Fatalf("expected 2 celebrations, got %d", len(cs))
	}
}

// ============================================================
// Goal
// ============================================================

func TestCheckGoal(t *testing.T) {
	s := newTestStore(t)
	d := newTestDetector()
	ctx := context.Background()

	hit, err := d.CheckGoal(ctx, s, "alice", 100, 170, 180)
	if err != nil || hit {
		t.Fatalf("below target: hit=%v err=%v", hit, err)
	}
	hit, err = d.CheckGoal(ctx, s, "alice", 170, 200, 180)
	if err != nil || !hit {
		t.Fatalf("crossing target: hit=%v err=%v", hit, err)
	}
	hit, _ = d.CheckGoal(ctx, s, "alice", 200, 260, 180)
	if hit {
		t.Error("already past target should not celebrate again")
	}

	ms, _ := s.ListMilestones(ctx, "alice")
	if len(ms) != 1 || ms[0].Type != store.MilestoneConsistency || ms[0].Value != PerfectDayScore {
		t.Errorf("milestones = %+v", ms)
	}

	// A later day crossing the target celebrates but does not record again.
	hit, _ = d.CheckGoal(ctx, s, "alice", 0, 180, 180)
	if !hit {
		t.Error("expected second day to celebrate")
	}
	ms, _ = s.ListMilestones(ctx, "alice")
	if len(ms) != 1 {
		t.Errorf("expected 1 milestone, got %d", len(ms))
	}
	cs, _ := s.ListCelebrations(ctx, "alice")
	if len(cs) != 2 {
		t.Errorf("expected 2 celebrations, got %d", len(cs))
	}
}

// ============================================================
// Failures
// ============================================================

type failingRecorder struct {
	err error
}

func (f *failingRecorder) RecordMilestone(context.Context, *store.Milestone) (bool, error) {
	return true, nil
}

func (f *failingRecorder) EnqueueCelebration(context.Context, *store.Celebration) error {
	return f.err
}

func TestCheckTimePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	d := newTestDetector()
	_, err := d.CheckTime(context.Background(), &failingRecorder{err: boom}, "alice", 0, 200, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

// ============================================================
// Cooldown
// ============================================================

func TestCooldown(t *testing.T) {
	c := NewCooldown(0)
	t0 := fixedNow
	if !c.Allow("streak_achieved", t0) {
		t.Fatal("first show should be allowed")
	}
	if c.Allow("streak_achieved", t0.Add(4*time.Second)) {
		t.Error("same source inside cooldown should be held")
	}
	if !c.Allow("time_added", t0.Add(time.Second)) {
		t.Error("different source should be allowed")
	}
	if !c.Allow("streak_achieved", t0.Add(5*time.Second)) {
		t.Error("after cooldown should be allowed")
	}
}

func TestByPriority(t *testing.T) {
	cs := []store.Celebration{
		{ID: "a", Priority: 1, TriggeredAt: fixedNow},
		{ID: "b", Priority: 4, TriggeredAt: fixedNow},
		{ID: "c", Priority: 1, TriggeredAt: fixedNow.Add(time.Minute)},
	}
	ByPriority(cs)
	var ids []string
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	if !slices.Equal(ids, []string{"b", "c", "a"}) {
		t.Errorf("order = %v", ids)
	}
}

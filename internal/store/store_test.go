package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

const (
	alice = "alice"
	bob   = "bob"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestTask(t *testing.T, s *Store, owner, title, topic string) *Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), owner, TaskAttrs{Title: title, Topic: topic, Color: "#6C63FF"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func mustAppend(t *testing.T, s *Store, owner, taskID string, minutes int, at time.Time) *TimeEntry {
	t.Helper()
	e, err := s.AppendEntry(context.Background(), owner, taskID, minutes, "", at)
	if err != nil {
		t.Fatalf("append entry: %v", err)
	}
	return e
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/tempo.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen, should not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.CreateTask(ctx, alice, TaskAttrs{Title: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	tasks, _ := s.ListTasks(ctx, alice)
	if len(tasks) != 0 {
		t.Fatal("rolled back task should not exist")
	}
}

func TestInTxNested(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx *Store) error {
		return tx.InTx(ctx, func(inner *Store) error {
			_, err := inner.CreateTask(ctx, alice, TaskAttrs{Title: "Nested"})
			return err
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	tasks, _ := s.ListTasks(ctx, alice)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
}

// ============================================================
// Tasks
// ============================================================

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task, err := s.CreateTask(ctx, alice, TaskAttrs{Title: "Write", Topic: "Book", Subtopic: "Ch1", Color: "#FF0000"})
	if err != nil {
		t.Fatal(err)
	}
	if task.ID == "" {
		t.Fatal("expected an ID")
	}
	if task.Title != "Write" || task.Topic != "Book" || task.Subtopic != "Ch1" || task.Color != "#FF0000" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}

	fetched, err := s.GetTask(ctx, alice, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Title != "Write" {
		t.Fatalf("GetTask returned wrong title: %s", fetched.Title)
	}
}

func TestGetTaskOtherOwnerIsNotFound(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, alice, "Private", "")
	_, err := s.GetTask(context.Background(), bob, task.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasksSortedAndScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestTask(t, s, alice, "B", "")
	newTestTask(t, s, alice, "A", "")
	newTestTask(t, s, bob, "C", "")

	tasks, err := s.ListTasks(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "A" || tasks[1].Title != "B" {
		t.Fatalf("expected sorted by title: got %s, %s", tasks[0].Title, tasks[1].Title)
	}
}

func TestListTasksEmpty(t *testing.T) {
	s := newTestStore(t)
	tasks, err := s.ListTasks(context.Background(), alice)
	if err != nil {
		t.Fatal(err)
	}
	if tasks != nil {
		t.Fatalf("expected nil slice, got %d items", len(tasks))
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := newTestTask(t, s, alice, "Old", "A")
	if err := s.UpdateTask(ctx, alice, task.ID, TaskAttrs{Title: "New", Topic: "B"}); err != nil {
		t.Fatal(err)
	}
	updated, _ := s.GetTask(ctx, alice, task.ID)
	if updated.Title != "New" || updated.Topic != "B" {
		t.Fatalf("update failed: %+v", updated)
	}
	if err := s.UpdateTask(ctx, bob, task.ID, TaskAttrs{Title: "Hijack"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
}

func TestDeleteTaskKeepsEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := newTestTask(t, s, alice, "Gone", "Topic")
	at := time.Now()
	mustAppend(t, s, alice, task.ID, 45, at)

	if err := s.DeleteTask(ctx, alice, task.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTask(ctx, alice, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("task should be gone")
	}
	entries, _ := s.EntriesInRange(ctx, alice, at.Add(-time.Hour), at.Add(time.Hour))
	if len(entries) != 1 || entries[0].TaskTitle != "Gone" {
		t.Fatalf("entry should survive with its snapshot: %+v", entries)
	}
	if err := s.DeleteTask(ctx, alice, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

// ============================================================
// Time entry ledger
// ============================================================

func TestAppendEntrySnapshotsTask(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, alice, "Deep work", "Research")
	at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	e, err := s.AppendEntry(context.Background(), alice, task.ID, 50, "focus", at)
	if err != nil {
		t.Fatal(err)
	}
	if e.DurationMinutes != 50 || e.Note != "focus" || e.OwnerID != alice || e.TaskID != task.ID {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !e.StartedAt.Equal(at) {
		t.Fatalf("StartedAt = %v, want %v", e.StartedAt, at)
	}
	if e.TaskTitle != "Deep work" || e.TaskTopic != "Research" || e.TaskColor != "#6C63FF" {
		t.Fatalf("snapshot not copied: %+v", e)
	}
}

func TestAppendEntryRejectsNonPositiveDuration(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, alice, "T", "")
	for _, d := range []int{0, -5} {
		_, err := s.AppendEntry(context.Background(), alice, task.ID, d, "", time.Now())
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("duration %d: expected ErrInvalidArgument, got %v", d, err)
		}
	}
}

func TestAppendEntryUnknownOrForeignTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AppendEntry(ctx, alice, "missing", 10, "", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	task := newTestTask(t, s, bob, "Bob's", "")
	if _, err := s.AppendEntry(ctx, alice, task.ID, 10, "", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign task, got %v", err)
	}
}

func TestEntriesInRangeHalfOpen(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, alice, "T", "")
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mustAppend(t, s, alice, task.ID, 10, start.Add(-time.Millisecond))
	mustAppend(t, s, alice, task.ID, 20, start)
	mustAppend(t, s, alice, task.ID, 30, end.Add(-time.Millisecond))
	mustAppend(t, s, alice, task.ID, 40, end)

	entries, err := s.EntriesInRange(context.Background(), alice, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].DurationMinutes != 20 || entries[1].DurationMinutes != 30 {
		t.Fatalf("expected ascending 20, 30: got %d, %d", entries[0].DurationMinutes, entries[1].DurationMinutes)
	}
}

func TestEntriesInRangeOwnerScoped(t *testing.T) {
	s := newTestStore(t)
	at := time.Now()
	ta := newTestTask(t, s, alice, "A", "")
	tb := newTestTask(t, s, bob, "B", "")
	mustAppend(t, s, alice, ta.ID, 10, at)
	mustAppend(t, s, bob, tb.ID, 10, at)

	entries, _ := s.EntriesInRange(context.Background(), alice, at.Add(-time.Hour), at.Add(time.Hour))
	if len(entries) != 1 || entries[0].OwnerID != alice {
		t.Fatalf("expected only alice's entry: %+v", entries)
	}
}

func TestListEntriesNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	task := newTestTask(t, s, alice, "T", "")
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mustAppend(t, s, alice, task.ID, 10+i, base.Add(time.Duration(i)*time.Hour))
	}

	entries, err := s.ListEntries(context.Background(), alice, EntryFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].DurationMinutes != 12 {
		t.Fatalf("expected newest first, got %d", entries[0].DurationMinutes)
	}
}

func TestListEntriesFilterByTask(t *testing.T) {
	s := newTestStore(t)
	t1 := newTestTask(t, s, alice, "One", "")
	t2 := newTestTask(t, s, alice, "Two", "")
	mustAppend(t, s, alice, t1.ID, 10, time.Now())
	mustAppend(t, s, alice, t2.ID, 20, time.Now())

	entries, _ := s.ListEntries(context.Background(), alice, EntryFilter{TaskID: t2.ID})
	if len(entries) != 1 || entries[0].TaskID != t2.ID {
		t.Fatalf("filter by task failed: %+v", entries)
	}
}

func TestDaySummary(t *testing.T) {
	s := newTestStore(t)
	t1 := newTestTask(t, s, alice, "One", "")
	t2 := newTestTask(t, s, alice, "Two", "")
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mustAppend(t, s, alice, t1.ID, 30, day.Add(time.Hour))
	mustAppend(t, s, alice, t1.ID, 15, day.Add(2*time.Hour))
	mustAppend(t, s, alice, t2.ID, 20, day.Add(3*time.Hour))
	mustAppend(t, s, alice, t2.ID, 99, day.Add(25*time.Hour))

	minutes, tasks, err := s.DaySummary(context.Background(), alice, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if minutes != 65 || tasks != 2 {
		t.Fatalf("expected 65 minutes over 2 tasks, got %d over %d", minutes, tasks)
	}
}

func TestTaskTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t1 := newTestTask(t, s, alice, "One", "")
	t2 := newTestTask(t, s, alice, "Two", "")
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mustAppend(t, s, alice, t1.ID, 30, day.Add(-time.Hour))
	mustAppend(t, s, alice, t1.ID, 15, day.Add(time.Hour))
	mustAppend(t, s, alice, t2.ID, 20, day.Add(2*time.Hour))

	all, err := s.TaskTotals(ctx, alice, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if all[t1.ID] != 45 || all[t2.ID] != 20 {
		t.Fatalf("unexpected all-time totals: %v", all)
	}
	end := day.Add(24 * time.Hour)
	today, _ := s.TaskTotals(ctx, alice, &day, &end)
	if today[t1.ID] != 15 {
		t.Fatalf("unexpected ranged totals: %v", today)
	}
	total, _ := s.TaskTotalMinutes(ctx, alice, t1.ID)
	if total != 45 {
		t.Fatalf("TaskTotalMinutes = %d, want 45", total)
	}
}

func TestRefreshEntrySnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := newTestTask(t, s, alice, "Old", "A")
	other := newTestTask(t, s, alice, "Other", "A")
	at := time.Now()
	mustAppend(t, s, alice, task.ID, 10, at)
	mustAppend(t, s, alice, task.ID, 20, at.Add(time.Minute))
	mustAppend(t, s, alice, other.ID, 30, at)

	n, err := s.RefreshEntrySnapshots(ctx, alice, task.ID, TaskAttrs{Title: "New", Topic: "B", Color: "#000"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 patched entries, got %d", n)
	}
	entries, _ := s.ListEntries(ctx, alice, EntryFilter{})
	for _, e := range entries {
		switch e.TaskID {
		case task.ID:
			if e.TaskTitle != "New" || e.TaskTopic != "B" || e.TaskColor != "#000" {
				t.Fatalf("entry not refreshed: %+v", e)
			}
		case other.ID:
			if e.TaskTopic != "A" {
				t.Fatalf("unrelated entry touched: %+v", e)
			}
		}
	}
}

// ============================================================
// Settings
// ============================================================

func TestUserSettingsDefaultAndLazyCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	us, err := s.GetUserSettings(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if us.DayStartHour != 0 {
		t.Fatalf("default day start should be 0, got %d", us.DayStartHour)
	}
	all, _ := s.GetAllSettings(ctx, alice)
	if len(all) != 0 {
		t.Fatal("settings row should not exist before first write")
	}

	if err := s.SetDayStartHour(ctx, alice, 6); err != nil {
		t.Fatal(err)
	}
	us, _ = s.GetUserSettings(ctx, alice)
	if us.DayStartHour != 6 {
		t.Fatalf("expected 6, got %d", us.DayStartHour)
	}
	other, _ := s.GetUserSettings(ctx, bob)
	if other.DayStartHour != 0 {
		t.Fatal("settings leaked across owners")
	}
}

func TestSetDayStartHourValidates(t *testing.T) {
	s := newTestStore(t)
	for _, h := range []int{-1, 24} {
		if err := s.SetDayStartHour(context.Background(), alice, h); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("hour %d: expected ErrInvalidArgument, got %v", h, err)
		}
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting(context.Background(), alice, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Daily stats
// ============================================================

func TestUpsertDailyStatKeepsOneRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ds := DailyStat{OwnerID: alice, Date: "2025-03-10", DailyMinutes: 30, TasksWorkedOn: 1, StreakCount: 1}
	if err := s.UpsertDailyStat(ctx, ds); err != nil {
		t.Fatal(err)
	}
	ds.DailyMinutes = 90
	ds.TasksWorkedOn = 2
	ds.Momentum = 70
	if err := s.UpsertDailyStat(ctx, ds); err != nil {
		t.Fatal(err)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM daily_stats WHERE owner_id = ? AND date = ?`, alice, "2025-03-10").Scan(&n)
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	got, err := s.GetDailyStat(ctx, alice, "2025-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if got.DailyMinutes != 90 || got.TasksWorkedOn != 2 || got.Momentum != 70 {
		t.Fatalf("upsert did not patch: %+v", got)
	}
}

func TestGetDailyStatNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDailyStat(context.Background(), alice, "2025-03-10")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentAndBetweenDailyStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"2025-03-07", "2025-03-08", "2025-03-09", "2025-03-10"} {
		s.UpsertDailyStat(ctx, DailyStat{OwnerID: alice, Date: d, DailyMinutes: 40})
	}
	s.UpsertDailyStat(ctx, DailyStat{OwnerID: bob, Date: "2025-03-09", DailyMinutes: 40})

	recent, err := s.RecentDailyStats(ctx, alice, "2025-03-09", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Date != "2025-03-09" || recent[1].Date != "2025-03-08" {
		t.Fatalf("unexpected recent stats: %+v", recent)
	}

	between, _ := s.DailyStatsBetween(ctx, alice, "2025-03-08", "2025-03-10")
	if len(between) != 3 || between[0].Date != "2025-03-08" {
		t.Fatalf("unexpected stats between: %+v", between)
	}
}

// ============================================================
// Milestones
// ============================================================

func TestRecordMilestoneDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	m := &Milestone{OwnerID: alice, Type: MilestoneTime, Value: 60, AchievedAt: now, TaskID: "t1", TaskTitle: "T"}
	inserted, err := s.RecordMilestone(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted || m.ID == "" {
		t.Fatal("first record should insert")
	}

	dup := &Milestone{OwnerID: alice, Type: MilestoneTime, Value: 60, AchievedAt: now}
	inserted, err = s.RecordMilestone(ctx, dup)
	if err != nil {
		t.Fatal(err)
	}
	if inserted || dup.ID != "" {
		t.Fatal("duplicate (owner, type, value) must not insert")
	}

	other := &Milestone{OwnerID: bob, Type: MilestoneTime, Value: 60, AchievedAt: now}
	if inserted, _ := s.RecordMilestone(ctx, other); !inserted {
		t.Fatal("another owner may record the same threshold")
	}

	list, _ := s.ListMilestones(ctx, alice)
	if len(list) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(list))
	}
}

func TestMilestoneMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := &Milestone{OwnerID: alice, Type: MilestoneStreak, Value: 7, AchievedAt: time.Now(), Metadata: map[string]int{"streak": 7}}
	if _, err := s.RecordMilestone(ctx, m); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListMilestones(ctx, alice)
	if len(list) != 1 || list[0].Metadata["streak"] != 7 || list[0].Type != MilestoneStreak {
		t.Fatalf("unexpected milestone: %+v", list)
	}
}

// ============================================================
// Celebrations
// ============================================================

func TestPendingCelebrationsLimitAndPriority(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		v := 10 * (i + 1)
		s.EnqueueCelebration(ctx, &Celebration{OwnerID: alice, Type: CelebrationTimeAdded, TriggeredAt: base.Add(time.Duration(i) * time.Minute), Value: &v, Priority: 1})
	}
	s.EnqueueCelebration(ctx, &Celebration{OwnerID: alice, Type: CelebrationStreak, TriggeredAt: base.Add(10 * time.Minute), Priority: 4})

	pending, err := s.PendingCelebrations(ctx, alice, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 5 {
		t.Fatalf("expected 5 pending, got %d", len(pending))
	}
	if pending[0].Type != CelebrationStreak {
		t.Fatalf("highest priority first, got %s", pending[0].Type)
	}
	// The two oldest time_added rows fall outside the window.
	for _, c := range pending[1:] {
		if *c.Value <= 20 {
			t.Fatalf("old celebration %d should be outside the window", *c.Value)
		}
	}
}

func TestMarkCelebrationShown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := &Celebration{OwnerID: alice, Type: CelebrationMilestone, TriggeredAt: time.Now(), Priority: 3}
	if err := s.EnqueueCelebration(ctx, c); err != nil {
		t.Fatal(err)
	}

	if err := s.MarkCelebrationShown(ctx, bob, c.ID, time.Now()); !errors.Is(err, ErrWrongOwner) {
		t.Fatalf("expected ErrWrongOwner, got %v", err)
	}
	if err := s.MarkCelebrationShown(ctx, alice, "missing", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.MarkCelebrationShown(ctx, alice, c.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	// Idempotent
	if err := s.MarkCelebrationShown(ctx, alice, c.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	pending, _ := s.PendingCelebrations(ctx, alice, 5)
	if len(pending) != 0 {
		t.Fatal("shown celebration should not be pending")
	}
	history, _ := s.ListCelebrations(ctx, alice)
	if len(history) != 1 || !history[0].Shown || history[0].ShownAt == nil {
		t.Fatalf("history should retain shown celebration: %+v", history)
	}
}

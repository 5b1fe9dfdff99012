package store

import "time"

type Task struct {
	ID        string
	OwnerID   string
	Title     string
	Topic     string
	Subtopic  string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskAttrs are the display attributes snapshotted onto every entry.
type TaskAttrs struct {
	Title    string
	Topic    string
	Subtopic string
	Color    string
}

func (t Task) Attrs() TaskAttrs {
	return TaskAttrs{Title: t.Title, Topic: t.Topic, Subtopic: t.Subtopic, Color: t.Color}
}

type TimeEntry struct {
	ID              string
	OwnerID         string
	TaskID          string
	DurationMinutes int
	StartedAt       time.Time
	Note            string

	// Snapshot of the task at write time, refreshed when the task is edited.
	TaskTitle    string
	TaskTopic    string
	TaskSubtopic string
	TaskColor    string

	CreatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}

// UserSettings is the typed view over an owner's settings rows.
type UserSettings struct {
	DayStartHour int
}

// DailyStat is the per (owner, date) rollup written on every time add.
type DailyStat struct {
	OwnerID          string
	Date             string
	DailyMinutes     int
	TasksWorkedOn    int
	StreakCount      int
	ConsistencyScore int
	Momentum         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type MilestoneType string

const (
	MilestoneTime        MilestoneType = "time_milestone"
	MilestoneStreak      MilestoneType = "streak_milestone"
	MilestoneTask        MilestoneType = "task_milestone"
	MilestoneConsistency MilestoneType = "consistency_score"
)

type Milestone struct {
	ID         string
	OwnerID    string
	Type       MilestoneType
	Value      int
	AchievedAt time.Time
	TaskID     string
	TaskTitle  string
	Metadata   map[string]int
}

type CelebrationType string

const (
	CelebrationTimeAdded     CelebrationType = "time_added"
	CelebrationMilestone     CelebrationType = "milestone_reached"
	CelebrationStreak        CelebrationType = "streak_achieved"
	CelebrationGoalCompleted CelebrationType = "goal_completed"
)

type Celebration struct {
	ID          string
	OwnerID     string
	Type        CelebrationType
	TriggeredAt time.Time
	Value       *int
	MilestoneID string
	Priority    int
	Shown       bool
	ShownAt     *time.Time
}

// EntryFilter is used to filter time entries in queries.
type EntryFilter struct {
	TaskID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// TaskTotal is the minutes logged against one task.
type TaskTotal struct {
	TaskID  string
	Minutes int
}

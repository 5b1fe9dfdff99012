package tui

import (
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// timerState tracks the current state of the timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel measures a block of work in memory. Nothing is written until the
// block is stopped and logged as one entry.
type timerModel struct {
	state     timerState
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration

	taskID    string
	taskTitle string
	taskTopic string

	// Idle detection
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel() timerModel {
	return timerModel{
		state:        timerStopped,
		lastActivity: time.Now(),
		idleTimeout:  5 * time.Minute,
	}
}

func (t *timerModel) start(task store.Task) {
	t.state = timerRunning
	t.startTime = time.Now()
	t.pauseGap = 0
	t.taskID = task.ID
	t.taskTitle = task.Title
	t.taskTopic = task.Topic
	t.lastActivity = time.Now()
	t.isIdle = false
}

// stop ends the block and returns the active time, excluding pauses.
func (t *timerModel) stop() time.Duration {
	if t.state == timerStopped {
		return 0
	}
	d := t.currentElapsed()
	t.state = timerStopped
	return d
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = time.Now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += time.Since(t.pausedAt)
	t.state = timerRunning
	t.isIdle = false
	t.lastActivity = time.Now()
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

func (t *timerModel) tick() {
	if t.state == timerRunning && !t.isIdle && time.Since(t.lastActivity) > t.idleTimeout {
		t.isIdle = true
		t.pause()
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = time.Now()
	if t.isIdle && t.state == timerPaused {
		t.resume()
	}
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerStopped:
		return 0
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	}
	return time.Since(t.startTime) - t.pauseGap
}

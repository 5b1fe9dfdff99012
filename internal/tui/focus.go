package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/engine"
)

// focusNote is attached to entries logged by completed focus rounds.
const focusNote = "focus session"

type focusPhase int

const (
	focusIdle focusPhase = iota
	focusWork
	focusShortBreak
	focusLongBreak
	focusCompleted
)

var phaseNames = map[focusPhase]string{
	focusIdle:       "IDLE",
	focusWork:       "WORK",
	focusShortBreak: "SHORT BREAK",
	focusLongBreak:  "LONG BREAK",
	focusCompleted:  "COMPLETED",
}

// FocusSettings configures focus rounds.
type FocusSettings struct {
	Work      time.Duration
	Break     time.Duration
	LongBreak time.Duration
	Rounds    int
}

func (f FocusSettings) withDefaults() FocusSettings {
	if f.Work <= 0 {
		f.Work = 25 * time.Minute
	}
	if f.Break <= 0 {
		f.Break = 5 * time.Minute
	}
	if f.LongBreak <= 0 {
		f.LongBreak = 15 * time.Minute
	}
	if f.Rounds <= 0 {
		f.Rounds = 4
	}
	return f
}

type focusModel struct {
	engine *engine.Engine
	ctx    context.Context
	now    func() time.Time
	width  int
	height int

	settings FocusSettings
	tasks    []engine.TaskSummary
	selected int

	phase     focusPhase
	completed int
	remaining time.Duration
	phaseEnd  time.Time
}

func newFocusModel(ctx context.Context, e *engine.Engine, settings FocusSettings) focusModel {
	return focusModel{
		engine:   e,
		ctx:      ctx,
		now:      time.Now,
		settings: settings.withDefaults(),
		phase:    focusIdle,
	}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f focusModel) task() (engine.TaskSummary, bool) {
	if f.selected < 0 || f.selected >= len(f.tasks) {
		return engine.TaskSummary{}, false
	}
	return f.tasks[f.selected], true
}

func (f focusModel) active() bool {
	return f.phase == focusWork || f.phase == focusShortBreak || f.phase == focusLongBreak
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.snapshot != nil {
			f.tasks = msg.snapshot.Tasks
		}
		if f.selected >= len(f.tasks) {
			f.selected = 0
		}
		return f, nil

	case tickMsg:
		if f.active() {
			f.remaining = f.phaseEnd.Sub(f.now())
			if f.remaining <= 0 {
				return f.advancePhase()
			}
		}
		return f, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if !f.active() && f.selected > 0 {
				f.selected--
			}
		case key.Matches(msg, keys.Right):
			if !f.active() && f.selected < len(f.tasks)-1 {
				f.selected++
			}
		case key.Matches(msg, keys.Start):
			if f.phase == focusIdle || f.phase == focusCompleted {
				return f.startSession()
			}
		case key.Matches(msg, keys.Stop):
			if f.phase != focusIdle {
				return f.cancelSession()
			}
		case key.Matches(msg, keys.Pause):
			// Skip break
			if f.phase == focusShortBreak || f.phase == focusLongBreak {
				return f.startWorkPhase()
			}
		}
	}
	return f, nil
}

func (f focusModel) startSession() (focusModel, tea.Cmd) {
	if _, ok := f.task(); !ok {
		return f, statusCmd("Create a task before starting a focus session")
	}
	f.completed = 0
	return f.startWorkPhase()
}

func (f focusModel) startWorkPhase() (focusModel, tea.Cmd) {
	f.phase = focusWork
	f.remaining = f.settings.Work
	f.phaseEnd = f.now().Add(f.settings.Work)
	return f, nil
}

// advancePhase ends the current phase. A finished work round is logged
// against the selected task.
func (f focusModel) advancePhase() (focusModel, tea.Cmd) {
	switch f.phase {
	case focusWork:
		f.completed++
		var cmd tea.Cmd
		if t, ok := f.task(); ok {
			cmd = addTimeCmd(f.ctx, f.engine, t.ID, t.Title, int(f.settings.Work/time.Minute), focusNote)
		}

		if f.completed >= f.settings.Rounds {
			f.phase = focusCompleted
			f.remaining = 0
			return f, cmd
		}

		next := f.settings.Break
		f.phase = focusShortBreak
		if f.completed%4 == 0 {
			next = f.settings.LongBreak
			f.phase = focusLongBreak
		}
		f.remaining = next
		f.phaseEnd = f.now().Add(next)
		return f, cmd

	case focusShortBreak, focusLongBreak:
		return f.startWorkPhase()
	}
	return f, nil
}

func (f focusModel) cancelSession() (focusModel, tea.Cmd) {
	f.phase = focusIdle
	f.remaining = 0
	return f, statusCmd("Focus session cancelled")
}

func (f focusModel) view() string {
	w := f.width - 4

	title := titleStyle.Render("Focus")

	taskLine := mutedStyle.Render("No tasks yet")
	if t, ok := f.task(); ok {
		taskLine = fmt.Sprintf("%s %s", dot(t.Color), highlightStyle.Render(t.Title))
		if !f.active() && len(f.tasks) > 1 {
			taskLine = mutedStyle.Render("← ") + taskLine + mutedStyle.Render(" →")
		}
	}

	var timeDisplay, phaseLabel, indicator string
	switch f.phase {
	case focusIdle:
		timeDisplay = timerStyle.Width(w - 6).Render(formatCountdown(f.settings.Work))
		phaseLabel = mutedStyle.Render("Ready to start")
		indicator = mutedStyle.Render("Press s to begin")
	case focusWork:
		timeDisplay = accentStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatCountdown(f.remaining))
		phaseLabel = accentStyle.Bold(true).Render(phaseNames[f.phase])
		indicator = f.renderProgress()
	case focusShortBreak:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatCountdown(f.remaining))
		phaseLabel = successStyle.Bold(true).Render(phaseNames[f.phase])
		indicator = f.renderProgress()
	case focusLongBreak:
		timeDisplay = highlightStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(formatCountdown(f.remaining))
		phaseLabel = highlightStyle.Bold(true).Render(phaseNames[f.phase])
		indicator = f.renderProgress()
	case focusCompleted:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("Done!")
		phaseLabel = successStyle.Bold(true).Render("SESSION COMPLETE")
		indicator = f.renderProgress()
	}

	var controls string
	switch f.phase {
	case focusIdle, focusCompleted:
		controls = mutedStyle.Render("←/→: task  s: start")
	case focusWork:
		controls = mutedStyle.Render("x: cancel")
	case focusShortBreak, focusLongBreak:
		controls = mutedStyle.Render("space: skip break  x: cancel")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			title, "", taskLine, "", timeDisplay, phaseLabel, "", indicator, "", controls,
		),
	)
}

func (f focusModel) renderProgress() string {
	var parts []string
	for i := range f.settings.Rounds {
		switch {
		case i < f.completed:
			parts = append(parts, successStyle.Render("●"))
		case i == f.completed && f.phase == focusWork:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ") + mutedStyle.Render(fmt.Sprintf("  %d/%d", f.completed, f.settings.Rounds))
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

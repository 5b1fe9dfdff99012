package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/engine"
)

type dashboardModel struct {
	engine *engine.Engine
	ctx    context.Context
	timer  timerModel
	width  int
	height int

	snapshot *engine.Dashboard

	// Task picker state
	picking      bool
	pickerCursor int

	// Add-time form; pointers survive value copies
	formActive  bool
	form        *huh.Form
	formTask    *string
	formMinutes *string
	formNote    *string
}

func newDashboardModel(ctx context.Context, e *engine.Engine) dashboardModel {
	task, mins, note := "", "", ""
	return dashboardModel{
		engine:      e,
		ctx:         ctx,
		timer:       newTimerModel(),
		formTask:    &task,
		formMinutes: &mins,
		formNote:    &note,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isPaused() bool  { return d.timer.paused() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

func (d dashboardModel) tasks() []engine.TaskSummary {
	if d.snapshot == nil {
		return nil
	}
	return d.snapshot.Tasks
}

type dashboardDataMsg struct {
	snapshot *engine.Dashboard
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		start, err := d.engine.TodayStart(d.ctx)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Dashboard: %v", err), isError: true}
		}
		snap, err := d.engine.GetDashboardSnapshot(d.ctx, start)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Dashboard: %v", err), isError: true}
		}
		return dashboardDataMsg{snapshot: snap}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	// Data and ticks keep flowing while the add-time form is open.
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.snapshot = msg.snapshot
		if d.pickerCursor >= len(d.tasks()) {
			d.pickerCursor = max(0, len(d.tasks())-1)
		}
		return d, nil
	case tickMsg:
		d.timer.tick()
		return d, nil
	}

	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		d.timer.recordActivity()

		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if d.timer.running() {
				return d, nil
			}
			tasks := d.tasks()
			if len(tasks) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No tasks yet. Press 2 to go to Tasks and create one.", isError: true}
				}
			}
			if len(tasks) == 1 {
				return d.startTimer(tasks[0])
			}
			d.picking = true
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			d.timer.toggle()
			return d, nil

		case key.Matches(msg, keys.AddTime):
			if len(d.tasks()) == 0 {
				return d, statusCmd("Create a task first")
			}
			return d.showAddTimeForm()
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	tasks := d.tasks()
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(tasks)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor < len(tasks) {
			return d.startTimer(tasks[d.pickerCursor])
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

func (d dashboardModel) startTimer(t engine.TaskSummary) (dashboardModel, tea.Cmd) {
	d.timer.start(t.Task)
	return d, func() tea.Msg { return timerStartedMsg{} }
}

// stopTimer logs the measured block, rounded to whole minutes.
func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	taskID, title := d.timer.taskID, d.timer.taskTitle
	mins := elapsedMinutes(d.timer.stop())
	if mins < 1 {
		return d, statusCmd("Timer stopped under a minute, nothing logged")
	}
	return d, addTimeCmd(d.ctx, d.engine, taskID, title, mins, "")
}

func addTimeCmd(ctx context.Context, e *engine.Engine, taskID, title string, mins int, note string) tea.Cmd {
	return func() tea.Msg {
		id, err := e.AddTime(ctx, taskID, mins, note)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Add time: %v", err), isError: true}
		}
		return timeAddedMsg{entryID: id, minutes: mins, task: title}
	}
}

func (d dashboardModel) showAddTimeForm() (dashboardModel, tea.Cmd) {
	tasks := d.tasks()
	options := make([]huh.Option[string], len(tasks))
	for i, t := range tasks {
		options[i] = huh.NewOption(t.Title, t.ID)
	}
	*d.formTask = tasks[0].ID
	*d.formMinutes = ""
	*d.formNote = ""

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Task").Options(options...).Value(d.formTask),
			huh.NewInput().Title("Minutes").Value(d.formMinutes).Validate(validateMinutes),
			huh.NewInput().Title("Note").Value(d.formNote),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func validateMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of minutes")
	}
	return nil
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		mins, _ := strconv.Atoi(strings.TrimSpace(*d.formMinutes))
		title := ""
		for _, t := range d.tasks() {
			if t.ID == *d.formTask {
				title = t.Title
			}
		}
		return d, addTimeCmd(d.ctx, d.engine, *d.formTask, title, mins, strings.TrimSpace(*d.formNote))
	}
	return d, cmd
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		return activePanelStyle.Width(contentWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Add Time"), "", d.form.View()),
		)
	}

	var bottom string
	if d.picking {
		bottom = d.renderTaskPicker(contentWidth)
	} else {
		bottom = d.renderTasksPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderTodayPanel(contentWidth),
		bottom,
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := formatDuration(d.timer.currentElapsed())

		var timeDisplay, indicator string
		if d.timer.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			if d.timer.isIdle {
				indicator = warningStyle.Render("⏸  IDLE")
			} else {
				indicator = warningStyle.Render("⏸  PAUSED")
			}
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}

		taskLine := highlightStyle.Render(d.timer.taskTitle)
		if d.timer.taskTopic != "" {
			taskLine = mutedStyle.Render(d.timer.taskTopic+" / ") + taskLine
		}

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, taskLine)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start tracking, a to add time"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderTodayPanel(w int) string {
	if d.snapshot == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}
	snap := d.snapshot

	header := fmt.Sprintf("%s  %s", titleStyle.Render("Today"), highlightStyle.Render(formatMinutes(snap.TotalToday)))
	scores := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Streak"), statValueStyle.Render(fmt.Sprintf("%-8s", fmt.Sprintf("%dd", snap.Stats.Streak))),
		statLabelStyle.Render("Consistency"), statValueStyle.Render(fmt.Sprintf("%-8s", fmt.Sprintf("%d%%", snap.Stats.Consistency))),
		statLabelStyle.Render("Momentum"), statValueStyle.Render(strconv.Itoa(snap.Stats.Momentum)),
	)

	rows := []string{header, scores, ""}
	if len(snap.Today) == 0 {
		rows = append(rows, mutedStyle.Render("No entries today"))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	groups := make([]string, 0, len(snap.Today))
	for k := range snap.Today {
		groups = append(groups, k)
	}
	slices.Sort(groups)
	for _, k := range groups {
		g := snap.Today[k]
		color := ""
		if len(g.Entries) > 0 {
			color = g.Entries[0].TaskColor
		}
		rows = append(rows, fmt.Sprintf("  %s %-28s %8s  (%d entries)", dot(color), k, formatMinutes(g.Total), len(g.Entries)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTasksPanel(w int) string {
	title := titleStyle.Render("Tasks")
	tasks := d.tasks()
	if len(tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No tasks yet"),
		))
	}

	rows := []string{title, mutedStyle.Render(fmt.Sprintf("    %-24s %10s %10s", "Task", "Today", "Total"))}
	for _, t := range tasks {
		rows = append(rows, fmt.Sprintf("  %s %-24s %10s %10s", dot(t.Color), t.Title, formatMinutes(t.TodayMinutes), formatHours(t.TotalMinutes)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTaskPicker(w int) string {
	rows := []string{titleStyle.Render("Select Task")}
	for i, t := range d.tasks() {
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, dot(t.Color), t.Title)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

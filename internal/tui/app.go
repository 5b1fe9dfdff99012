package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/engine"
	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/milestone"
	"github.com/sadopc/tempo/internal/store"
)

// Options configures the App.
type Options struct {
	// Cooldown spaces out celebrations of the same kind. Zero means
	// milestone.DefaultCooldown.
	Cooldown time.Duration
	Focus    FocusSettings
	// Info lists read-only configuration shown on the settings view.
	Info []store.Setting
	// ExportDir is where exports are written. Defaults to the home directory.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	engine *engine.Engine
	ctx    context.Context
	opts   Options
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	tasks     tasksModel
	reports   reportsModel
	focus     focusModel
	settings  settingsModel
	toast     toastModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the root model. ctx must carry the owner, see engine.WithOwner.
func NewApp(ctx context.Context, e *engine.Engine, opts Options) App {
	if opts.Cooldown <= 0 {
		opts.Cooldown = milestone.DefaultCooldown
	}
	h := help.New()
	h.ShowAll = false

	return App{
		engine:     e,
		ctx:        ctx,
		opts:       opts,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(ctx, e),
		tasks:      newTasksModel(ctx, e),
		reports:    newReportsModel(ctx, e),
		focus:      newFocusModel(ctx, e, opts.Focus),
		settings:   newSettingsModel(ctx, e, opts.Info),
		toast:      newToastModel(opts.Cooldown),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (e.g. form) gets keys first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewFocus
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The dashboard timer and focus countdown run in every view.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		cmds = append(cmds, cmd)
		a.focus, cmd = a.focus.update(msg)
		cmds = append(cmds, cmd)
		if c := a.toast.advance(time.Time(msg)); c != nil {
			cmds = append(cmds, a.markShown(c.ID))
		}
		return a, tea.Batch(cmds...)

	case dashboardDataMsg:
		if msg.snapshot != nil {
			a.toast.offer(msg.snapshot.Celebrations)
		}
		a.dashboard, _ = a.dashboard.update(msg)
		a.focus, _ = a.focus.update(msg)
		return a, nil

	case tasksDataMsg:
		a.tasks, _ = a.tasks.update(msg)
		return a, nil

	case weekDataMsg, monthDataMsg:
		a.reports, _ = a.reports.update(msg)
		return a, nil

	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil

	case settingsSavedMsg:
		a.settings, _ = a.settings.update(msg)
		a.setStatus(fmt.Sprintf("Day now starts at %02d:00", msg.dayStartHour), false)
		return a, tea.Batch(a.dashboard.loadData(), a.reports.refresh())

	case timeAddedMsg:
		a.setStatus(fmt.Sprintf("Logged %s to %s", formatMinutes(msg.minutes), msg.task), false)
		return a, tea.Batch(a.dashboard.loadData(), a.reports.refresh())

	case taskSavedMsg:
		a.setStatus(fmt.Sprintf("Saved %s", msg.title), false)
		return a, tea.Batch(a.tasks.refresh(), a.dashboard.loadData())

	case celebrationShownMsg:
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case timerStartedMsg:
		a.setStatus("Timer started", false)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

func (a App) markShown(id string) tea.Cmd {
	return func() tea.Msg {
		if err := a.engine.MarkCelebrationShown(a.ctx, id); err != nil {
			return statusMsg{text: fmt.Sprintf("Celebration: %v", err), isError: true}
		}
		return celebrationShownMsg{id: id}
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive || a.dashboard.picking
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard, viewFocus:
		return a.dashboard.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTasks:
		content = a.tasks.view()
	case viewReports:
		content = a.reports.view()
	case viewFocus:
		content = a.focus.view()
	case viewSettings:
		content = a.settings.view()
	}

	if t := a.toast.view(); t != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, t, content)
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tempo")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.dashboard.isRunning() {
		elapsed := a.dashboard.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		if a.dashboard.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the whole ledger, plus milestones for JSON, to
// tempo-export-DATE.{csv,json}.
func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		entries, err := a.engine.Entries(a.ctx, store.EntryFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dir := a.opts.ExportDir
		if dir == "" {
			if dir, err = os.UserHomeDir(); err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
		}
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("tempo-export-%s.csv", dateStr))
			if err := export.ToCSV(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			milestones, err := a.engine.Milestones(a.ctx)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			path = filepath.Join(dir, fmt.Sprintf("tempo-export-%s.json", dateStr))
			if err := export.ToJSON(entries, milestones, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}

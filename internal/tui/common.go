package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewReports
	viewFocus
	viewSettings
)

var viewNames = []string{"Dashboard", "Tasks", "Reports", "Focus", "Settings"}

// --- Messages ---

type timerStartedMsg struct{}

type timeAddedMsg struct {
	entryID string
	minutes int
	task    string
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type celebrationShownMsg struct {
	id string
}

// --- Helpers ---

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatMinutes renders a minute count as "2h 05m", or "45m" under an hour.
func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

func formatHours(mins int) string {
	return fmt.Sprintf("%.1fh", float64(mins)/60)
}

// elapsedMinutes rounds a timer duration to whole minutes for the ledger.
func elapsedMinutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}

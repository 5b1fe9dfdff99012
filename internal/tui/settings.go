package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/engine"
	"github.com/sadopc/tempo/internal/store"
)

type settingsModel struct {
	engine *engine.Engine
	ctx    context.Context
	width  int
	height int

	dayStartHour int
	loaded       bool
	info         []store.Setting // read-only config values

	formActive bool
	form       *huh.Form

	// Form value pointer (survives value copies)
	formHour *string
}

func newSettingsModel(ctx context.Context, e *engine.Engine, info []store.Setting) settingsModel {
	h := ""
	return settingsModel{
		engine:   e,
		ctx:      ctx,
		info:     info,
		formHour: &h,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	dayStartHour int
}

type settingsSavedMsg struct {
	dayStartHour int
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		us, err := s.engine.GetUserSettings(s.ctx)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings: %v", err), isError: true}
		}
		return settingsDataMsg{dayStartHour: us.DayStartHour}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.dayStartHour = msg.dayStartHour
		s.loaded = true
		return s, nil

	case settingsSavedMsg:
		s.dayStartHour = msg.dayStartHour
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.formHour = strconv.Itoa(s.dayStartHour)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Day starts at hour (0-23)").
				Description("Time logged before this hour counts toward the previous day").
				Value(s.formHour).
				Validate(validateHour),
		).Title("Day boundary"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validateHour(v string) error {
	h, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || h < 0 || h > 23 {
		return errors.New("enter an hour between 0 and 23")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		h, _ := strconv.Atoi(strings.TrimSpace(*s.formHour))
		return s, s.save(h)
	}
	return s, cmd
}

func (s settingsModel) save(hour int) tea.Cmd {
	return func() tea.Msg {
		if err := s.engine.UpdateUserSettings(s.ctx, hour); err != nil {
			return statusMsg{text: fmt.Sprintf("Save settings: %v", err), isError: true}
		}
		return settingsSavedMsg{dayStartHour: hour}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	hour := mutedStyle.Render("...")
	if s.loaded {
		hour = highlightStyle.Render(fmt.Sprintf("%02d:00", s.dayStartHour))
	}

	rows := []string{
		title,
		"",
		fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("day_start_hour"), hour),
	}
	if len(s.info) > 0 {
		rows = append(rows, "", mutedStyle.Render("  From config file"))
		for _, it := range s.info {
			label := lipgloss.NewStyle().Width(24).Render(it.Key)
			rows = append(rows, fmt.Sprintf("  %s %s", label, mutedStyle.Render(it.Value)))
		}
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to change the day start hour"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

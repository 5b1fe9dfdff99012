package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/engine"
	"github.com/sadopc/tempo/internal/store"
)

type tasksModel struct {
	engine *engine.Engine
	ctx    context.Context
	width  int
	height int

	tasks         []store.Task
	cursor        int
	confirmDelete bool

	formActive bool
	form       *huh.Form
	editingID  string // empty while creating

	// Form field pointers (survive value copies)
	formTitle    *string
	formTopic    *string
	formSubtopic *string
	formColor    *string
}

func newTasksModel(ctx context.Context, e *engine.Engine) tasksModel {
	title, topic, sub, color := "", "", "", taskColors[0]
	return tasksModel{
		engine:       e,
		ctx:          ctx,
		formTitle:    &title,
		formTopic:    &topic,
		formSubtopic: &sub,
		formColor:    &color,
	}
}

func (p *tasksModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type tasksDataMsg struct {
	tasks []store.Task
}

type taskSavedMsg struct {
	title string
}

func (p tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, err := p.engine.ListTasks(p.ctx)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Tasks: %v", err), isError: true}
		}
		return tasksDataMsg{tasks: tasks}
	}
}

func (p tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		p.tasks = msg.tasks
		if p.cursor >= len(p.tasks) {
			p.cursor = max(0, len(p.tasks)-1)
		}
		return p, nil

	case tea.KeyMsg:
		if p.confirmDelete {
			p.confirmDelete = false
			if key.Matches(msg, keys.Delete) && p.cursor < len(p.tasks) {
				return p, p.deleteTask(p.tasks[p.cursor])
			}
			return p, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.tasks)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.New):
			return p.showForm(nil)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if len(p.tasks) > 0 {
				return p.showForm(&p.tasks[p.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if len(p.tasks) > 0 {
				p.confirmDelete = true
			}
		}
	}
	return p, nil
}

// showForm opens the task form, prefilled when editing t.
func (p tasksModel) showForm(t *store.Task) (tasksModel, tea.Cmd) {
	p.editingID = ""
	*p.formTitle, *p.formTopic, *p.formSubtopic, *p.formColor = "", "", "", taskColors[0]
	if t != nil {
		p.editingID = t.ID
		*p.formTitle, *p.formTopic, *p.formSubtopic = t.Title, t.Topic, t.Subtopic
		if t.Color != "" {
			*p.formColor = t.Color
		}
	}

	colorOptions := make([]huh.Option[string], 0, len(taskColors)+1)
	for _, c := range taskColors {
		colorOptions = append(colorOptions, huh.NewOption(fmt.Sprintf("● %s", c), c))
	}
	if !slices.Contains(taskColors, *p.formColor) {
		colorOptions = append(colorOptions, huh.NewOption(fmt.Sprintf("● %s", *p.formColor), *p.formColor))
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(p.formTitle).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("title is required")
				}
				return nil
			}),
			huh.NewInput().Title("Topic").Placeholder("Uncategorized").Value(p.formTopic),
			huh.NewInput().Title("Subtopic").Value(p.formSubtopic),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		return p, p.saveTask(p.editingID, p.formAttrs())
	}
	return p, cmd
}

func (p tasksModel) formAttrs() store.TaskAttrs {
	return store.TaskAttrs{
		Title:    *p.formTitle,
		Topic:    *p.formTopic,
		Subtopic: *p.formSubtopic,
		Color:    *p.formColor,
	}
}

// saveTask creates a task, or updates id. Updating relabels existing entries.
func (p tasksModel) saveTask(id string, attrs store.TaskAttrs) tea.Cmd {
	return func() tea.Msg {
		var err error
		if id == "" {
			_, err = p.engine.CreateTask(p.ctx, attrs)
		} else {
			err = p.engine.UpdateTask(p.ctx, id, attrs)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Save task: %v", err), isError: true}
		}
		return taskSavedMsg{title: strings.TrimSpace(attrs.Title)}
	}
}

func (p tasksModel) deleteTask(t store.Task) tea.Cmd {
	return func() tea.Msg {
		if err := p.engine.DeleteTask(p.ctx, t.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Delete task: %v", err), isError: true}
		}
		return taskSavedMsg{title: t.Title}
	}
}

func (p tasksModel) view() string {
	w := p.width - 4
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Task")
		if p.editingID != "" {
			title = titleStyle.Render("Edit Task")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()))
	}

	title := titleStyle.Render("Tasks")
	if len(p.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to create one."),
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-24s %-16s %-16s", "Title", "Topic", "Subtopic")))
	for i, t := range p.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-24s %-16s %-16s", cursor, dot(t.Color), t.Title, t.Topic, t.Subtopic)))
	}

	rows = append(rows, "")
	if p.confirmDelete {
		rows = append(rows, errorStyle.Render(fmt.Sprintf("  Delete %q? Logged time is kept. Press d again to confirm.", p.tasks[p.cursor].Title)))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  e/enter: edit  d: delete"))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

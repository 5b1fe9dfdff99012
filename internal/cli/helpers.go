package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/dayclock"
	"github.com/sadopc/tempo/internal/engine"
	"github.com/sadopc/tempo/internal/store"
)

// env is what every command runs against: a loaded config and an engine
// bound to the configured owner.
type env struct {
	cfg    *config.Config
	engine *engine.Engine
	ctx    context.Context
	loc    *time.Location
	dbPath string
}

func withEngine(cmd *cobra.Command, run func(*env) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if ownerFlag != "" {
		cfg.Owner = ownerFlag
	}
	path := cfg.DBPath
	if path == "" {
		if path, err = store.DefaultDBPath(); err != nil {
			return fmt.Errorf("locate database: %w", err)
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	s, err := store.New(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	e := engine.New(s, engine.Options{
		Location:         loc,
		TargetMinutes:    cfg.DailyTargetMinutes,
		MinStreakMinutes: cfg.MinStreakMinutes,
		TimeThresholds:   cfg.TimeThresholds,
		StreakThresholds: cfg.StreakThresholds,
		PendingLimit:     cfg.PendingLimit,
		Logger:           logger.With("owner", cfg.Owner),
	})

	return run(&env{
		cfg:    cfg,
		engine: e,
		ctx:    engine.WithOwner(cmd.Context(), cfg.Owner),
		loc:    loc,
		dbPath: path,
	})
}

// clock is the owner's day boundary in the configured zone.
func (v *env) clock() (dayclock.Clock, error) {
	us, err := v.engine.GetUserSettings(v.ctx)
	if err != nil {
		return dayclock.Clock{}, err
	}
	return dayclock.New(us.DayStartHour, v.loc), nil
}

// resolveTask finds a task by ID, or by case-insensitive title.
func resolveTask(v *env, ref string) (*store.Task, error) {
	tasks, err := v.engine.ListTasks(v.ctx)
	if err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	var match *store.Task
	for i := range tasks {
		if tasks[i].ID == ref {
			return &tasks[i], nil
		}
		if strings.EqualFold(tasks[i].Title, ref) {
			if match != nil {
				return nil, fmt.Errorf("task %q is ambiguous, use its ID", ref)
			}
			match = &tasks[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("task %q: %w", ref, engine.ErrNotFound)
	}
	return match, nil
}

func parsePositiveInt(name, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

// parseMonth accepts YYYY-MM and returns the year and zero-based month.
func parseMonth(value string, now time.Time) (int, int, error) {
	if strings.TrimSpace(value) == "" {
		return now.Year(), int(now.Month()) - 1, nil
	}
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (expected YYYY-MM)", value)
	}
	return t.Year(), int(t.Month()) - 1, nil
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func heading(s string) string {
	return headingStyle.Render(s)
}

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		Headers(headers...).
		Rows(rows...).
		Render()
}

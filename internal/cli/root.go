package cli

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tui"
)

var (
	configPath string
	dbPath     string
	ownerFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "tempo tracks focused time from your terminal",
	Long: "tempo is a local-first time tracker: log blocks of work against tasks, " +
		"review day, week and month rollups, and keep your streak alive.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(env *env) error {
			app := tui.NewApp(env.ctx, env.engine, tui.Options{
				Cooldown: env.cfg.CelebrationCooldown,
				Focus: tui.FocusSettings{
					Work:      time.Duration(env.cfg.Focus.WorkMinutes) * time.Minute,
					Break:     time.Duration(env.cfg.Focus.BreakMinutes) * time.Minute,
					LongBreak: time.Duration(env.cfg.Focus.LongBreakMinutes) * time.Minute,
					Rounds:    env.cfg.Focus.Rounds,
				},
				Info: configInfo(env),
			})
			_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		})
	},
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configInfo(env *env) []store.Setting {
	return []store.Setting{
		{Key: "owner", Value: env.cfg.Owner},
		{Key: "db_path", Value: env.dbPath},
		{Key: "timezone", Value: env.loc.String()},
		{Key: "daily_target_minutes", Value: fmt.Sprint(env.cfg.DailyTargetMinutes)},
		{Key: "min_streak_minutes", Value: fmt.Sprint(env.cfg.MinStreakMinutes)},
		{Key: "celebration_cooldown", Value: env.cfg.CelebrationCooldown.String()},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/tempo/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "Owner to act as (default from config)")
}

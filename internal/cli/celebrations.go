package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/store"
)

var celebrationsAll bool

var celebrationsCmd = &cobra.Command{
	Use:   "celebrations",
	Short: "List pending celebrations, highest priority first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			list := v.engine.PendingCelebrations
			if celebrationsAll {
				list = v.engine.Celebrations
			}
			cs, err := list(v.ctx)
			if err != nil {
				return err
			}
			if len(cs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to celebrate yet")
				return nil
			}
			rows := make([][]string, 0, len(cs))
			for _, c := range cs {
				shown := ""
				if c.Shown {
					shown = "yes"
				}
				rows = append(rows, []string{c.ID, string(c.Type), celebrationLine(c), humanize.Time(c.TriggeredAt), shown})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "TYPE", "WHAT", "WHEN", "SHOWN"}, rows))
			return nil
		})
	},
}

var celebrationsShownCmd = &cobra.Command{
	Use:   "shown <id>...",
	Short: "Mark celebrations as shown",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			for _, id := range args {
				if err := v.engine.MarkCelebrationShown(v.ctx, id); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d shown\n", len(args))
			return nil
		})
	},
}

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "List milestones reached",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			ms, err := v.engine.Milestones(v.ctx)
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No milestones yet")
				return nil
			}
			rows := make([][]string, 0, len(ms))
			for _, m := range ms {
				rows = append(rows, []string{string(m.Type), milestoneValue(m), m.TaskTitle, humanize.Time(m.AchievedAt)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"TYPE", "VALUE", "TASK", "WHEN"}, rows))
			return nil
		})
	},
}

func milestoneValue(m store.Milestone) string {
	switch m.Type {
	case store.MilestoneTime, store.MilestoneTask:
		return formatMinutes(m.Value)
	case store.MilestoneStreak:
		return fmt.Sprintf("%d days", m.Value)
	case store.MilestoneConsistency:
		return fmt.Sprintf("%d%%", m.Value)
	}
	return fmt.Sprint(m.Value)
}

func celebrationLine(c store.Celebration) string {
	v := 0
	if c.Value != nil {
		v = *c.Value
	}
	switch c.Type {
	case store.CelebrationStreak:
		return fmt.Sprintf("%d-day streak!", v)
	case store.CelebrationMilestone:
		return fmt.Sprintf("Milestone: %s on one task", formatMinutes(v))
	case store.CelebrationGoalCompleted:
		return fmt.Sprintf("Daily goal of %s reached", formatMinutes(v))
	case store.CelebrationTimeAdded:
		return fmt.Sprintf("+%s logged", formatMinutes(v))
	}
	return ""
}

func init() {
	rootCmd.AddCommand(celebrationsCmd, milestonesCmd)
	celebrationsCmd.AddCommand(celebrationsShownCmd)
	celebrationsCmd.Flags().BoolVar(&celebrationsAll, "all", false, "Include celebrations already shown")
}

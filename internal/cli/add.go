package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addNote string

var addCmd = &cobra.Command{
	Use:   "add <task> <minutes>",
	Short: "Log a block of minutes against a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mins, err := parsePositiveInt("minutes", args[1])
		if err != nil {
			return err
		}
		return withEngine(cmd, func(v *env) error {
			task, err := resolveTask(v, args[0])
			if err != nil {
				return err
			}
			id, err := v.engine.AddTime(v.ctx, task.ID, mins, addNote)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s to %s (%s)\n", formatMinutes(mins), task.Title, id)

			pending, err := v.engine.PendingCelebrations(v.ctx)
			if err != nil {
				return err
			}
			for _, c := range pending {
				if line := celebrationLine(c); line != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "  "+line)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addNote, "note", "", "Optional note for the entry")
}

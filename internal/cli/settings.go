package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			us, err := v.engine.GetUserSettings(v.ctx)
			if err != nil {
				return err
			}
			stored, err := v.engine.StoredSettings(v.ctx)
			if err != nil {
				return err
			}
			source := "default"
			for _, s := range stored {
				if s.Key == store.SettingDayStartHour {
					source = "saved"
				}
			}
			rows := [][]string{{store.SettingDayStartHour, fmt.Sprintf("%d (%s)", us.DayStartHour, source)}}
			for _, s := range configInfo(v) {
				rows = append(rows, []string{s.Key, s.Value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"KEY", "VALUE"}, rows))
			return nil
		})
	},
}

var settingsDayStartCmd = &cobra.Command{
	Use:   "day-start <hour>",
	Short: "Set the hour (0-23) at which your day begins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return fmt.Errorf("invalid hour %q", args[0])
		}
		return withEngine(cmd, func(v *env) error {
			if err := v.engine.UpdateUserSettings(v.ctx, hour); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Day now starts at %02d:00\n", hour)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsDayStartCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:       "export <csv|json>",
	Short:     "Export the ledger; JSON also carries milestones",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"csv", "json"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]
		return withEngine(cmd, func(v *env) error {
			entries, err := v.engine.Entries(v.ctx, store.EntryFilter{})
			if err != nil {
				return err
			}
			var milestones []store.Milestone
			if format == "json" {
				if milestones, err = v.engine.Milestones(v.ctx); err != nil {
					return err
				}
			}

			if exportOut == "" || exportOut == "-" {
				if format == "csv" {
					return export.WriteCSV(cmd.OutOrStdout(), entries)
				}
				return export.WriteJSON(cmd.OutOrStdout(), entries, milestones)
			}

			if format == "csv" {
				err = export.ToCSV(entries, exportOut)
			} else {
				err = export.ToJSON(entries, milestones, exportOut)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), exportOut)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}

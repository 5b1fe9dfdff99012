package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sadopc/tempo/internal/analytics"
	"github.com/sadopc/tempo/internal/dayclock"
)

var weekOffset int

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the week's daily totals, topics and growth",
	RunE: func(cmd *cobra.Command, args []string) error {
		if weekOffset > 0 {
			return fmt.Errorf("--offset must be 0 or negative")
		}
		return withEngine(cmd, func(v *env) error {
			us, err := v.engine.GetUserSettings(v.ctx)
			if err != nil {
				return err
			}
			view, err := v.engine.GetWeekAnalytics(v.ctx, weekOffset, us.DayStartHour)
			if err != nil {
				return err
			}
			printWeek(cmd.OutOrStdout(), view)
			return nil
		})
	},
}

func printWeek(w io.Writer, view analytics.WeekView) {
	fmt.Fprintln(w, heading(fmt.Sprintf("Week of %s", view.Start.Format("Mon Jan 2, 2006"))))

	rows := make([][]string, 0, len(view.DailyData))
	for _, d := range view.DailyData {
		rows = append(rows, []string{d.Start.Format("Mon 02"), formatMinutes(d.Minutes), fmt.Sprint(d.Entries), topicList(d.Topics)})
	}
	fmt.Fprintln(w, renderTable([]string{"DAY", "TIME", "ENTRIES", "TOPICS"}, rows))

	s := view.Stats
	fmt.Fprintf(w, "Total %s across %d/7 days (%.1f%%), %d tasks, %s per active day\n",
		formatMinutes(s.TotalMinutes), s.ActiveDays, s.Consistency, s.DistinctTasks, formatMinutes(int(s.AveragePerActiveDay)))
	fmt.Fprintf(w, "Growth %+.1f%% vs %s the week before\n", view.Comparison.Growth, formatMinutes(view.Comparison.PreviousMinutes))
}

// topicList renders "Book 1h 00m, Code 30m" in topic order.
func topicList(topics map[string]int) string {
	names := make([]string, 0, len(topics))
	for t := range topics {
		names = append(names, t)
	}
	slices.Sort(names)
	parts := make([]string, 0, len(names))
	for _, t := range names {
		parts = append(parts, fmt.Sprintf("%s %s", t, formatMinutes(topics[t])))
	}
	return strings.Join(parts, ", ")
}

var monthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Show a month's topic summary, weekly rollups and longest streak",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		return withEngine(cmd, func(v *env) error {
			year, month0, err := parseMonth(arg, time.Now().In(v.loc))
			if err != nil {
				return err
			}
			us, err := v.engine.GetUserSettings(v.ctx)
			if err != nil {
				return err
			}
			view, err := v.engine.GetMonthAnalytics(v.ctx, year, month0, us.DayStartHour)
			if err != nil {
				return err
			}
			printMonth(cmd.OutOrStdout(), view)
			return nil
		})
	},
}

func printMonth(w io.Writer, view analytics.MonthView) {
	fmt.Fprintln(w, heading(view.Start.Format("January 2006")))
	fmt.Fprintf(w, "Total %s, active %d/%d days (%.1f%%), longest streak %d days\n",
		formatMinutes(view.TotalMinutes), view.ActiveDays, len(view.DailyBreakdown), view.Consistency, view.LongestStreak)

	if len(view.TopicSummary) > 0 {
		rows := make([][]string, 0, len(view.TopicSummary))
		for _, t := range view.TopicSummary {
			rows = append(rows, []string{t.Topic, formatMinutes(t.Minutes), fmt.Sprintf("%.1f%%", t.Percentage)})
		}
		fmt.Fprintln(w, renderTable([]string{"TOPIC", "TIME", "SHARE"}, rows))
	}

	rows := make([][]string, 0, len(view.Weeks))
	for _, wk := range view.Weeks {
		rows = append(rows, []string{
			humanize.Ordinal(wk.Index + 1),
			wk.StartDate + " – " + wk.EndDate,
			formatMinutes(wk.Minutes),
			fmt.Sprint(wk.ActiveDays),
			fmt.Sprintf("%+.1f%%", wk.Growth),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"WEEK", "DAYS", "TIME", "ACTIVE", "GROWTH"}, rows))
}

var (
	rangeFrom string
	rangeTo   string
)

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Group entries between two dates by topic and task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			clock, err := v.clock()
			if err != nil {
				return err
			}
			from, to := rangeFrom, rangeTo
			if from == "" {
				from = clock.Bucket(time.Now())
			}
			if to == "" {
				to = from
			}
			start, err := clock.DayStart(from)
			if err != nil {
				return fmt.Errorf("invalid --from %q (expected YYYY-MM-DD)", from)
			}
			last, err := clock.DayStart(to)
			if err != nil {
				return fmt.Errorf("invalid --to %q (expected YYYY-MM-DD)", to)
			}
			groups, err := v.engine.GetRangeGrouped(v.ctx, start, clock.AddDays(last, 1))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading(fmt.Sprintf("%s to %s", from, to)))
			if len(groups) == 0 {
				fmt.Fprintln(out, "No entries in range")
				return nil
			}
			keys := make([]string, 0, len(groups))
			total := 0
			for k, g := range groups {
				keys = append(keys, k)
				total += g.Total
			}
			slices.Sort(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, formatMinutes(groups[k].Total), fmt.Sprint(len(groups[k].Entries))})
			}
			fmt.Fprintln(out, renderTable([]string{"TOPIC/TASK", "TIME", "ENTRIES"}, rows))
			fmt.Fprintf(out, "Total %s\n", formatMinutes(total))
			return nil
		})
	},
}

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"dashboard"},
	Short:   "Show today's totals, streak, consistency, momentum and pending celebrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(v *env) error {
			start, err := v.engine.TodayStart(v.ctx)
			if err != nil {
				return err
			}
			d, err := v.engine.GetDashboardSnapshot(v.ctx, start)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading(fmt.Sprintf("Today (%s)  %s", d.Date, formatMinutes(d.TotalToday))))
			fmt.Fprintf(out, "%s %d days  %s %d%%  %s %d\n",
				labelStyle.Render("Streak"), d.Stats.Streak,
				labelStyle.Render("Consistency"), d.Stats.Consistency,
				labelStyle.Render("Momentum"), d.Stats.Momentum)

			if len(d.Tasks) > 0 {
				rows := make([][]string, 0, len(d.Tasks))
				for _, t := range d.Tasks {
					rows = append(rows, []string{t.Title, t.Topic, formatMinutes(t.TodayMinutes), formatMinutes(t.TotalMinutes)})
				}
				fmt.Fprintln(out, renderTable([]string{"TASK", "TOPIC", "TODAY", "TOTAL"}, rows))
			}
			for _, c := range d.Celebrations {
				if line := celebrationLine(c); line != "" {
					fmt.Fprintln(out, "  "+line)
				}
			}
			return nil
		})
	},
}

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the stored daily rollups for recent days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsDays <= 0 {
			return fmt.Errorf("--days must be > 0")
		}
		return withEngine(cmd, func(v *env) error {
			clock, err := v.clock()
			if err != nil {
				return err
			}
			today := clock.TodayStart(time.Now())
			from := clock.AddDays(today, -(statsDays - 1)).Format(dayclock.DateLayout)
			stats, err := v.engine.DailyStats(v.ctx, from, today.Format(dayclock.DateLayout))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintln(out, "No activity recorded")
				return nil
			}
			total := 0
			rows := make([][]string, 0, len(stats))
			for _, s := range stats {
				total += s.DailyMinutes
				rows = append(rows, []string{
					s.Date, formatMinutes(s.DailyMinutes), fmt.Sprint(s.TasksWorkedOn),
					fmt.Sprint(s.StreakCount), fmt.Sprintf("%d%%", s.ConsistencyScore), fmt.Sprint(s.Momentum),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"DATE", "TIME", "TASKS", "STREAK", "CONSISTENCY", "MOMENTUM"}, rows))
			fmt.Fprintf(out, "%s minutes over %d active days\n", humanize.Comma(int64(total)), len(stats))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weekCmd, monthCmd, rangeCmd, todayCmd, statsCmd)
	weekCmd.Flags().IntVar(&weekOffset, "offset", 0, "Weeks back from the current one, e.g. -1 for last week")
	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "First day, YYYY-MM-DD (default today)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "Last day inclusive, YYYY-MM-DD (default --from)")
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "Number of days to show")
}

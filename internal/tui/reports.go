package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/analytics"
	"github.com/sadopc/tempo/internal/engine"
)

type reportMode int

const (
	reportWeek reportMode = iota
	reportMonth
)

type reportsModel struct {
	engine *engine.Engine
	ctx    context.Context
	now    func() time.Time
	width  int
	height int

	mode       reportMode
	weekOffset int // 0 = current week, negative = past
	monthBack  int // months before the current one

	week  *analytics.WeekView
	month *analytics.MonthView

	chart barchart.Model
}

func newReportsModel(ctx context.Context, e *engine.Engine) reportsModel {
	return reportsModel{
		engine: e,
		ctx:    ctx,
		now:    time.Now,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type weekDataMsg struct {
	view analytics.WeekView
}

type monthDataMsg struct {
	view analytics.MonthView
}

// selectedMonth returns the year and zero-based month monthBack months ago.
func (r reportsModel) selectedMonth() (int, int) {
	now := r.now()
	t := time.Date(now.Year(), now.Month()-time.Month(r.monthBack), 1, 0, 0, 0, 0, now.Location())
	return t.Year(), int(t.Month()) - 1
}

func (r reportsModel) refresh() tea.Cmd {
	mode, offset := r.mode, r.weekOffset
	year, month0 := r.selectedMonth()
	return func() tea.Msg {
		us, err := r.engine.GetUserSettings(r.ctx)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Reports: %v", err), isError: true}
		}
		if mode == reportMonth {
			v, err := r.engine.GetMonthAnalytics(r.ctx, year, month0, us.DayStartHour)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Reports: %v", err), isError: true}
			}
			return monthDataMsg{view: v}
		}
		v, err := r.engine.GetWeekAnalytics(r.ctx, offset, us.DayStartHour)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Reports: %v", err), isError: true}
		}
		return weekDataMsg{view: v}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case weekDataMsg:
		r.week = &msg.view
		r.buildChart()
		return r, nil

	case monthDataMsg:
		r.month = &msg.view
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if r.mode == reportWeek {
				r.weekOffset--
			} else {
				r.monthBack++
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.mode == reportWeek && r.weekOffset < 0 {
				r.weekOffset++
			} else if r.mode == reportMonth && r.monthBack > 0 {
				r.monthBack--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportWeek {
				r.mode = reportMonth
			} else {
				r.mode = reportWeek
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r reportsModel) days() []analytics.DayTotal {
	switch {
	case r.mode == reportWeek && r.week != nil:
		return r.week.DailyData
	case r.mode == reportMonth && r.month != nil:
		return r.month.DailyBreakdown
	}
	return nil
}

// topicColors assigns palette colors to topics in name order so a topic keeps
// its color across days.
func topicColors(days []analytics.DayTotal) map[string]lipgloss.Color {
	var topics []string
	for _, d := range days {
		for t := range d.Topics {
			if !slices.Contains(topics, t) {
				topics = append(topics, t)
			}
		}
	}
	slices.Sort(topics)
	colors := make(map[string]lipgloss.Color, len(topics))
	for i, t := range topics {
		colors[t] = lipgloss.Color(taskColors[i%len(taskColors)])
	}
	return colors
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	days := r.days()
	colors := topicColors(days)

	var bars []barchart.BarData
	for _, d := range days {
		label := d.Start.Format("Mon 02")
		if r.mode == reportMonth {
			label = d.Start.Format("02")
		}

		topics := make([]string, 0, len(d.Topics))
		for t := range d.Topics {
			topics = append(topics, t)
		}
		slices.Sort(topics)

		var values []barchart.BarValue
		for _, t := range topics {
			values = append(values, barchart.BarValue{
				Name:  t,
				Value: float64(d.Topics[t]) / 60,
				Style: lipgloss.NewStyle().Foreground(colors[t]),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	weekTab := inactiveTabStyle.Render("Week")
	monthTab := inactiveTabStyle.Render("Month")
	if r.mode == reportWeek {
		weekTab = activeTabStyle.Render("Week")
	} else {
		monthTab = activeTabStyle.Render("Month")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, monthTab)

	var rangeLabel, summary string
	switch {
	case r.mode == reportWeek && r.week != nil:
		rangeLabel = fmt.Sprintf("%s – %s", r.week.Start.Format("Jan 02"), r.week.End.AddDate(0, 0, -1).Format("Jan 02, 2006"))
		summary = r.renderWeekSummary(*r.week)
	case r.mode == reportMonth && r.month != nil:
		rangeLabel = r.month.Start.Format("January 2006")
		summary = r.renderMonthSummary(*r.month, w)
	default:
		summary = mutedStyle.Render("  Loading...")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", mutedStyle.Render(rangeLabel),
	)
	nav := mutedStyle.Render("  ←/→: navigate  m: week/month")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", summary, "", nav,
		),
	)
}

func (r reportsModel) renderWeekSummary(v analytics.WeekView) string {
	s := v.Stats
	growth := fmt.Sprintf("%+.1f%%", v.Comparison.Growth)
	switch {
	case v.Comparison.Growth > 0:
		growth = successStyle.Render(growth)
	case v.Comparison.Growth < 0:
		growth = accentStyle.Render(growth)
	}
	rows := []string{
		fmt.Sprintf("  %s %s", statLabelStyle.Render("Total"), statValueStyle.Render(formatMinutes(s.TotalMinutes))),
		fmt.Sprintf("  %s %d/7  (%.1f%%)", statLabelStyle.Render("Active days"), s.ActiveDays, s.Consistency),
		fmt.Sprintf("  %s %d", statLabelStyle.Render("Tasks"), s.DistinctTasks),
		fmt.Sprintf("  %s %s", statLabelStyle.Render("Avg/day"), formatMinutes(int(s.AveragePerActiveDay))),
		fmt.Sprintf("  %s %s vs %s last week", statLabelStyle.Render("Growth"), growth, formatMinutes(v.Comparison.PreviousMinutes)),
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderMonthSummary(v analytics.MonthView, w int) string {
	rows := []string{
		fmt.Sprintf("  %s %s", statLabelStyle.Render("Total"), statValueStyle.Render(formatMinutes(v.TotalMinutes))),
		fmt.Sprintf("  %s %d/%d  (%.1f%%)", statLabelStyle.Render("Active days"), v.ActiveDays, len(v.DailyBreakdown), v.Consistency),
		fmt.Sprintf("  %s %dd", statLabelStyle.Render("Best run"), v.LongestStreak),
		"",
	}

	if len(v.TopicSummary) == 0 {
		rows = append(rows, mutedStyle.Render("  No data for this period"))
		return strings.Join(rows, "\n")
	}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %8s", "Topic", "Time", "Share")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))
	for _, t := range v.TopicSummary {
		rows = append(rows, fmt.Sprintf("  %-24s %10s %7.1f%%", t.Topic, formatMinutes(t.Minutes), t.Percentage))
	}

	rows = append(rows, "")
	for _, wk := range v.Weeks {
		rows = append(rows, fmt.Sprintf("  W%d %s–%s %10s  %d active  %+.1f%%",
			wk.Index+1, wk.StartDate[5:], wk.EndDate[5:], formatMinutes(wk.Minutes), wk.ActiveDays, wk.Growth))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	colors := topicColors(r.days())
	topics := make([]string, 0, len(colors))
	for t := range colors {
		topics = append(topics, t)
	}
	slices.Sort(topics)

	var items []string
	for _, t := range topics {
		items = append(items, fmt.Sprintf("%s %s", dot(string(colors[t])), t))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

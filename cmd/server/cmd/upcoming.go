package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/warp/cashflow-engine/generic"
)

var (
	upcomingOwner string
	upcomingKind  string
	upcomingLimit int
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Print an owner's open events",
	Long: `Refresh the owner's events and print the open ones, earliest first.

Example:
  cashflow upcoming --owner demo-salaried
  cashflow upcoming --owner demo-freelancer --kind expense --limit 5`,
	RunE: runUpcoming,
}

func init() {
	upcomingCmd.Flags().StringVar(&upcomingOwner, "owner", "", "owner ID (required)")
	upcomingCmd.Flags().StringVar(&upcomingKind, "kind", "", "income or expense (default both)")
	upcomingCmd.Flags().IntVar(&upcomingLimit, "limit", 0, "maximum rows (default scheduler.list_limit)")
	_ = upcomingCmd.MarkFlagRequired("owner")
}

func runUpcoming(cmd *cobra.Command, args []string) error {
	kind := generic.RuleKind(upcomingKind)
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("unknown kind %q", upcomingKind)
	}

	store, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := engine.Scheduler.Upcoming(cmd.Context(), generic.OwnerID(upcomingOwner), generic.UpcomingQuery{
		Kind:  kind,
		Limit: upcomingLimit,
	})
	if err != nil {
		return err
	}
	renderEvents(cmd.OutOrStdout(), events)
	return nil
}

// =============================================================================
// RENDERING
// =============================================================================

const (
	colorIncome  lipgloss.Color = "#a6e3a1"
	colorExpense lipgloss.Color = "#fab387"
	colorOverdue lipgloss.Color = "#f38ba8"
	colorMuted   lipgloss.Color = "#6c7086"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	dateCol     = lipgloss.NewStyle().Width(12)
	labelCol    = lipgloss.NewStyle().Width(24)
	kindCol     = lipgloss.NewStyle().Width(9)
	amountCol   = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
	statusCol   = lipgloss.NewStyle().Width(10).PaddingLeft(2)
)

func renderEvents(w io.Writer, events []generic.PendingEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no open events"))
		return
	}

	var b strings.Builder
	b.WriteString(row(headerStyle, "DATE", "LABEL", "KIND", "AMOUNT", "STATUS"))
	for _, e := range events {
		style := lipgloss.NewStyle().Foreground(colorIncome)
		if e.Kind == generic.KindExpense {
			style = lipgloss.NewStyle().Foreground(colorExpense)
		}
		if e.Status == generic.StatusOverdue {
			style = lipgloss.NewStyle().Foreground(colorOverdue)
		}
		b.WriteString(row(style, e.ExpectedDate.String(), e.Label, string(e.Kind), e.Amount.StringFixed(2), string(e.Status)))
	}
	fmt.Fprint(w, b.String())
}

func row(style lipgloss.Style, date, label, kind, amount, status string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		style.Inherit(dateCol).Render(date),
		style.Inherit(labelCol).Render(truncate(label, 22)),
		style.Inherit(kindCol).Render(kind),
		style.Inherit(amountCol).Render(amount),
		style.Inherit(statusCol).Render(status),
	) + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

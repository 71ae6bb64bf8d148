package views

import (
	"fmt"
	"strings"

	"tui/db"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboardMsg struct {
	totals db.Totals
	runs   []db.AdjustRun
}

type Dashboard struct {
	db            *db.Client
	width, height int
	totals        db.Totals
	runs          []db.AdjustRun
	err           error
}

func NewDashboard(dbClient *db.Client) Dashboard {
	return Dashboard{db: dbClient}
}

func (d Dashboard) Init() tea.Cmd {
	return d.Refresh()
}

func (d Dashboard) Refresh() tea.Cmd {
	return func() tea.Msg {
		totals, err := d.db.GetTotals()
		if err != nil {
			return dashboardMsg{}
		}
		runs, _ := d.db.GetRecentRuns(10)
		return dashboardMsg{totals: totals, runs: runs}
	}
}

func (d Dashboard) SetSize(w, h int) Dashboard {
	d.width = w
	d.height = h
	return d
}

func (d Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m, ok := msg.(dashboardMsg); ok {
		d.totals = m.totals
		d.runs = m.runs
	}
	return d, nil
}

func (d Dashboard) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Price Adjuster"),
		d.renderTotals(),
		"",
		d.renderRuns(),
	)
}

func (d Dashboard) renderTotals() string {
	lastRun := "never"
	if d.totals.LastRunAt != nil {
		lastRun = d.totals.LastRunAt.Format("2006-01-02 15:04")
	}

	cards := []string{
		statCard("Runs", fmt.Sprintf("%d", d.totals.Runs)),
		statCard("Listings OK", fmt.Sprintf("%d", d.totals.Succeeded)),
		statCard("Listings Failed", fmt.Sprintf("%d", d.totals.Failed)),
		statCard("Prices Changed", fmt.Sprintf("%d", d.totals.PricesChanged)),
		statCard("Last Run", lastRun),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func statCard(label, value string) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.StatValue.Render(value),
		styles.StatLabel.Render(label),
	)
	return styles.CardBorder.Render(content)
}

func (d Dashboard) renderRuns() string {
	if len(d.runs) == 0 {
		return styles.Muted.Render("No runs recorded yet")
	}

	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("%-19s %-6s %-9s %-7s %5s %5s %5s %6s", "Started", "Src", "Dir", "Mode", "Sel", "OK", "Fail", "Prices")))
	b.WriteString("\n")

	for _, r := range d.runs {
		mode := "apply"
		if r.DryRun {
			mode = "dry"
		}
		line := fmt.Sprintf(" %-19s %-6s %-9s %-7s %5d %5d %5d %6d",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Source, r.Direction, mode,
			r.ListingsSelected, r.Succeeded, r.Failed, r.PricesChanged)
		switch r.Status {
		case "completed":
			if r.Failed > 0 {
				b.WriteString(styles.StatusError.Render(line))
			} else {
				b.WriteString(styles.StatusSuccess.Render(line))
			}
		case "running":
			b.WriteString(styles.StatusRunning.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

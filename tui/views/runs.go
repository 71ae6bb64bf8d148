package views

import (
	"fmt"
	"strings"

	"tui/db"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type runsMsg struct {
	runs []db.AdjustRun
}

type outcomesMsg struct {
	runID    int64
	outcomes []db.Outcome
}

// Runs shows the run list; selecting one loads its per-listing
// outcomes.
type Runs struct {
	db            *db.Client
	width, height int
	runs          []db.AdjustRun
	outcomes      []db.Outcome
	selected      int
	showOutcomes  bool
}

func NewRuns(dbClient *db.Client) Runs {
	return Runs{db: dbClient}
}

func (r Runs) Init() tea.Cmd {
	return r.Refresh()
}

func (r Runs) Refresh() tea.Cmd {
	return func() tea.Msg {
		runs, _ := r.db.GetRecentRuns(50)
		return runsMsg{runs}
	}
}

func (r Runs) SetSize(w, h int) Runs {
	r.width = w
	r.height = h
	return r
}

func (r Runs) loadOutcomes() tea.Cmd {
	if r.selected >= len(r.runs) {
		return nil
	}
	runID := r.runs[r.selected].ID
	return func() tea.Msg {
		outcomes, _ := r.db.GetOutcomes(runID)
		return outcomesMsg{runID: runID, outcomes: outcomes}
	}
}

func (r Runs) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runsMsg:
		r.runs = msg.runs
		if r.selected >= len(r.runs) {
			r.selected = 0
		}

	case outcomesMsg:
		r.outcomes = msg.outcomes
		r.showOutcomes = true

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if r.selected > 0 {
				r.selected--
			}
		case "down", "j":
			if r.selected < len(r.runs)-1 {
				r.selected++
			}
		case "enter":
			return r, r.loadOutcomes()
		case "esc":
			r.showOutcomes = false
		}
	}
	return r, nil
}

func (r Runs) View() string {
	if r.showOutcomes {
		return r.renderOutcomes()
	}
	return r.renderRunList()
}

func (r Runs) renderRunList() string {
	if len(r.runs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.Title.Render("Runs"),
			styles.Muted.Render("No runs recorded yet"),
		)
	}

	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("%-19s %-6s %-9s %-7s %5s %5s %5s", "Started", "Src", "Dir", "Mode", "Sel", "OK", "Fail")))
	b.WriteString("\n")

	visible := r.height - 6
	if visible < 1 {
		visible = len(r.runs)
	}
	for i, run := range r.runs {
		if i >= visible {
			break
		}
		mode := "apply"
		if run.DryRun {
			mode = "dry"
		}
		line := fmt.Sprintf(" %-19s %-6s %-9s %-7s %5d %5d %5d",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.Source, run.Direction, mode,
			run.ListingsSelected, run.Succeeded, run.Failed)
		if i == r.selected {
			b.WriteString(styles.TableSelected.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Runs"),
		b.String(),
		styles.Muted.Render("enter: outcomes  esc: back"),
	)
}

func (r Runs) renderOutcomes() string {
	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(
		fmt.Sprintf("%-12s %-28s %-10s %-8s %7s %7s", "Listing", "Name", "PMS", "Status", "Changes", "Skipped")))
	b.WriteString("\n")

	for _, o := range r.outcomes {
		name := o.ListingName
		if len(name) > 28 {
			name = name[:25] + "..."
		}
		line := fmt.Sprintf(" %-12s %-28s %-10s %-8s %7d %7d", o.ListingID, name, o.PMS, o.Status, o.Changes, o.Skipped)
		if o.Status == "error" {
			b.WriteString(styles.StatusError.Render(line))
			if o.Reason != nil && *o.Reason != "" {
				b.WriteString("\n" + styles.Muted.Render("   "+*o.Reason))
			}
		} else {
			b.WriteString(styles.StatusSuccess.Render(line))
		}
		b.WriteString("\n")
	}
	if len(r.outcomes) == 0 {
		b.WriteString(styles.Muted.Render("No outcomes for this run"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Run Outcomes"),
		b.String(),
		styles.Muted.Render("esc: back"),
	)
}

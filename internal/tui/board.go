// Package tui renders a read-only dashboard over the run ledger: recorded
// runs, their steps, and retry counts.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/imkarma/loom/internal/ledger"
)

// view represents which screen the TUI is on.
type view int

const (
	viewRuns  view = iota // run list (main)
	viewSteps             // steps of the selected run
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	baseStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// Model is the top-level bubbletea model.
type Model struct {
	ledger *ledger.Ledger

	currentView view
	runsTable   table.Model
	stepsTable  table.Model
	runs        []ledger.Run
	selectedRun string
	err         error
}

// New creates the board model.
func New(l *ledger.Ledger) Model {
	m := Model{ledger: l, currentView: viewRuns}
	m.runsTable = newRunsTable(nil)
	m.reload()
	return m
}

func newRunsTable(rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "RUN", Width: 10},
			{Title: "STATUS", Width: 10},
			{Title: "STARTED", Width: 17},
			{Title: "PLAN", Width: 40},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return t
}

func newStepsTable(rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "BEAD", Width: 18},
			{Title: "STATE", Width: 10},
			{Title: "RETRIES", Width: 8},
			{Title: "ENDED", Width: 17},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return t
}

func (m *Model) reload() {
	runs, err := m.ledger.ListRuns()
	if err != nil {
		m.err = err
		return
	}
	m.runs = runs

	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, table.Row{
			shortID(r.ID),
			r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Plan,
		})
	}
	m.runsTable.SetRows(rows)
}

func (m *Model) loadSteps(runID string) {
	steps, err := m.ledger.ListStepRuns(runID)
	if err != nil {
		m.err = err
		return
	}

	rows := make([]table.Row, 0, len(steps))
	for _, s := range steps {
		ended := ""
		if !s.EndedAt.IsZero() {
			ended = s.EndedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, table.Row{
			s.BeadID,
			s.State,
			fmt.Sprintf("%d", s.Retries),
			ended,
		})
	}
	m.stepsTable = newStepsTable(rows)
	m.selectedRun = runID
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.currentView == viewSteps {
				m.currentView = viewRuns
				return m, nil
			}
			return m, tea.Quit
		case "r":
			m.reload()
			return m, nil
		case "enter":
			if m.currentView == viewRuns {
				if idx := m.runsTable.Cursor(); idx >= 0 && idx < len(m.runs) {
					m.loadSteps(m.runs[idx].ID)
					m.currentView = viewSteps
				}
			}
			return m, nil
		case "esc":
			m.currentView = viewRuns
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.currentView {
	case viewRuns:
		m.runsTable, cmd = m.runsTable.Update(msg)
	case viewSteps:
		m.stepsTable, cmd = m.stepsTable.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n(press q to quit)", m.err)
	}

	switch m.currentView {
	case viewSteps:
		header := titleStyle.Render("loom — run " + shortID(m.selectedRun))
		help := dimStyle.Render("esc/q back · r reload")
		return header + "\n" + baseStyle.Render(m.stepsTable.View()) + "\n" + help + "\n"
	default:
		header := titleStyle.Render("loom — runs")
		help := dimStyle.Render("enter steps · r reload · q quit")
		return header + "\n" + baseStyle.Render(m.runsTable.View()) + "\n" + help + "\n"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

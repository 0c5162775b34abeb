// Package watchui is the live terminal dashboard over a tracked pipeline.
// It renders snapshots of the injected state store on a fixed tick and owns
// no pipeline state itself.
package watchui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/render"
	"github.com/decklens/decklens-cli/internal/state"
)

const refreshInterval = 250 * time.Millisecond

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for the watch command.
type Model struct {
	store    *state.Store
	spinner  spinner.Model
	snap     model.PipelineSnapshot
	quitting bool
}

// New creates the watch dashboard over the given store.
func New(store *state.Store) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		store:   store,
		spinner: sp,
		snap:    store.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.snap = m.store.Snapshot()
		switch m.snap.OverallStatus {
		case model.OverallCompleted, model.OverallFailed:
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	header := headerStyle.Render("DeckLens · " + m.snap.DeckID)
	if m.store.Polling() && !m.quitting {
		header += " " + m.spinner.View()
	}

	view := header + "\n\n" + render.StageBoard(m.snap) + "\n"

	if m.quitting {
		if summary := m.store.Summary(); summary != nil {
			view += "\n" + render.Summary(summary)
		}
	} else {
		view += helpStyle.Render("q to quit") + "\n"
	}
	return view
}

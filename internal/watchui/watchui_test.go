package watchui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/state"
)

func TestTickRefreshesSnapshot(t *testing.T) {
	st := state.NewStore()
	m := New(st)

	st.SetDeckID("deck-1")
	st.SetOverallProgress(50)

	updated, cmd := m.Update(tickMsg(time.Now()))
	m = updated.(Model)

	assert.NotNil(t, cmd)
	assert.Equal(t, "deck-1", m.snap.DeckID)
	assert.Equal(t, 50, m.snap.OverallProgress)
}

func TestQuitsWhenPipelineFinishes(t *testing.T) {
	st := state.NewStore()
	m := New(st)

	st.SetOverallStatus(model.OverallCompleted)

	updated, cmd := m.Update(tickMsg(time.Now()))
	m = updated.(Model)

	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestQuitsOnKeyPress(t *testing.T) {
	st := state.NewStore()
	m := New(st)

	for _, key := range []string{"q", "esc", "ctrl+c"} {
		updated, cmd := m.Update(keyMsg(key))
		quit := updated.(Model)
		assert.True(t, quit.quitting, "key %s", key)
		require.NotNil(t, cmd, "key %s", key)
		assert.Equal(t, tea.Quit(), cmd(), "key %s", key)
	}
}

func TestOtherKeysAreIgnored(t *testing.T) {
	st := state.NewStore()
	m := New(st)

	updated, cmd := m.Update(keyMsg("x"))
	assert.False(t, updated.(Model).quitting)
	assert.Nil(t, cmd)
}

func TestViewShowsStagesAndHelp(t *testing.T) {
	st := state.NewStore()
	st.SetDeckID("deck-1")
	m := New(st)
	updated, _ := m.Update(tickMsg(time.Now()))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "deck-1")
	assert.Contains(t, view, model.StageExtract.Name())
	assert.Contains(t, view, "q to quit")
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

package help

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/ui"
)

func TestViewGroupsBoardSections(t *testing.T) {
	out := New(keys.DefaultKeyMap(), 200, 60).View()
	for _, want := range []string{
		"Keyboard Shortcuts",
		"Moving tasks",
		"move task down",
		"Filters",
		"clear filters",
		"archive task",
		"board reloads if saving fails",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Moving is off")
}

func TestViewExplainsMovesAreOffWhileFiltered(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 200, 60)
	m.SetFilter("tag #home")
	out := m.View()
	assert.Contains(t, out, "Moving is off while filtering by tag #home")
	assert.Contains(t, out, "Press x to clear")

	m.SetFilter("")
	assert.NotContains(t, m.View(), "Moving is off")
}

func TestCloseKeys(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("?")},
	} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, ui.CloseMsg{}, cmd())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Nil(t, cmd)
}

package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/ui"
)

func TestParse(t *testing.T) {
	got, err := Parse("  Move   In Progress ")
	require.NoError(t, err)
	assert.Equal(t, CommandMsg{Name: "move", Arg: "In Progress"}, got)

	got, err = Parse("reload")
	require.NoError(t, err)
	assert.Equal(t, CommandMsg{Name: "reload"}, got)

	_, err = Parse("move")
	assert.EqualError(t, err, "move needs <column>")

	_, err = Parse("frobnicate")
	assert.Error(t, err)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	m.Open()
	m = typeText(m, "tags")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "tags"}, cmd())
}

func TestUnknownCommandShowsError(t *testing.T) {
	m := New(80, 24)
	m.Open()
	m = typeText(m, "nope")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), `unknown command "nope"`)
}

func TestTabCompletes(t *testing.T) {
	m := New(80, 24)
	m.Open()
	m = typeText(m, "cat")
	assert.Len(t, m.suggestions(), 1)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "categories ", m.input.Value())
}

func TestEscCloses(t *testing.T) {
	m := New(80, 24)
	m.Open()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.CloseMsg{}, cmd())
}

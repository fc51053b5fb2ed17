package detail

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newDetail(t model.Task) Model {
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local) }
	m.SetTask(t)
	return m
}

func TestViewShowsTaskFields(t *testing.T) {
	deadline := time.Date(2024, 2, 28, 12, 0, 0, 0, time.Local)
	m := newDetail(model.Task{
		ID:          "t1",
		Title:       "Write report",
		Status:      model.StatusInProgress,
		Priority:    model.PriorityHigh,
		Category:    "Work",
		Deadline:    &deadline,
		Description: "Quarterly numbers",
		Tags:        []model.Tag{{Name: "q1"}},
		CreatedAt:   deadline.Add(-48 * time.Hour),
	})

	out := m.View()
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "#q1")
	assert.Contains(t, out, "Quarterly")
}

func TestActions(t *testing.T) {
	m := newDetail(model.Task{ID: "t1", Title: "x", Status: model.StatusDone})

	_, cmd := m.Update(runes("e"))
	require.NotNil(t, cmd)
	assert.Equal(t, ActionMsg{Action: ActionEdit, TaskID: "t1"}, cmd())

	_, cmd = m.Update(runes("a"))
	require.NotNil(t, cmd)
	assert.Equal(t, ActionMsg{Action: ActionArchive, TaskID: "t1"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.CloseMsg{}, cmd())
}

func TestArchivedTaskCannotBeArchivedAgain(t *testing.T) {
	now := time.Now()
	m := newDetail(model.Task{ID: "t1", Title: "x", ArchivedAt: &now})
	_, cmd := m.Update(runes("a"))
	assert.Nil(t, cmd)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m := newDetail(model.Task{ID: "t1", Title: "Old task"})

	m, _ = m.Update(runes("d"))
	require.NotNil(t, m.confirmForm)
	assert.Contains(t, m.View(), "Old task")

	_, ok := m.Task()
	assert.True(t, ok)
}

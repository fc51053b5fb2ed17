package archive

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/tests/testutil"
)

// collect runs cmd and any batched commands, returning their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestUnarchiveRestoresTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "Old chore"})
	require.NoError(t, err)
	require.NoError(t, s.ArchiveTask(ctx, u.ID, task.ID))

	m := New(s, u.ID, keys.DefaultKeyMap(), 80, 24)
	for _, msg := range collect(m.Init()) {
		m, _ = m.Update(msg)
	}
	require.Len(t, m.tasks, 1)
	assert.Contains(t, m.View(), "Old chore")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	m, cmd = m.Update(msgs[0])
	assert.Contains(t, m.statusMsg, "Restored")

	msgs = collect(cmd)
	assert.Contains(t, msgs, tea.Msg(ui.ChangedMsg{}))
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	assert.Empty(t, m.tasks)

	got, err := s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ArchivedAt)
}

func TestBackCloses(t *testing.T) {
	m := New(testutil.NewTestStore(t), "nobody", keys.DefaultKeyMap(), 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ui.CloseMsg{}, cmd())
}

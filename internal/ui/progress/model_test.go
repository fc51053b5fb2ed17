package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

func TestCreateAndRenderTracker(t *testing.T) {
	s := testutil.NewTestStore(t)
	u, _ := testutil.NewTestBoard(t, s, "alice")

	m := New(s, u.ID, keys.DefaultKeyMap(), 100, 30)
	m.now = func() time.Time { return time.Date(2024, 1, 6, 12, 0, 0, 0, time.Local) }
	m, _ = m.Update(m.Init()())
	assert.Contains(t, m.View(), "No trackers yet")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	require.NotNil(t, m.form)
	assert.Equal(t, "2024-01-06", m.fb.start)
	m.fb.title = "Sprint 12"
	m.fb.start = "2024-01-01"
	m.fb.end = "2024-01-11"

	m, cmd := m.Update(m.saveTracker()())
	assert.Nil(t, m.form)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	require.Len(t, m.trackers, 1)
	out := m.View()
	assert.Contains(t, out, "Sprint 12")
	assert.Contains(t, out, "4 days left")
	assert.Contains(t, out, "50%")
}

func TestEndBeforeStartIsRejected(t *testing.T) {
	s := testutil.NewTestStore(t)
	u, _ := testutil.NewTestBoard(t, s, "alice")

	m := New(s, u.ID, keys.DefaultKeyMap(), 100, 30)
	*m.fb = formBindings{title: "bad", start: "2024-02-01", end: "2024-01-01"}

	msg := m.saveTracker()().(trackerSavedMsg)
	assert.True(t, errors.Is(msg.err, store.ErrInvalid))

	ps, err := s.ListTimeProgress(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate(" 2024-05-06 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local), d)
	assert.Error(t, validateDate("06/05/2024"))
}

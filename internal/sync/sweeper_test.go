package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	mu    gosync.Mutex
	calls int
	users []string
	n     int64
	err   error
}

func (f *fakeArchiver) Sweep(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.users = append(f.users, userID)
	return f.n, f.err
}

func (f *fakeArchiver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweeperRunsOnStart(t *testing.T) {
	a := &fakeArchiver{n: 3}
	s := New(a, "u1", 0, zerolog.Nop())
	defer s.Stop()

	cmd := s.Start()
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Equal(t, SweepResultMsg{Archived: 3}, msg)
	assert.Equal(t, []string{"u1"}, a.users)

	st := s.Status()
	assert.Equal(t, SweepIdle, st.State)
	assert.Equal(t, int64(3), st.LastArchived)
	assert.False(t, st.LastRun.IsZero())
}

func TestSweeperStartTwiceReturnsNil(t *testing.T) {
	s := New(&fakeArchiver{}, "u1", 0, zerolog.Nop())
	defer s.Stop()

	require.NotNil(t, s.Start())
	assert.Nil(t, s.Start())
}

func TestSweeperTrigger(t *testing.T) {
	a := &fakeArchiver{}
	s := New(a, "u1", 0, zerolog.Nop())
	defer s.Stop()

	s.Start()()
	s.Trigger()

	msg := s.WaitForNextResult()()
	assert.Equal(t, SweepResultMsg{}, msg)
	assert.Equal(t, 2, a.count())
}

func TestSweeperTicks(t *testing.T) {
	a := &fakeArchiver{}
	s := New(a, "u1", 10*time.Millisecond, zerolog.Nop())
	defer s.Stop()

	s.Start()()
	s.WaitForNextResult()()

	assert.GreaterOrEqual(t, a.count(), 2)
}

func TestSweeperReportsErrors(t *testing.T) {
	boom := errors.New("db down")
	s := New(&fakeArchiver{err: boom}, "u1", 0, zerolog.Nop())
	defer s.Stop()

	msg := s.Start()()
	res, ok := msg.(SweepResultMsg)
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, boom)

	st := s.Status()
	assert.Equal(t, SweepError, st.State)
	assert.ErrorIs(t, st.Error, boom)
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	s := New(&fakeArchiver{}, "u1", 0, zerolog.Nop())
	s.Stop()
	s.Start()()
	s.Stop()
	s.Stop()
}

func TestSweeperRestartsAfterStop(t *testing.T) {
	a := &fakeArchiver{}
	s := New(a, "u1", 0, zerolog.Nop())
	defer s.Stop()

	s.Start()()
	s.Stop()

	cmd := s.Start()
	require.NotNil(t, cmd, "a stopped sweeper can be started again")
	cmd()

	s.Trigger()
	msg := s.WaitForNextResult()()
	assert.Equal(t, SweepResultMsg{}, msg)
	assert.Equal(t, 3, a.count())
}

package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

type recordingWriter struct {
	single  []model.Position
	batches [][]model.Position
	failAt  int // 1-based single write to fail on; 0 never fails
	err     error
}

func (w *recordingWriter) UpdateTaskPosition(_ context.Context, _ string, p model.Position) error {
	w.single = append(w.single, p)
	if w.failAt > 0 && len(w.single) == w.failAt {
		return w.err
	}
	return nil
}

func (w *recordingWriter) UpdateTaskPositions(_ context.Context, _ string, ps []model.Position) error {
	w.batches = append(w.batches, ps)
	return w.err
}

type recordingArchiver struct {
	cutoffs []time.Time
	err     error
}

func (a *recordingArchiver) ArchiveCompletedBefore(_ context.Context, _ string, cutoff time.Time) (int64, error) {
	a.cutoffs = append(a.cutoffs, cutoff)
	return 1, a.err
}

var crossMove = Move{
	TaskID: "A",
	From:   Location{ColumnID: "c-todo", Index: 0},
	To:     Location{ColumnID: "c-prog", Index: 0},
}

func TestPersistBatchMode(t *testing.T) {
	w := &recordingWriter{}
	h := NewHandler(w, nil, Options{BatchWrites: true}, zerolog.Nop())

	res, ok := Plan(newBoard([]string{"A"}, []string{"B"}, nil), crossMove)
	require.True(t, ok)
	require.NoError(t, h.Persist(context.Background(), "u1", res))

	require.Len(t, w.batches, 1)
	assert.Equal(t, res.Updates, w.batches[0])
	assert.Empty(t, w.single)
}

func TestPersistSequentialModeStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	w := &recordingWriter{failAt: 1, err: boom}
	h := NewHandler(w, nil, Options{}, zerolog.Nop())

	res, ok := Plan(newBoard([]string{"A"}, []string{"B"}, nil), crossMove)
	require.True(t, ok)
	require.Len(t, res.Updates, 2)

	err := h.Persist(context.Background(), "u1", res)
	assert.ErrorIs(t, err, boom)
	require.Len(t, w.single, 1)
	assert.Equal(t, "A", w.single[0].TaskID)
}

func TestPersistSweepsOnStatusChange(t *testing.T) {
	arch := &recordingArchiver{}
	h := NewHandler(&recordingWriter{}, nil, Options{
		BatchWrites:  true,
		Archiver:     arch,
		ArchiveAfter: 48 * time.Hour,
	}, zerolog.Nop())
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	b := newBoard([]string{"A", "B"}, nil, nil)
	res, ok := Plan(b, Move{TaskID: "B", From: Location{ColumnID: "c-todo", Index: 1}, To: Location{ColumnID: "c-todo", Index: 0}})
	require.True(t, ok)
	require.NoError(t, h.Persist(context.Background(), "u1", res))
	assert.Empty(t, arch.cutoffs, "reorder keeps status")

	res, ok = Plan(b, crossMove)
	require.True(t, ok)
	require.NoError(t, h.Persist(context.Background(), "u1", res))
	require.Len(t, arch.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), arch.cutoffs[0])
}

func TestPersistIgnoresSweepFailure(t *testing.T) {
	arch := &recordingArchiver{err: errors.New("sweep down")}
	h := NewHandler(&recordingWriter{}, nil, Options{Archiver: arch}, zerolog.Nop())

	res, ok := Plan(newBoard([]string{"A"}, nil, nil), crossMove)
	require.True(t, ok)
	assert.NoError(t, h.Persist(context.Background(), "u1", res))
	assert.Len(t, arch.cutoffs, 1)
}

func TestSweepWithoutArchiver(t *testing.T) {
	h := NewHandler(&recordingWriter{}, nil, Options{}, zerolog.Nop())
	n, err := h.Sweep(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDragNoopDoesNothing(t *testing.T) {
	w := &recordingWriter{}
	h := NewHandler(w, nil, Options{BatchWrites: true}, zerolog.Nop())

	applied := 0
	err := h.Drag(context.Background(), "u1", newBoard([]string{"A"}, nil, nil), Move{
		TaskID: "A", From: Location{ColumnID: "c-todo", Index: 0}, To: Location{ColumnID: "c-todo", Index: 0},
	}, func(model.Board) { applied++ })

	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Empty(t, w.batches)
}

func TestDragAppliesOptimisticBoardFirst(t *testing.T) {
	w := &recordingWriter{}
	h := NewHandler(w, nil, Options{BatchWrites: true}, zerolog.Nop())

	var seen []model.Board
	err := h.Drag(context.Background(), "u1", newBoard([]string{"A"}, []string{"B"}, nil), crossMove,
		func(b model.Board) {
			// Nothing has been written when the board is applied.
			assert.Empty(t, w.batches)
			seen = append(seen, b)
		})

	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, []string{"A", "B"}, taskIDs(seen[0].Columns[1]))
	assert.Len(t, w.batches, 1)
}

func TestDragFailureReloadsBoard(t *testing.T) {
	boom := errors.New("network down")
	src := &fakeSource{board: model.Board{ID: "b1"}, rows: sampleRows()}
	loader := NewLoader(src, "")
	h := NewHandler(&recordingWriter{err: boom}, loader, Options{BatchWrites: true}, zerolog.Nop())

	current, err := loader.Load(context.Background(), "u1")
	require.NoError(t, err)

	var seen []model.Board
	err = h.Drag(context.Background(), "u1", current, Move{
		TaskID: "new",
		From:   Location{ColumnID: "c-todo", Index: 0},
		To:     Location{ColumnID: "c-done", Index: 0},
	}, func(b model.Board) { seen = append(seen, b) })

	assert.ErrorIs(t, err, boom)
	require.Len(t, seen, 2)
	assert.Equal(t, []string{"new"}, taskIDs(seen[0].Columns[2]))

	fresh, err := loader.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, fresh, seen[1])
}

func TestDragFailureWithFailedReload(t *testing.T) {
	boom := errors.New("write failed")
	loadErr := errors.New("read failed")
	loader := NewLoader(&fakeSource{fetchErr: loadErr}, "")
	h := NewHandler(&recordingWriter{err: boom}, loader, Options{BatchWrites: true}, zerolog.Nop())

	applied := 0
	err := h.Drag(context.Background(), "u1", newBoard([]string{"A"}, nil, nil), crossMove,
		func(model.Board) { applied++ })

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, 1, applied)
}

func TestDragRoundTripThroughStore(t *testing.T) {
	for _, batch := range []bool{true, false} {
		s := testutil.NewTestStore(t)
		ctx := context.Background()
		u, _ := testutil.NewTestBoard(t, s, "alice")

		for _, title := range []string{"A", "B", "C"} {
			_, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: title})
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}

		loader := NewLoader(s, "")
		h := NewHandler(s, loader, Options{BatchWrites: batch, Archiver: s}, zerolog.Nop())

		current, err := loader.Load(ctx, u.ID)
		require.NoError(t, err)
		todo := current.Columns[0]
		require.Len(t, todo.Tasks, 3)
		assertDense(t, todo)

		moved := todo.Tasks[1]
		var got model.Board
		err = h.Drag(ctx, u.ID, current, Move{
			TaskID: moved.ID,
			From:   Location{ColumnID: todo.ID, Index: 1},
			To:     Location{ColumnID: current.Columns[2].ID, Index: 0},
		}, func(b model.Board) { got = b })
		require.NoError(t, err)

		reloaded, err := loader.Load(ctx, u.ID)
		require.NoError(t, err)
		for i := range reloaded.Columns {
			assert.Equal(t, taskIDs(got.Columns[i]), taskIDs(reloaded.Columns[i]), "batch=%v", batch)
			assertDense(t, reloaded.Columns[i])
		}

		stored, err := s.GetTask(ctx, u.ID, moved.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusDone, stored.Status)
		assert.NotNil(t, stored.CompletedAt)
		assert.Nil(t, stored.ArchivedAt, "fresh completion is not swept")
	}
}

func TestDragReorderSurvivesReloadWithDuplicateStoredOrders(t *testing.T) {
	for _, batch := range []bool{true, false} {
		s := testutil.NewTestStore(t)
		ctx := context.Background()
		u, _ := testutil.NewTestBoard(t, s, "alice")

		// New tasks are all stored at order 0 and load newest first.
		for _, title := range []string{"A", "B", "C"} {
			_, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: title})
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}

		loader := NewLoader(s, "")
		h := NewHandler(s, loader, Options{BatchWrites: batch}, zerolog.Nop())

		current, err := loader.Load(ctx, u.ID)
		require.NoError(t, err)
		todo := current.Columns[0]
		require.Equal(t, []string{"C", "B", "A"}, titlesOf(todo))

		var got model.Board
		err = h.Drag(ctx, u.ID, current, Move{
			TaskID: todo.Tasks[0].ID,
			From:   Location{ColumnID: todo.ID, Index: 0},
			To:     Location{ColumnID: todo.ID, Index: 1},
		}, func(b model.Board) { got = b })
		require.NoError(t, err)
		require.Equal(t, []string{"B", "C", "A"}, titlesOf(got.Columns[0]))

		reloaded, err := loader.Load(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, titlesOf(got.Columns[0]), titlesOf(reloaded.Columns[0]), "batch=%v", batch)
		assertDense(t, reloaded.Columns[0])
	}
}

func titlesOf(c model.Column) []string {
	out := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		out[i] = t.Title
	}
	return out
}

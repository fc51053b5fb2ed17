package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

func columnByTitle(t *testing.T, b model.Board, title string) model.Column {
	t.Helper()
	c, ok := b.ColumnByTitle(title)
	require.True(t, ok, "column %q missing", title)
	return c
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	u1, err := s.EnsureUser(ctx, "alice", "Alice")
	require.NoError(t, err)
	u2, err := s.EnsureUser(ctx, "alice", "ignored")
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "Alice", u2.DisplayName)

	_, err = s.EnsureUser(ctx, "  ", "")
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestEnsureBoardCreatesDefaultColumnsOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	require.Len(t, b.Columns, 3)
	for i, title := range model.DefaultColumns() {
		assert.Equal(t, title, b.Columns[i].Title)
		assert.Equal(t, i, b.Columns[i].Order)
	}

	again, err := s.EnsureBoard(ctx, u.ID, "Other", []string{"X"})
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
	assert.Equal(t, model.DefaultBoardTitle, again.Title)
	assert.Len(t, again.Columns, 3)
}

func TestCreateTaskDefaults(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{
		Title:    "Write report",
		Priority: model.PriorityHigh,
		Category: "Work",
		Tags:     []string{"q3", " q3 ", "urgent", ""},
	})
	require.NoError(t, err)

	todo := columnByTitle(t, b, model.StatusToDo)
	assert.Equal(t, todo.ID, task.ColumnID)
	assert.Equal(t, model.StatusToDo, task.Status)
	assert.Equal(t, 0, task.Order)
	assert.Nil(t, task.CompletedAt)
	require.NotNil(t, task.CategoryID)
	assert.ElementsMatch(t, []string{"q3", "urgent"}, task.TagNames())

	got, err := s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Category)
	assert.Equal(t, []string{"q3", "urgent"}, got.TagNames())
}

func TestCreateTaskInDoneColumnIsCompleted(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	done := columnByTitle(t, b, model.StatusDone)
	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "Already done", ColumnID: done.ID})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDone, task.Status)
	assert.NotNil(t, task.CompletedAt)
}

func TestCreateTaskValidation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	_, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: " "})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = s.CreateTask(ctx, u.ID, store.NewTask{Title: "x", Priority: 9})
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, err = s.CreateTask(ctx, u.ID, store.NewTask{Title: "x", ColumnID: "nope"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTaskPositionTracksCompletion(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "Ship it"})
	require.NoError(t, err)

	done := columnByTitle(t, b, model.StatusDone)
	require.NoError(t, s.UpdateTaskPosition(ctx, u.ID, model.Position{
		TaskID: task.ID, ColumnID: done.ID, Status: done.Title, Order: 2,
	}))

	got, err := s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, got.ColumnID)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, 2, got.Order)
	require.NotNil(t, got.CompletedAt)
	completed := *got.CompletedAt

	// Reordering inside Done keeps the original completion time.
	require.NoError(t, s.UpdateTaskPosition(ctx, u.ID, model.Position{
		TaskID: task.ID, ColumnID: done.ID, Status: done.Title, Order: 0,
	}))
	got, err = s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completed.Equal(*got.CompletedAt))

	inProgress := columnByTitle(t, b, model.StatusInProgress)
	require.NoError(t, s.UpdateTaskPosition(ctx, u.ID, model.Position{
		TaskID: task.ID, ColumnID: inProgress.ID, Status: inProgress.Title, Order: 0,
	}))
	got, err = s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
}

func TestUpdateTaskPositionRejectsStatusMismatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "A"})
	require.NoError(t, err)

	done := columnByTitle(t, b, model.StatusDone)
	err = s.UpdateTaskPosition(ctx, u.ID, model.Position{
		TaskID: task.ID, ColumnID: done.ID, Status: model.StatusToDo, Order: 0,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTaskPositionsIsAllOrNothing(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "A"})
	require.NoError(t, err)

	inProgress := columnByTitle(t, b, model.StatusInProgress)
	err = s.UpdateTaskPositions(ctx, u.ID, []model.Position{
		{TaskID: task.ID, ColumnID: inProgress.ID, Status: inProgress.Title, Order: 0},
		{TaskID: "missing", ColumnID: inProgress.ID, Status: inProgress.Title, Order: 1},
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusToDo, got.Status)

	require.NoError(t, s.UpdateTaskPositions(ctx, u.ID, []model.Position{
		{TaskID: task.ID, ColumnID: inProgress.ID, Status: inProgress.Title, Order: 0},
	}))
	got, err = s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
}

func TestRowsAreScopedToUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	alice, aliceBoard := testutil.NewTestBoard(t, s, "alice")
	bob, bobBoard := testutil.NewTestBoard(t, s, "bob")

	task, err := s.CreateTask(ctx, alice.ID, store.NewTask{Title: "private"})
	require.NoError(t, err)

	_, err = s.GetTask(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteTask(ctx, bob.ID, task.ID), store.ErrNotFound)

	// Bob cannot move Alice's task, nor move his own into Alice's column.
	bobTodo := columnByTitle(t, bobBoard, model.StatusToDo)
	err = s.UpdateTaskPosition(ctx, bob.ID, model.Position{
		TaskID: task.ID, ColumnID: bobTodo.ID, Status: bobTodo.Title,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	bobTask, err := s.CreateTask(ctx, bob.ID, store.NewTask{Title: "mine"})
	require.NoError(t, err)
	aliceDone := columnByTitle(t, aliceBoard, model.StatusDone)
	err = s.UpdateTaskPosition(ctx, bob.ID, model.Position{
		TaskID: bobTask.ID, ColumnID: aliceDone.ID, Status: aliceDone.Title,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FetchBoardRows(ctx, bob.ID, aliceBoard.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchBoardRows(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	a, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "A", Category: "Home", Tags: []string{"x"}})
	require.NoError(t, err)
	archived, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "B"})
	require.NoError(t, err)
	require.NoError(t, s.ArchiveTask(ctx, u.ID, archived.ID))
	catID, err := s.ManageCategory(ctx, u.ID, "Home")
	require.NoError(t, err)
	require.NoError(t, s.SetCategoryColor(ctx, u.ID, catID, "teal"))

	rows, err := s.FetchBoardRows(ctx, u.ID, b.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, rows.Board.ID)
	require.Len(t, rows.Columns, 3)
	require.Len(t, rows.Tasks, 2)

	byID := map[string]store.TaskRow{}
	for _, r := range rows.Tasks {
		byID[r.ID] = r
	}
	require.NotNil(t, byID[a.ID].CategoryName)
	assert.Equal(t, "Home", *byID[a.ID].CategoryName)
	assert.Equal(t, "teal", *byID[a.ID].CategoryColor)
	assert.Nil(t, byID[archived.ID].CategoryName)
	assert.NotNil(t, byID[archived.ID].ArchivedAt)

	require.Len(t, rows.TaskTags, 1)
	assert.Equal(t, a.ID, rows.TaskTags[0].TaskID)
	assert.Equal(t, "x", rows.TaskTags[0].Tag.Name)
}

func TestUpdateTaskPatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{
		Title: "Old", Category: "Work", Tags: []string{"a", "b"},
	})
	require.NoError(t, err)

	title := "New"
	prio := model.PriorityLow
	deadline := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateTask(ctx, u.ID, task.ID, model.TaskPatch{
		Title:       &title,
		Priority:    &prio,
		Deadline:    &deadline,
		SetDeadline: true,
		Tags:        []string{"b", "c"},
	}))

	got, err := s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, model.PriorityLow, got.Priority)
	require.NotNil(t, got.Deadline)
	assert.True(t, deadline.Equal(*got.Deadline))
	assert.Equal(t, "Work", got.Category)
	assert.Equal(t, []string{"b", "c"}, got.TagNames())

	empty := ""
	require.NoError(t, s.UpdateTask(ctx, u.ID, task.ID, model.TaskPatch{
		Category:    &empty,
		SetDeadline: true,
	}))
	got, err = s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Deadline)
	assert.Equal(t, []string{"b", "c"}, got.TagNames())

	assert.ErrorIs(t, s.UpdateTask(ctx, u.ID, "missing", model.TaskPatch{Title: &title}), store.ErrNotFound)
}

func TestBulkUpdateTasks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	a, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "A"})
	require.NoError(t, err)
	b, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "B"})
	require.NoError(t, err)

	cat := "Errands"
	prio := model.PriorityCritical
	require.NoError(t, s.BulkUpdateTasks(ctx, u.ID, []string{a.ID, b.ID, a.ID}, model.TaskPatch{
		Category: &cat,
		Priority: &prio,
	}))

	for _, id := range []string{a.ID, b.ID} {
		got, err := s.GetTask(ctx, u.ID, id)
		require.NoError(t, err)
		assert.Equal(t, "Errands", got.Category)
		assert.Equal(t, model.PriorityCritical, got.Priority)
	}

	cats, err := s.ListCategories(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestArchiveLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	first, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "first"})
	require.NoError(t, err)
	second, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "second"})
	require.NoError(t, err)

	require.NoError(t, s.ArchiveTask(ctx, u.ID, first.ID))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.ArchiveTask(ctx, u.ID, second.ID))
	assert.ErrorIs(t, s.ArchiveTask(ctx, u.ID, second.ID), store.ErrNotFound)

	archived, err := s.ListArchivedTasks(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, second.ID, archived[0].ID)
	assert.Equal(t, first.ID, archived[1].ID)

	require.NoError(t, s.UnarchiveTask(ctx, u.ID, first.ID))
	assert.ErrorIs(t, s.UnarchiveTask(ctx, u.ID, first.ID), store.ErrNotFound)

	archived, err = s.ListArchivedTasks(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestArchiveCompletedBefore(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, b := testutil.NewTestBoard(t, s, "alice")

	done := columnByTitle(t, b, model.StatusDone)
	finished, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "finished", ColumnID: done.ID})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, u.ID, store.NewTask{Title: "open"})
	require.NoError(t, err)

	n, err := s.ArchiveCompletedBefore(ctx, u.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.ArchiveCompletedBefore(ctx, u.ID, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetTask(ctx, u.ID, finished.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ArchivedAt)

	// Unarchiving refreshes completion so the same cutoff no longer applies.
	require.NoError(t, s.UnarchiveTask(ctx, u.ID, finished.ID))
	n, err = s.ArchiveCompletedBefore(ctx, u.ID, time.Now().Add(-time.Second))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCategories(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")
	other, _ := testutil.NewTestBoard(t, s, "bob")

	id1, err := s.ManageCategory(ctx, u.ID, "Work")
	require.NoError(t, err)
	id2, err := s.ManageCategory(ctx, u.ID, " Work ")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	otherID, err := s.ManageCategory(ctx, other.ID, "Work")
	require.NoError(t, err)
	assert.NotEqual(t, id1, otherID)

	assert.ErrorIs(t, s.SetCategoryColor(ctx, u.ID, id1, "chartreuse"), store.ErrInvalid)
	require.NoError(t, s.SetCategoryColor(ctx, u.ID, id1, "rose"))

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "t", Category: "Work"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, u.ID, id1))
	got, err := s.GetTask(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, "", got.Category)

	cats, err := s.ListCategories(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestTags(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	task, err := s.CreateTask(ctx, u.ID, store.NewTask{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, s.AddTaskTags(ctx, u.ID, task.ID, []string{"b", "a"}))
	require.NoError(t, s.AddTaskTags(ctx, u.ID, task.ID, []string{"a"}))

	tags, err := s.GetTaskTags(ctx, u.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0].Name)

	require.NoError(t, s.RemoveTaskTags(ctx, u.ID, task.ID, []string{tags[0].ID}))
	tags, err = s.GetTaskTags(ctx, u.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "b", tags[0].Name)

	all, err := s.ListTags(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteTag(ctx, u.ID, tags[0].ID))
	tags, err = s.GetTaskTags(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.ErrorIs(t, s.AddTaskTags(ctx, u.ID, "missing", []string{"x"}), store.ErrNotFound)
}

func TestNotes(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	_, err := s.CreateNote(ctx, u.ID, model.Note{Title: "bad", Date: "May 1"})
	assert.ErrorIs(t, err, store.ErrInvalid)

	older, err := s.CreateNote(ctx, u.ID, model.Note{Title: "old", Date: "2024-05-01"})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, u.ID, model.Note{Title: "new", Content: "body", Date: "2024-05-02"})
	require.NoError(t, err)

	notes, err := s.ListNotes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "new", notes[0].Title)

	byDate, err := s.ListNotesByDate(ctx, u.ID, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, older.ID, byDate[0].ID)

	older.Content = "edited"
	require.NoError(t, s.UpdateNote(ctx, u.ID, older))
	require.NoError(t, s.DeleteNote(ctx, u.ID, older.ID))
	assert.ErrorIs(t, s.DeleteNote(ctx, u.ID, older.ID), store.ErrNotFound)
}

func TestTimeProgress(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	u, _ := testutil.NewTestBoard(t, s, "alice")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.CreateTimeProgress(ctx, u.ID, model.TimeProgress{
		Title: "backwards", StartDate: start, EndDate: start.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, store.ErrInvalid)

	p, err := s.CreateTimeProgress(ctx, u.ID, model.TimeProgress{
		Title: "Q1", StartDate: start, EndDate: start.AddDate(0, 3, 0),
	})
	require.NoError(t, err)

	list, err := s.ListTimeProgress(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, start.Equal(list[0].StartDate))

	p.Title = "Quarter one"
	require.NoError(t, s.UpdateTimeProgress(ctx, u.ID, p))
	require.NoError(t, s.DeleteTimeProgress(ctx, u.ID, p.ID))
	assert.ErrorIs(t, s.DeleteTimeProgress(ctx, u.ID, p.ID), store.ErrNotFound)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open("oracle", "")
	assert.ErrorIs(t, err, store.ErrInvalid)
}

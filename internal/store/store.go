package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// Sentinel errors. Store methods wrap these with the offending ID.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInvalid  = errors.New("invalid input")
)

// TaskRow is a task as stored, with its category join still nested.
type TaskRow struct {
	model.Task
	CategoryName  *string
	CategoryColor *string
}

// TaskTagRow is one row of the task/tag join.
type TaskTagRow struct {
	TaskID string
	Tag    model.Tag
}

// BoardRows is the raw material for a board: the board, its columns in
// stored order, every task of those columns (archived included) and the
// tag associations of those tasks.
type BoardRows struct {
	Board    model.Board
	Columns  []model.Column
	Tasks    []TaskRow
	TaskTags []TaskTagRow
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    int
	Category    string
	Tags        []string

	// ColumnID is the destination column; empty means the "To Do" column.
	ColumnID string
}

// Store defines the persistence interface. Every method is scoped to the
// given user ID; rows owned by other users are invisible.
type Store interface {
	// === Identity ===

	EnsureUser(ctx context.Context, username, displayName string) (model.User, error)

	// === Board ===

	EnsureBoard(ctx context.Context, userID, title string, columns []string) (model.Board, error)
	FetchBoardRows(ctx context.Context, userID, boardID string) (BoardRows, error)

	// === Positions ===

	UpdateTaskPosition(ctx context.Context, userID string, p model.Position) error
	UpdateTaskPositions(ctx context.Context, userID string, ps []model.Position) error

	// === Tasks ===

	CreateTask(ctx context.Context, userID string, t NewTask) (model.Task, error)
	GetTask(ctx context.Context, userID, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, userID, id string) error
	BulkUpdateTasks(ctx context.Context, userID string, ids []string, patch model.TaskPatch) error

	// === Archive ===

	ArchiveTask(ctx context.Context, userID, id string) error
	UnarchiveTask(ctx context.Context, userID, id string) error
	ListArchivedTasks(ctx context.Context, userID string) ([]model.Task, error)
	ArchiveCompletedBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error)

	// === Categories ===

	ManageCategory(ctx context.Context, userID, name string) (string, error)
	ListCategories(ctx context.Context, userID string) ([]model.Category, error)
	SetCategoryColor(ctx context.Context, userID, id, color string) error
	DeleteCategory(ctx context.Context, userID, id string) error

	// === Tags ===

	AddTaskTags(ctx context.Context, userID, taskID string, names []string) error
	RemoveTaskTags(ctx context.Context, userID, taskID string, tagIDs []string) error
	GetTaskTags(ctx context.Context, userID, taskID string) ([]model.Tag, error)
	ListTags(ctx context.Context, userID string) ([]model.Tag, error)
	DeleteTag(ctx context.Context, userID, id string) error

	// === Notes ===

	CreateNote(ctx context.Context, userID string, n model.Note) (model.Note, error)
	UpdateNote(ctx context.Context, userID string, n model.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
	ListNotes(ctx context.Context, userID string) ([]model.Note, error)
	ListNotesByDate(ctx context.Context, userID, date string) ([]model.Note, error)

	// === Time progress ===

	CreateTimeProgress(ctx context.Context, userID string, p model.TimeProgress) (model.TimeProgress, error)
	UpdateTimeProgress(ctx context.Context, userID string, p model.TimeProgress) error
	DeleteTimeProgress(ctx context.Context, userID, id string) error
	ListTimeProgress(ctx context.Context, userID string) ([]model.TimeProgress, error)

	Close() error
}

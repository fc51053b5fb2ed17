package board

import (
	"context"
	"fmt"
	"sort"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// Source is what the Loader reads a board from.
type Source interface {
	EnsureBoard(ctx context.Context, userID, title string, columns []string) (model.Board, error)
	FetchBoardRows(ctx context.Context, userID, boardID string) (store.BoardRows, error)
}

// Loader rebuilds a user's board from storage. It is used for the first
// load and after every failed write.
type Loader struct {
	src   Source
	title string
}

// NewLoader creates a Loader. title names the board when one has to be
// created for a new user.
func NewLoader(src Source, title string) *Loader {
	if title == "" {
		title = model.DefaultBoardTitle
	}
	return &Loader{src: src, title: title}
}

// Load returns the user's board with archived tasks left out and task
// orders renumbered from zero in each column.
func (l *Loader) Load(ctx context.Context, userID string) (model.Board, error) {
	b, err := l.src.EnsureBoard(ctx, userID, l.title, model.DefaultColumns())
	if err != nil {
		return model.Board{}, fmt.Errorf("ensuring board: %w", err)
	}

	rows, err := l.src.FetchBoardRows(ctx, userID, b.ID)
	if err != nil {
		return model.Board{}, fmt.Errorf("fetching board %s: %w", b.ID, err)
	}
	return Assemble(rows), nil
}

// Assemble turns raw board rows into a Board.
func Assemble(rows store.BoardRows) model.Board {
	b := rows.Board
	b.Columns = make([]model.Column, len(rows.Columns))
	copy(b.Columns, rows.Columns)
	sort.SliceStable(b.Columns, func(i, j int) bool {
		return b.Columns[i].Order < b.Columns[j].Order
	})

	colIdx := make(map[string]int, len(b.Columns))
	for i := range b.Columns {
		b.Columns[i].Tasks = nil
		colIdx[b.Columns[i].ID] = i
	}

	tags := make(map[string][]model.Tag)
	for _, tt := range rows.TaskTags {
		tags[tt.TaskID] = append(tags[tt.TaskID], tt.Tag)
	}

	for _, r := range rows.Tasks {
		if r.ArchivedAt != nil {
			continue
		}
		ci, ok := colIdx[r.ColumnID]
		if !ok {
			continue
		}
		t := r.Task
		if r.CategoryName != nil {
			t.Category = *r.CategoryName
		}
		if r.CategoryColor != nil {
			t.CategoryColor = *r.CategoryColor
		}
		t.Tags = tags[t.ID]
		// Status always mirrors the column holding the task.
		t.Status = b.Columns[ci].Title
		b.Columns[ci].Tasks = append(b.Columns[ci].Tasks, t)
	}

	for i := range b.Columns {
		tasks := b.Columns[i].Tasks
		sort.SliceStable(tasks, func(a, c int) bool {
			if tasks[a].Order != tasks[c].Order {
				return tasks[a].Order < tasks[c].Order
			}
			return tasks[a].CreatedAt.After(tasks[c].CreatedAt)
		})
		for j := range tasks {
			tasks[j].Order = j
		}
	}
	return b
}

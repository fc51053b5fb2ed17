package model

// Column titles double as task status values.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// DefaultBoardTitle is used when a user's board is created lazily.
const DefaultBoardTitle = "My Board"

// DefaultColumns returns the column titles created for a new board, in order.
func DefaultColumns() []string {
	return []string{StatusToDo, StatusInProgress, StatusDone}
}

// Board is the per-user container of columns. The in-memory value is a
// cache rebuilt from storage on demand.
type Board struct {
	ID      string   `json:"id" db:"id"`
	UserID  string   `json:"user_id" db:"user_id"`
	Title   string   `json:"title" db:"title"`
	Columns []Column `json:"columns" db:"-"`
}

// Column is an ordered bucket of tasks. Its title is the status of
// every task it holds.
type Column struct {
	ID      string `json:"id" db:"id"`
	BoardID string `json:"board_id" db:"board_id"`
	Title   string `json:"title" db:"title"`
	Order   int    `json:"order" db:"sort_order"`
	Tasks   []Task `json:"tasks" db:"-"`
}

// Position is the column/status/order triple written for a task when it moves.
type Position struct {
	TaskID   string `json:"task_id"`
	ColumnID string `json:"column_id"`
	Status   string `json:"status"`
	Order    int    `json:"order"`
}

// ColumnIndex returns the index of the column with the given ID, or -1.
func (b Board) ColumnIndex(id string) int {
	for i, c := range b.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ColumnByTitle returns the column whose title matches, if any.
func (b Board) ColumnByTitle(title string) (Column, bool) {
	for _, c := range b.Columns {
		if c.Title == title {
			return c, true
		}
	}
	return Column{}, false
}

// FindTask returns the column index and task index of a task, or -1, -1.
func (b Board) FindTask(taskID string) (int, int) {
	for ci, c := range b.Columns {
		for ti, t := range c.Tasks {
			if t.ID == taskID {
				return ci, ti
			}
		}
	}
	return -1, -1
}

// Tasks returns every task on the board in column order.
func (b Board) Tasks() []Task {
	var out []Task
	for _, c := range b.Columns {
		out = append(out, c.Tasks...)
	}
	return out
}

// Clone returns a copy of the board whose column and task slices can be
// modified without affecting b.
func (b Board) Clone() Board {
	out := b
	out.Columns = make([]Column, len(b.Columns))
	for i, c := range b.Columns {
		c.Tasks = append([]Task(nil), c.Tasks...)
		out.Columns[i] = c
	}
	return out
}

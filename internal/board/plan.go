package board

import "github.com/nhle/taskboard/internal/model"

// Location addresses a slot on the board: a column and an index in its
// task list.
type Location struct {
	ColumnID string
	Index    int
}

// Move is a single drag gesture.
type Move struct {
	TaskID string
	From   Location
	To     Location
}

// Result is the outcome of planning a move: the rearranged board and the
// positions that have to be written for storage to match it.
type Result struct {
	Board model.Board
	Moved model.Task

	// Updates holds the moved task first, then every other task in the
	// affected columns with its new order.
	Updates []model.Position

	// StatusChanged is set when the task moved to a column with another title.
	StatusChanged bool
}

// Plan applies mv to a copy of b. It returns false, and leaves b as it
// was, when the move is a no-op: same slot, unknown column, or a task
// that is not in the source column.
func Plan(b model.Board, mv Move) (Result, bool) {
	if mv.From.ColumnID == mv.To.ColumnID && mv.From.Index == mv.To.Index {
		return Result{}, false
	}

	srcIdx := b.ColumnIndex(mv.From.ColumnID)
	dstIdx := b.ColumnIndex(mv.To.ColumnID)
	if srcIdx < 0 || dstIdx < 0 {
		return Result{}, false
	}

	taskIdx := indexOfTask(b.Columns[srcIdx].Tasks, mv.TaskID, mv.From.Index)
	if taskIdx < 0 {
		return Result{}, false
	}

	out := b.Clone()
	src := &out.Columns[srcIdx]
	dst := &out.Columns[dstIdx]

	task := src.Tasks[taskIdx]
	src.Tasks = append(src.Tasks[:taskIdx], src.Tasks[taskIdx+1:]...)

	to := clamp(mv.To.Index, 0, len(dst.Tasks))
	if srcIdx == dstIdx && to == taskIdx {
		return Result{}, false
	}

	prevStatus := task.Status
	task.ColumnID = dst.ID
	task.Status = dst.Title

	dst.Tasks = append(dst.Tasks, model.Task{})
	copy(dst.Tasks[to+1:], dst.Tasks[to:])
	dst.Tasks[to] = task

	res := Result{StatusChanged: prevStatus != task.Status}

	// Every task in the affected columns is written, not only those whose
	// order changed in memory: stored orders may hold duplicates or gaps
	// that loading renumbers away.
	var others []model.Position
	reindex := func(c *model.Column) {
		for i := range c.Tasks {
			t := &c.Tasks[i]
			t.Order = i
			if t.ID == task.ID {
				res.Moved = *t
				continue
			}
			others = append(others, positionOf(*t))
		}
	}
	if srcIdx != dstIdx {
		reindex(src)
	}
	reindex(dst)

	res.Board = out
	res.Updates = append([]model.Position{positionOf(res.Moved)}, others...)
	return res, true
}

// indexOfTask prefers the hinted index and falls back to a scan.
func indexOfTask(tasks []model.Task, id string, hint int) int {
	if hint >= 0 && hint < len(tasks) && tasks[hint].ID == id {
		return hint
	}
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func positionOf(t model.Task) model.Position {
	return model.Position{
		TaskID:   t.ID,
		ColumnID: t.ColumnID,
		Status:   t.Status,
		Order:    t.Order,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

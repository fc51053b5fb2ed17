package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

// taskColumns is the select list read by scanTask, aliased on "t".
const taskColumns = `t.id, t.user_id, t.column_id, t.title, t.description,
	t.deadline, t.category_id, t.status, t.sort_order, t.priority,
	t.created_at, t.completed_at, t.archived_at, t.updated_at`

// CreateTask inserts a new task at order 0 of its column. Status is the
// column title, the category is created or reused by name and tags are
// attached by name.
func (s *SQLStore) CreateTask(
	ctx context.Context,
	userID string,
	nt NewTask,
) (model.Task, error) {
	if strings.TrimSpace(nt.Title) == "" {
		return model.Task{}, fmt.Errorf("task title must not be empty: %w", ErrInvalid)
	}
	if !model.ValidPriority(nt.Priority) {
		return model.Task{}, fmt.Errorf("priority %d out of range: %w", nt.Priority, ErrInvalid)
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(nt.Title),
		Description: nt.Description,
		Deadline:    utcPtr(nt.Deadline),
		Priority:    nt.Priority,
		Order:       0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		col, err := resolveColumn(ctx, tx, userID, nt.ColumnID)
		if err != nil {
			return err
		}
		task.ColumnID = col.ID
		task.Status = col.Title
		if task.Status == model.StatusDone {
			task.CompletedAt = &now
		}

		if name := strings.TrimSpace(nt.Category); name != "" {
			id, err := manageCategory(ctx, tx, userID, name)
			if err != nil {
				return err
			}
			task.CategoryID = &id
			task.Category = name
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO tasks (
				id, user_id, column_id, title, description,
				deadline, category_id, status, sort_order, priority,
				created_at, completed_at, archived_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			task.ID, task.UserID, task.ColumnID, task.Title, task.Description,
			task.Deadline, task.CategoryID, task.Status, task.Order, task.Priority,
			task.CreatedAt, task.CompletedAt, nil, task.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		if err := addTaskTags(ctx, tx, userID, task.ID, nt.Tags); err != nil {
			return err
		}
		task.Tags, err = taskTags(ctx, tx, userID, task.ID)
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// GetTask retrieves a single task by ID, including category and tags.
func (s *SQLStore) GetTask(
	ctx context.Context,
	userID, id string,
) (*model.Task, error) {
	var catName, catColor *string
	row := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		SELECT `+taskColumns+`, c.name, c.color
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ? AND t.user_id = ?`), id, userID)

	task, err := scanTask(row, &catName, &catColor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	task.Category = deref(catName)
	task.CategoryColor = deref(catColor)

	task.Tags, err = taskTags(ctx, s.db, userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags for task %s: %w", id, err)
	}
	return &task, nil
}

// UpdateTask applies a partial update. When patch.Tags is set the task's
// tags are reconciled by name: missing ones are attached and absent ones
// detached.
func (s *SQLStore) UpdateTask(
	ctx context.Context,
	userID, id string,
	patch model.TaskPatch,
) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateTaskFields(ctx, tx, userID, []string{id}, patch); err != nil {
			return err
		}
		if patch.Tags == nil {
			return nil
		}
		return reconcileTags(ctx, tx, userID, id, patch.Tags)
	})
}

// BulkUpdateTasks applies the same patch to every listed task. Tags in the
// patch are ignored.
func (s *SQLStore) BulkUpdateTasks(
	ctx context.Context,
	userID string,
	ids []string,
	patch model.TaskPatch,
) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return updateTaskFields(ctx, tx, userID, ids, patch)
	})
}

// DeleteTask removes a task. CASCADE on task_tags removes associations.
func (s *SQLStore) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"DELETE FROM tasks WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return checkAffected(res, "task", id)
}

// ArchiveTask hides a task from the board without deleting it.
func (s *SQLStore) ArchiveTask(ctx context.Context, userID, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks SET archived_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND archived_at IS NULL`),
		now, now, id, userID)
	if err != nil {
		return fmt.Errorf("archiving task %s: %w", id, err)
	}
	return checkAffected(res, "unarchived task", id)
}

// UnarchiveTask returns an archived task to its column. A Done task gets a
// fresh completion time so the next sweep does not archive it again.
func (s *SQLStore) UnarchiveTask(ctx context.Context, userID, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks SET
			archived_at = NULL,
			completed_at = CASE WHEN completed_at IS NULL THEN completed_at ELSE ? END,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND archived_at IS NOT NULL`),
		now, now, id, userID)
	if err != nil {
		return fmt.Errorf("unarchiving task %s: %w", id, err)
	}
	return checkAffected(res, "archived task", id)
}

// ListArchivedTasks returns archived tasks, most recently archived first.
func (s *SQLStore) ListArchivedTasks(
	ctx context.Context,
	userID string,
) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(`
		SELECT `+taskColumns+`, c.name, c.color
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.archived_at IS NOT NULL
		ORDER BY t.archived_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying archived tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var catName, catColor *string
		task, err := scanTask(rows, &catName, &catColor)
		if err != nil {
			return nil, err
		}
		task.Category = deref(catName)
		task.CategoryColor = deref(catColor)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ArchiveCompletedBefore archives every Done task completed at or before
// cutoff and returns how many were archived.
func (s *SQLStore) ArchiveCompletedBefore(
	ctx context.Context,
	userID string,
	cutoff time.Time,
) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks SET archived_at = ?, updated_at = ?
		WHERE user_id = ? AND status = ? AND archived_at IS NULL
			AND completed_at IS NOT NULL AND completed_at <= ?`),
		now, now, userID, model.StatusDone, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("archiving completed tasks: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// resolveColumn returns the user's column with the given ID, or the
// "To Do" column when id is empty.
func resolveColumn(
	ctx context.Context,
	q sqlx.ExtContext,
	userID, id string,
) (model.Column, error) {
	query := `
		SELECT bc.id, bc.board_id, bc.title, bc.sort_order
		FROM board_columns bc
		INNER JOIN boards b ON b.id = bc.board_id
		WHERE b.user_id = ? AND `
	arg := id
	if id == "" {
		query += "bc.title = ?"
		arg = model.StatusToDo
	} else {
		query += "bc.id = ?"
	}

	var c model.Column
	err := q.QueryRowxContext(ctx, q.Rebind(query), userID, arg).
		Scan(&c.ID, &c.BoardID, &c.Title, &c.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Column{}, notFound("column", arg)
	}
	if err != nil {
		return model.Column{}, fmt.Errorf("getting column %s: %w", arg, err)
	}
	return c, nil
}

// updateTaskFields writes the scalar fields of patch to every task in ids.
func updateTaskFields(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
	ids []string,
	patch model.TaskPatch,
) error {
	var sets []string
	var args []interface{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return fmt.Errorf("task title must not be empty: %w", ErrInvalid)
		}
		sets = append(sets, "title = ?")
		args = append(args, title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Priority != nil {
		if !model.ValidPriority(*patch.Priority) {
			return fmt.Errorf("priority %d out of range: %w", *patch.Priority, ErrInvalid)
		}
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.SetDeadline {
		sets = append(sets, "deadline = ?")
		args = append(args, utcPtr(patch.Deadline))
	}
	if patch.Category != nil {
		var categoryID *string
		if name := strings.TrimSpace(*patch.Category); name != "" {
			id, err := manageCategory(ctx, tx, userID, name)
			if err != nil {
				return err
			}
			categoryID = &id
		}
		sets = append(sets, "category_id = ?")
		args = append(args, categoryID)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())

	ids = uniqueStrings(ids)
	in, args := inClause(args, ids)
	args = append(args, userID)

	res, err := tx.ExecContext(ctx, tx.Rebind(
		"UPDATE tasks SET "+strings.Join(sets, ", ")+
			" WHERE id IN ("+in+") AND user_id = ?"), args...)
	if err != nil {
		return fmt.Errorf("updating tasks: %w", err)
	}
	if n, _ := res.RowsAffected(); int(n) != len(ids) {
		return notFound("task", strings.Join(ids, ","))
	}
	return nil
}

// scanTask scans the taskColumns select list plus any extra columns.
func scanTask(row scanner, extra ...interface{}) (model.Task, error) {
	var (
		t           model.Task
		deadline    *time.Time
		categoryID  *string
		completedAt *time.Time
		archivedAt  *time.Time
	)

	dest := []interface{}{
		&t.ID, &t.UserID, &t.ColumnID, &t.Title, &t.Description,
		&deadline, &categoryID, &t.Status, &t.Order, &t.Priority,
		&t.CreatedAt, &completedAt, &archivedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	t.Deadline = deadline
	t.CategoryID = categoryID
	t.CompletedAt = completedAt
	t.ArchivedAt = archivedAt
	return t, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uniqueStrings(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

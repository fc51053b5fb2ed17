package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

// AddTaskTags attaches tags to a task by name, creating tags that do not
// exist yet. Already attached names are ignored.
func (s *SQLStore) AddTaskTags(ctx context.Context, userID, taskID string, names []string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureTaskOwned(ctx, tx, userID, taskID); err != nil {
			return err
		}
		return addTaskTags(ctx, tx, userID, taskID, names)
	})
}

// RemoveTaskTags detaches the given tags from a task. The tags themselves
// are kept.
func (s *SQLStore) RemoveTaskTags(ctx context.Context, userID, taskID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureTaskOwned(ctx, tx, userID, taskID); err != nil {
			return err
		}
		return removeTaskTags(ctx, tx, taskID, tagIDs)
	})
}

// GetTaskTags returns the tags attached to a task, ordered by name.
func (s *SQLStore) GetTaskTags(ctx context.Context, userID, taskID string) ([]model.Tag, error) {
	return taskTags(ctx, s.db, userID, taskID)
}

// ListTags retrieves the user's tags ordered by name.
func (s *SQLStore) ListTags(ctx context.Context, userID string) ([]model.Tag, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(`
		SELECT id, user_id, name, created_at FROM tags
		WHERE user_id = ? ORDER BY name`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// DeleteTag removes a tag. CASCADE on task_tags removes associations.
func (s *SQLStore) DeleteTag(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"DELETE FROM tags WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	return checkAffected(res, "tag", id)
}

func ensureTaskOwned(ctx context.Context, q sqlx.ExtContext, userID, taskID string) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(
		"SELECT COUNT(*) FROM tasks WHERE id = ? AND user_id = ?"), taskID, userID,
	); err != nil {
		return fmt.Errorf("checking task %s: %w", taskID, err)
	}
	if n == 0 {
		return notFound("task", taskID)
	}
	return nil
}

func addTaskTags(ctx context.Context, q sqlx.ExtContext, userID, taskID string, names []string) error {
	now := time.Now().UTC()
	for _, name := range normalizeTagNames(names) {
		if _, err := q.ExecContext(ctx, q.Rebind(`
			INSERT INTO tags (id, user_id, name, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, name) DO NOTHING`),
			uuid.New().String(), userID, name, now,
		); err != nil {
			return fmt.Errorf("creating tag %q: %w", name, err)
		}

		var tagID string
		if err := sqlx.GetContext(ctx, q, &tagID, q.Rebind(
			"SELECT id FROM tags WHERE user_id = ? AND name = ?"), userID, name,
		); err != nil {
			return fmt.Errorf("getting tag %q: %w", name, err)
		}

		if _, err := q.ExecContext(ctx, q.Rebind(`
			INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)
			ON CONFLICT (task_id, tag_id) DO NOTHING`),
			taskID, tagID,
		); err != nil {
			return fmt.Errorf("attaching tag %q to task %s: %w", name, taskID, err)
		}
	}
	return nil
}

func removeTaskTags(ctx context.Context, q sqlx.ExtContext, taskID string, tagIDs []string) error {
	in, args := inClause([]interface{}{taskID}, tagIDs)
	if _, err := q.ExecContext(ctx, q.Rebind(
		"DELETE FROM task_tags WHERE task_id = ? AND tag_id IN ("+in+")"), args...,
	); err != nil {
		return fmt.Errorf("detaching tags from task %s: %w", taskID, err)
	}
	return nil
}

// reconcileTags makes the task's tag set equal to names.
func reconcileTags(ctx context.Context, q sqlx.ExtContext, userID, taskID string, names []string) error {
	current, err := taskTags(ctx, q, userID, taskID)
	if err != nil {
		return err
	}

	want := make(map[string]bool)
	for _, n := range normalizeTagNames(names) {
		want[n] = true
	}

	var remove []string
	for _, t := range current {
		if !want[t.Name] {
			remove = append(remove, t.ID)
		}
	}
	if len(remove) > 0 {
		if err := removeTaskTags(ctx, q, taskID, remove); err != nil {
			return err
		}
	}
	return addTaskTags(ctx, q, userID, taskID, names)
}

func taskTags(ctx context.Context, q sqlx.ExtContext, userID, taskID string) ([]model.Tag, error) {
	rows, err := q.QueryxContext(ctx, q.Rebind(`
		SELECT g.id, g.user_id, g.name, g.created_at FROM tags g
		INNER JOIN task_tags tt ON g.id = tt.tag_id
		WHERE tt.task_id = ? AND g.user_id = ?
		ORDER BY g.name`), taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for task %s: %w", taskID, err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows *sqlx.Rows) ([]model.Tag, error) {
	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// normalizeTagNames trims names and drops blanks and duplicates, keeping
// first-seen order.
func normalizeTagNames(names []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

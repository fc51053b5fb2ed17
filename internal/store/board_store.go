package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

// EnsureBoard returns the user's board, creating it and the given columns
// if the user has none yet. Existing boards are returned as stored.
func (s *SQLStore) EnsureBoard(
	ctx context.Context,
	userID, title string,
	columns []string,
) (model.Board, error) {
	var board model.Board
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, tx.Rebind(
			"SELECT id, user_id, title FROM boards WHERE user_id = ?"), userID,
		).Scan(&board.ID, &board.UserID, &board.Title)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			board = model.Board{ID: uuid.New().String(), UserID: userID, Title: title}
			if _, err := tx.ExecContext(ctx, tx.Rebind(
				"INSERT INTO boards (id, user_id, title, created_at) VALUES (?, ?, ?, ?)"),
				board.ID, board.UserID, board.Title, time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("creating board: %w", err)
			}
		case err != nil:
			return fmt.Errorf("getting board: %w", err)
		}

		var count int
		if err := tx.GetContext(ctx, &count, tx.Rebind(
			"SELECT COUNT(*) FROM board_columns WHERE board_id = ?"), board.ID,
		); err != nil {
			return fmt.Errorf("counting columns: %w", err)
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for i, colTitle := range columns {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO board_columns (id, board_id, title, sort_order, created_at)
				VALUES (?, ?, ?, ?, ?)`),
				uuid.New().String(), board.ID, colTitle, i, now,
			); err != nil {
				return fmt.Errorf("creating column %q: %w", colTitle, err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Board{}, err
	}

	cols, err := s.listColumns(ctx, s.db, board.ID)
	if err != nil {
		return model.Board{}, err
	}
	board.Columns = cols
	return board, nil
}

// FetchBoardRows reads the board, its columns and every task on it with
// category and tag joins. Archived tasks are included; callers filter.
func (s *SQLStore) FetchBoardRows(
	ctx context.Context,
	userID, boardID string,
) (BoardRows, error) {
	var rows BoardRows

	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		"SELECT id, user_id, title FROM boards WHERE id = ? AND user_id = ?"),
		boardID, userID,
	).Scan(&rows.Board.ID, &rows.Board.UserID, &rows.Board.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return BoardRows{}, notFound("board", boardID)
	}
	if err != nil {
		return BoardRows{}, fmt.Errorf("getting board %s: %w", boardID, err)
	}

	if rows.Columns, err = s.listColumns(ctx, s.db, boardID); err != nil {
		return BoardRows{}, err
	}

	taskRows, err := s.db.QueryxContext(ctx, s.db.Rebind(`
		SELECT `+taskColumns+`, c.name, c.color
		FROM tasks t
		INNER JOIN board_columns bc ON bc.id = t.column_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE bc.board_id = ? AND t.user_id = ?`),
		boardID, userID,
	)
	if err != nil {
		return BoardRows{}, fmt.Errorf("querying board tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var r TaskRow
		task, err := scanTask(taskRows, &r.CategoryName, &r.CategoryColor)
		if err != nil {
			return BoardRows{}, err
		}
		r.Task = task
		rows.Tasks = append(rows.Tasks, r)
	}
	if err := taskRows.Err(); err != nil {
		return BoardRows{}, err
	}

	tagRows, err := s.db.QueryxContext(ctx, s.db.Rebind(`
		SELECT tt.task_id, g.id, g.user_id, g.name, g.created_at
		FROM task_tags tt
		INNER JOIN tags g ON g.id = tt.tag_id
		INNER JOIN tasks t ON t.id = tt.task_id
		INNER JOIN board_columns bc ON bc.id = t.column_id
		WHERE bc.board_id = ? AND t.user_id = ?
		ORDER BY g.name`),
		boardID, userID,
	)
	if err != nil {
		return BoardRows{}, fmt.Errorf("querying board tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var r TaskTagRow
		if err := tagRows.Scan(
			&r.TaskID, &r.Tag.ID, &r.Tag.UserID, &r.Tag.Name, &r.Tag.CreatedAt,
		); err != nil {
			return BoardRows{}, fmt.Errorf("scanning task tag row: %w", err)
		}
		rows.TaskTags = append(rows.TaskTags, r)
	}
	return rows, tagRows.Err()
}

func (s *SQLStore) listColumns(
	ctx context.Context,
	q sqlx.ExtContext,
	boardID string,
) ([]model.Column, error) {
	rows, err := q.QueryxContext(ctx, q.Rebind(`
		SELECT id, board_id, title, sort_order FROM board_columns
		WHERE board_id = ? ORDER BY sort_order`), boardID)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []model.Column
	for rows.Next() {
		var c model.Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Title, &c.Order); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// positionQuery writes a task's column/status/order triple. The EXISTS
// clause rejects columns outside the user's board and statuses that do
// not match the column title.
const positionQuery = `
	UPDATE tasks SET
		column_id = ?, status = ?, sort_order = ?, updated_at = ?,
		completed_at = CASE WHEN ? THEN COALESCE(completed_at, ?) ELSE NULL END
	WHERE id = ? AND user_id = ? AND EXISTS (
		SELECT 1 FROM board_columns bc
		INNER JOIN boards b ON b.id = bc.board_id
		WHERE bc.id = ? AND bc.title = ? AND b.user_id = ?
	)`

func positionArgs(userID string, p model.Position, now time.Time) []interface{} {
	return []interface{}{
		p.ColumnID, p.Status, p.Order, now,
		p.Status == model.StatusDone, now,
		p.TaskID, userID,
		p.ColumnID, p.Status, userID,
	}
}

// UpdateTaskPosition moves a single task. Completion time is set when the
// task enters the Done column and cleared when it leaves.
func (s *SQLStore) UpdateTaskPosition(
	ctx context.Context,
	userID string,
	p model.Position,
) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(positionQuery),
		positionArgs(userID, p, time.Now().UTC())...)
	if err != nil {
		return fmt.Errorf("updating position of task %s: %w", p.TaskID, err)
	}
	return checkAffected(res, "task", p.TaskID)
}

// UpdateTaskPositions writes all positions in one transaction. Either all
// rows are updated or none are.
func (s *SQLStore) UpdateTaskPositions(
	ctx context.Context,
	userID string,
	ps []model.Position,
) error {
	if len(ps) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(positionQuery))
		if err != nil {
			return fmt.Errorf("preparing position statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, p := range ps {
			res, err := stmt.ExecContext(ctx, positionArgs(userID, p, now)...)
			if err != nil {
				return fmt.Errorf("updating position of task %s: %w", p.TaskID, err)
			}
			if err := checkAffected(res, "task", p.TaskID); err != nil {
				return err
			}
		}
		return nil
	})
}

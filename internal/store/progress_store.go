package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateTimeProgress inserts a tracker spanning StartDate to EndDate.
func (s *SQLStore) CreateTimeProgress(
	ctx context.Context,
	userID string,
	p model.TimeProgress,
) (model.TimeProgress, error) {
	if err := validateProgress(p); err != nil {
		return model.TimeProgress{}, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.UserID = userID
	p.StartDate = p.StartDate.UTC()
	p.EndDate = p.EndDate.UTC()
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO time_progress (id, user_id, title, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		p.ID, p.UserID, p.Title, p.StartDate, p.EndDate, p.CreatedAt,
	)
	if err != nil {
		return model.TimeProgress{}, fmt.Errorf("creating time progress: %w", err)
	}
	return p, nil
}

// UpdateTimeProgress replaces a tracker's title and dates.
func (s *SQLStore) UpdateTimeProgress(ctx context.Context, userID string, p model.TimeProgress) error {
	if err := validateProgress(p); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE time_progress SET title = ?, start_date = ?, end_date = ?
		WHERE id = ? AND user_id = ?`),
		p.Title, p.StartDate.UTC(), p.EndDate.UTC(), p.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating time progress %s: %w", p.ID, err)
	}
	return checkAffected(res, "time progress", p.ID)
}

// DeleteTimeProgress removes a tracker by ID.
func (s *SQLStore) DeleteTimeProgress(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"DELETE FROM time_progress WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("deleting time progress %s: %w", id, err)
	}
	return checkAffected(res, "time progress", id)
}

// ListTimeProgress returns the user's trackers, newest first.
func (s *SQLStore) ListTimeProgress(ctx context.Context, userID string) ([]model.TimeProgress, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(`
		SELECT id, user_id, title, start_date, end_date, created_at
		FROM time_progress WHERE user_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying time progress: %w", err)
	}
	defer rows.Close()

	var out []model.TimeProgress
	for rows.Next() {
		var p model.TimeProgress
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning time progress row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func validateProgress(p model.TimeProgress) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("time progress title must not be empty: %w", ErrInvalid)
	}
	if p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end date before start date: %w", ErrInvalid)
	}
	return nil
}

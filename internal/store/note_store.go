package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

const noteColumns = "id, user_id, title, content, note_date, created_at, updated_at"

// CreateNote inserts a dated note. Date must be YYYY-MM-DD.
func (s *SQLStore) CreateNote(ctx context.Context, userID string, n model.Note) (model.Note, error) {
	if err := validateNote(n); err != nil {
		return model.Note{}, err
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	n.UserID = userID
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.UserID, n.Title, n.Content, n.Date, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Note{}, fmt.Errorf("note %s: %w", n.ID, ErrConflict)
		}
		return model.Note{}, fmt.Errorf("creating note: %w", err)
	}
	return n, nil
}

// UpdateNote replaces a note's title, content and date.
func (s *SQLStore) UpdateNote(ctx context.Context, userID string, n model.Note) error {
	if err := validateNote(n); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE notes SET title = ?, content = ?, note_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		n.Title, n.Content, n.Date, time.Now().UTC(), n.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating note %s: %w", n.ID, err)
	}
	return checkAffected(res, "note", n.ID)
}

// DeleteNote removes a note by ID.
func (s *SQLStore) DeleteNote(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"DELETE FROM notes WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}
	return checkAffected(res, "note", id)
}

// ListNotes returns all notes, newest date first.
func (s *SQLStore) ListNotes(ctx context.Context, userID string) ([]model.Note, error) {
	return s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ? ORDER BY note_date DESC, created_at DESC`, userID)
}

// ListNotesByDate returns the notes of one day, newest first.
func (s *SQLStore) ListNotesByDate(ctx context.Context, userID, date string) ([]model.Note, error) {
	return s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ? AND note_date = ? ORDER BY created_at DESC`, userID, date)
}

func (s *SQLStore) queryNotes(ctx context.Context, query string, args ...interface{}) ([]model.Note, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Content, &n.Date, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func validateNote(n model.Note) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("note title must not be empty: %w", ErrInvalid)
	}
	if _, err := time.Parse(model.NoteDateLayout, n.Date); err != nil {
		return fmt.Errorf("note date %q: %w", n.Date, ErrInvalid)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// EnsureUser returns the user with the given username, creating it on
// first use.
func (s *SQLStore) EnsureUser(
	ctx context.Context,
	username, displayName string,
) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, fmt.Errorf("username must not be empty: %w", ErrInvalid)
	}

	u, err := s.getUserByName(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("getting user %s: %w", username, err)
	}

	u = model.User{
		ID:          uuid.New().String(),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, username, display_name, created_at)
		VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, u.DisplayName, u.CreatedAt,
	)
	if err != nil {
		// Lost a race with another process creating the same user.
		if isUniqueViolation(err) {
			return s.getUserByName(ctx, username)
		}
		return model.User{}, fmt.Errorf("creating user %s: %w", username, err)
	}
	return u, nil
}

func (s *SQLStore) getUserByName(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		"SELECT id, username, display_name, created_at FROM users WHERE username = ?"),
		username,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt)
	return u, err
}

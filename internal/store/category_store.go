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

// ManageCategory returns the ID of the user's category with the given
// name, creating it if it does not exist.
func (s *SQLStore) ManageCategory(ctx context.Context, userID, name string) (string, error) {
	var id string
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = manageCategory(ctx, tx, userID, name)
		return err
	})
	return id, err
}

func manageCategory(ctx context.Context, q sqlx.ExtContext, userID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("category name must not be empty: %w", ErrInvalid)
	}

	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO categories (id, user_id, name, color, created_at)
		VALUES (?, ?, ?, '', ?)
		ON CONFLICT (user_id, name) DO NOTHING`),
		uuid.New().String(), userID, name, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating category %q: %w", name, err)
	}

	var id string
	if err := sqlx.GetContext(ctx, q, &id, q.Rebind(
		"SELECT id FROM categories WHERE user_id = ? AND name = ?"), userID, name,
	); err != nil {
		return "", fmt.Errorf("getting category %q: %w", name, err)
	}
	return id, nil
}

// ListCategories retrieves the user's categories ordered by name.
func (s *SQLStore) ListCategories(
	ctx context.Context,
	userID string,
) ([]model.Category, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(`
		SELECT id, user_id, name, color, created_at FROM categories
		WHERE user_id = ? ORDER BY name`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// SetCategoryColor changes a category's colour. The colour must be in the
// palette.
func (s *SQLStore) SetCategoryColor(ctx context.Context, userID, id, color string) error {
	if !model.ValidCategoryColor(color) {
		return fmt.Errorf("colour %q: %w", color, ErrInvalid)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE categories SET color = ? WHERE id = ? AND user_id = ?"),
		color, id, userID)
	if err != nil {
		return fmt.Errorf("updating category %s: %w", id, err)
	}
	return checkAffected(res, "category", id)
}

// DeleteCategory removes a category. Tasks that used it keep existing with
// no category.
func (s *SQLStore) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE tasks SET category_id = NULL WHERE category_id = ? AND user_id = ?"),
			id, userID,
		); err != nil {
			return fmt.Errorf("clearing category %s from tasks: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(
			"DELETE FROM categories WHERE id = ? AND user_id = ?"), id, userID)
		if err != nil {
			return fmt.Errorf("deleting category %s: %w", id, err)
		}
		return checkAffected(res, "category", id)
	})
}

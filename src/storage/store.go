// Package storage is the sqlite-backed persistence collaborator for the
// legacy import pipeline.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/duitku/backend/src/legacyimport"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ legacyimport.Store = (*SQLStore)(nil)

func (s *SQLStore) FindCategory(ctx context.Context, userID int64, name string, typ legacyimport.TransactionType) (*legacyimport.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, is_default, icon
		FROM categories
		WHERE user_id = ? AND name = ? AND type = ?`, userID, name, string(typ))

	var cat legacyimport.Category
	var catType string
	err := row.Scan(&cat.ID, &cat.UserID, &cat.Name, &catType, &cat.IsDefault, &cat.Icon)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying category: %w", err)
	}
	cat.Type = legacyimport.TransactionType(catType)
	return &cat, nil
}

// CreateCategory inserts the category if absent and returns the id of the
// surviving row either way. INSERT OR IGNORE against the UNIQUE
// (user_id, name, type) index makes concurrent find-or-create safe: the
// loser of a race lands on the re-select instead of a constraint error.
func (s *SQLStore) CreateCategory(ctx context.Context, category legacyimport.Category) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO categories (user_id, name, type, is_default, icon)
		VALUES (?, ?, ?, ?, ?)`,
		category.UserID, category.Name, string(category.Type), category.IsDefault, category.Icon)
	if err != nil {
		return 0, fmt.Errorf("error inserting category %q: %w", category.Name, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		if id, err := res.LastInsertId(); err == nil {
			return id, nil
		}
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM categories WHERE user_id = ? AND name = ? AND type = ?`,
		category.UserID, category.Name, string(category.Type)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error re-selecting category %q after insert: %w", category.Name, err)
	}
	return id, nil
}

func (s *SQLStore) CreateTransaction(ctx context.Context, tx legacyimport.NewTransaction) (int64, error) {
	description := sql.NullString{String: tx.Description, Valid: tx.Description != ""}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, amount, type, category_id, title, description, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Amount.InexactFloat64(), string(tx.Type), tx.CategoryID,
		tx.Title, description, tx.Date.String())
	if err != nil {
		return 0, fmt.Errorf("error inserting transaction %q: %w", tx.Title, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading transaction id: %w", err)
	}
	return id, nil
}

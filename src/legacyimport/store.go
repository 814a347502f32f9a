package legacyimport

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultCategoryIcon is assigned to categories the importer creates.
// Pre-seeded default categories carry their own icons and are never touched
// by this pipeline.
const DefaultCategoryIcon = "circle"

// Category is a persisted category row as the importer sees it.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Type      TransactionType
	IsDefault bool
	Icon      string
}

// NewTransaction carries the normalized fields for one transaction insert.
type NewTransaction struct {
	UserID      int64
	Amount      decimal.Decimal
	Type        TransactionType
	CategoryID  int64
	Title       string
	Description string
	Date        CalendarDate
}

// Store is the persistence collaborator for the import pipeline.
//
// FindCategory returns (nil, nil) when no category matches. CreateCategory
// must be idempotent per (user, name, type): when two imports race on the
// same new category it returns the surviving row's id instead of failing or
// duplicating.
type Store interface {
	FindCategory(ctx context.Context, userID int64, name string, typ TransactionType) (*Category, error)
	CreateCategory(ctx context.Context, category Category) (int64, error)
	CreateTransaction(ctx context.Context, tx NewTransaction) (int64, error)
}

package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/username/duitku/backend/src/legacyimport"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		is_default BOOLEAN DEFAULT FALSE,
		icon TEXT DEFAULT 'circle',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, name, type)
	);
	CREATE TABLE transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		amount REAL NOT NULL,
		type TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		transaction_date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return NewSQLStore(db)
}

func TestFindCategoryAbsent(t *testing.T) {
	store := newTestStore(t)

	cat, err := store.FindCategory(context.Background(), 1, "Tagihan", legacyimport.TypeExpense)
	if err != nil {
		t.Fatalf("FindCategory failed: %v", err)
	}
	if cat != nil {
		t.Errorf("expected nil for absent category, got %+v", cat)
	}
}

func TestCreateCategoryIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	category := legacyimport.Category{
		UserID: 1,
		Name:   "Tagihan",
		Type:   legacyimport.TypeExpense,
		Icon:   legacyimport.DefaultCategoryIcon,
	}

	first, err := store.CreateCategory(ctx, category)
	if err != nil {
		t.Fatalf("first CreateCategory failed: %v", err)
	}
	// Second create for the same (user, name, type) must land on the same
	// row, not fail and not duplicate.
	second, err := store.CreateCategory(ctx, category)
	if err != nil {
		t.Fatalf("second CreateCategory failed: %v", err)
	}
	if first != second {
		t.Errorf("CreateCategory ids differ: %d vs %d", first, second)
	}

	found, err := store.FindCategory(ctx, 1, "Tagihan", legacyimport.TypeExpense)
	if err != nil {
		t.Fatalf("FindCategory failed: %v", err)
	}
	if found == nil || found.ID != first {
		t.Fatalf("FindCategory = %+v, want id %d", found, first)
	}
	if found.Icon != legacyimport.DefaultCategoryIcon || found.IsDefault {
		t.Errorf("unexpected category attributes: %+v", found)
	}
}

func TestCategoryScopedByUserAndType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateCategory(ctx, legacyimport.Category{UserID: 1, Name: "Gaji", Type: legacyimport.TypeIncome, Icon: "circle"})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	// Same name, different user: invisible.
	cat, err := store.FindCategory(ctx, 2, "Gaji", legacyimport.TypeIncome)
	if err != nil {
		t.Fatalf("FindCategory failed: %v", err)
	}
	if cat != nil {
		t.Error("category must not leak across users")
	}

	// Same name and user, different type: distinct.
	cat, err = store.FindCategory(ctx, 1, "Gaji", legacyimport.TypeExpense)
	if err != nil {
		t.Fatalf("FindCategory failed: %v", err)
	}
	if cat != nil {
		t.Error("income and expense categories with the same name are distinct")
	}
}

func TestCreateTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	categoryID, err := store.CreateCategory(ctx, legacyimport.Category{UserID: 1, Name: "Tagihan", Type: legacyimport.TypeExpense, Icon: "circle"})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	id, err := store.CreateTransaction(ctx, legacyimport.NewTransaction{
		UserID:     1,
		Amount:     decimal.NewFromInt(7000),
		Type:       legacyimport.TypeExpense,
		CategoryID: categoryID,
		Title:      "Pulsa XL",
		Date:       legacyimport.CalendarDate{Year: 2025, Month: 12, Day: 2},
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero transaction id")
	}

	var amount float64
	var txType, title, date string
	var description sql.NullString
	err = store.db.QueryRow(`SELECT amount, type, title, description, transaction_date FROM transactions WHERE id = ?`, id).
		Scan(&amount, &txType, &title, &description, &date)
	if err != nil {
		t.Fatalf("failed to read back transaction: %v", err)
	}
	if amount != 7000 || txType != "expense" || title != "Pulsa XL" {
		t.Errorf("stored row = %v/%s/%s, want 7000/expense/Pulsa XL", amount, txType, title)
	}
	if description.Valid {
		t.Error("empty description should be stored as NULL")
	}
	if date != "2025-12-02" {
		t.Errorf("transaction_date = %q, want 2025-12-02", date)
	}
}

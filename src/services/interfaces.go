package services

import (
	"context"
	"errors"

	"github.com/username/duitku/backend/src/legacyimport"
)

var (
	// ErrBatchTooLarge is returned when a legacy import submission exceeds
	// the configured maximum batch size.
	ErrBatchTooLarge = errors.New("import batch too large")
	// ErrMalformedSubmission is returned when the submission contains a
	// record that fails the shape check; the whole batch is rejected before
	// any row is processed.
	ErrMalformedSubmission = errors.New("malformed submission")
)

// ImportService defines the interface for the legacy data import flow.
type ImportService interface {
	ImportLegacyBatch(ctx context.Context, userID int64, records []legacyimport.LegacyTransaction) (legacyimport.BatchResult, error)
}

// SummaryService defines the interface for the dashboard aggregates.
type SummaryService interface {
	GetSummary(userID int64, year int, month int) (*Summary, error)
	InvalidateUserCache(userID int64)
}

// MonthlySummary mirrors the dashboard's month card: net is income minus
// expenses minus savings deposits minus outstanding kasbon handed out in the
// month.
type MonthlySummary struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Income          float64 `json:"income"`
	Expense         float64 `json:"expense"`
	SavingsDeposits float64 `json:"savings_deposits"`
	Kasbon          float64 `json:"kasbon"`
	Net             float64 `json:"net"`
}

// CategoryTotal is one slice of the per-category breakdown.
type CategoryTotal struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Type         string  `json:"type"`
	Total        float64 `json:"total"`
}

// Summary aggregates the numbers the dashboard renders.
type Summary struct {
	Monthly        MonthlySummary  `json:"monthly"`
	AllTimeIncome  float64         `json:"all_time_income"`
	AllTimeExpense float64         `json:"all_time_expense"`
	AllTimeNet     float64         `json:"all_time_net"`
	ByCategory     []CategoryTotal `json:"by_category"`
}

package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/duitku/backend/src/database"
	"github.com/username/duitku/backend/src/logger"
)

const (
	ckUserSummary = "agg_summary_user_%d_%04d_%02d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type summaryServiceImpl struct {
	reportCache *cache.Cache
}

func NewSummaryService(reportCache *cache.Cache) SummaryService {
	return &summaryServiceImpl{reportCache: reportCache}
}

func (s *summaryServiceImpl) GetSummary(userID int64, year int, month int) (*Summary, error) {
	cacheKey := fmt.Sprintf(ckUserSummary, userID, year, month)
	if cached, found := s.reportCache.Get(cacheKey); found {
		if summary, ok := cached.(*Summary); ok {
			logger.L.Debug("Summary cache hit", "userID", userID, "key", cacheKey)
			return summary, nil
		}
	}

	summary, err := s.computeSummary(userID, year, month)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *summaryServiceImpl) computeSummary(userID int64, year int, month int) (*Summary, error) {
	monthPrefix := fmt.Sprintf("%04d-%02d-%%", year, month)
	summary := &Summary{
		Monthly:    MonthlySummary{Year: year, Month: month},
		ByCategory: []CategoryTotal{},
	}

	err := database.DB.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ? AND transaction_date LIKE ?`, userID, monthPrefix).
		Scan(&summary.Monthly.Income, &summary.Monthly.Expense)
	if err != nil {
		return nil, fmt.Errorf("error aggregating monthly transactions for userID %d: %w", userID, err)
	}

	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM savings_transactions
		WHERE user_id = ? AND type = 'deposit' AND date LIKE ?`, userID, monthPrefix).
		Scan(&summary.Monthly.SavingsDeposits)
	if err != nil {
		return nil, fmt.Errorf("error aggregating savings deposits for userID %d: %w", userID, err)
	}

	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM kasbon
		WHERE user_id = ? AND is_settled = FALSE AND date LIKE ?`, userID, monthPrefix).
		Scan(&summary.Monthly.Kasbon)
	if err != nil {
		return nil, fmt.Errorf("error aggregating kasbon for userID %d: %w", userID, err)
	}

	summary.Monthly.Net = summary.Monthly.Income - summary.Monthly.Expense -
		summary.Monthly.SavingsDeposits - summary.Monthly.Kasbon

	// All-time totals are unaffected by the month filter, matching the
	// dashboard's "since first use" card.
	var allTimeSavings, allTimeKasbon float64
	err = database.DB.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ?`, userID).
		Scan(&summary.AllTimeIncome, &summary.AllTimeExpense)
	if err != nil {
		return nil, fmt.Errorf("error aggregating all-time transactions for userID %d: %w", userID, err)
	}
	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM savings_transactions
		WHERE user_id = ? AND type = 'deposit'`, userID).Scan(&allTimeSavings)
	if err != nil {
		return nil, fmt.Errorf("error aggregating all-time savings for userID %d: %w", userID, err)
	}
	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM kasbon
		WHERE user_id = ? AND is_settled = FALSE`, userID).Scan(&allTimeKasbon)
	if err != nil {
		return nil, fmt.Errorf("error aggregating all-time kasbon for userID %d: %w", userID, err)
	}
	summary.AllTimeNet = summary.AllTimeIncome - summary.AllTimeExpense - allTimeSavings - allTimeKasbon

	rows, err := database.DB.Query(`
		SELECT c.id, c.name, c.type, COALESCE(SUM(t.amount), 0) AS total
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.transaction_date LIKE ?
		GROUP BY c.id, c.name, c.type
		ORDER BY total DESC`, userID, monthPrefix)
	if err != nil {
		return nil, fmt.Errorf("error aggregating per-category totals for userID %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.Type, &ct.Total); err != nil {
			return nil, fmt.Errorf("error scanning category total for userID %d: %w", userID, err)
		}
		summary.ByCategory = append(summary.ByCategory, ct)
	}
	if err := rows.Err(); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("error iterating category totals for userID %d: %w", userID, err)
	}

	return summary, nil
}

// InvalidateUserCache clears every cached summary for a user, forcing a full
// recalculation on the next request.
func (s *summaryServiceImpl) InvalidateUserCache(userID int64) {
	prefix := fmt.Sprintf("agg_summary_user_%d_", userID)
	for key := range s.reportCache.Items() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			s.reportCache.Delete(key)
		}
	}
	logger.L.Debug("Invalidated summary cache", "userID", userID)
}

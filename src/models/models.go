package models

// Category is a user-owned transaction category. At most one category exists
// per (user, name, type); default categories are seeded at registration.
type Category struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Type      string `json:"type"` // "income" or "expense"
	IsDefault bool   `json:"is_default"`
	Icon      string `json:"icon"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Transaction is a normalized income/expense record.
type Transaction struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	CategoryID      int64   `json:"category_id"`
	CategoryName    string  `json:"category_name,omitempty"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	TransactionDate string  `json:"transaction_date"` // YYYY-MM-DD
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// SavingsGoal tracks progress toward a savings target. CurrentAmount is
// maintained from savings transactions, never edited directly.
type SavingsGoal struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	StartDate     string  `json:"start_date"`
	TargetDate    *string `json:"target_date"`
	Notes         *string `json:"notes"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

// SavingsTransaction is one deposit into or withdrawal from a goal.
type SavingsTransaction struct {
	ID        int64   `json:"id"`
	GoalID    int64   `json:"goal_id"`
	UserID    int64   `json:"user_id"`
	Type      string  `json:"type"` // "deposit" or "withdraw"
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Note      *string `json:"note"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Kasbon is an informal loan handed to someone, tracked until settled.
type Kasbon struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	Person    string  `json:"person"`
	Amount    float64 `json:"amount"`
	Note      *string `json:"note"`
	Date      string  `json:"date"`
	IsSettled bool    `json:"is_settled"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

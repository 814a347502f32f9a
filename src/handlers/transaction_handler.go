package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/duitku/backend/src/database"
	"github.com/username/duitku/backend/src/models"
	"github.com/username/duitku/backend/src/security/validation"
	"github.com/username/duitku/backend/src/services"
	"github.com/username/duitku/backend/src/utils"
)

type TransactionHandler struct {
	summaryService services.SummaryService
}

func NewTransactionHandler(summaryService services.SummaryService) *TransactionHandler {
	return &TransactionHandler{summaryService: summaryService}
}

// HandleGetTransactions lists the user's transactions, newest first.
// Optional start/end query parameters (YYYY-MM-DD) filter by date.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	query := `
		SELECT t.id, t.user_id, t.amount, t.type, t.category_id, c.name, t.title, t.description, t.transaction_date
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?`
	args := []interface{}{userID}

	if start := r.URL.Query().Get("start"); start != "" {
		if utils.ParseDate(start).IsZero() {
			utils.SendJSONError(w, "invalid start date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		query += " AND t.transaction_date >= ?"
		args = append(args, start)
	}
	if end := r.URL.Query().Get("end"); end != "" {
		if utils.ParseDate(end).IsZero() {
			utils.SendJSONError(w, "invalid end date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		query += " AND t.transaction_date <= ?"
		args = append(args, end)
	}
	query += " ORDER BY t.transaction_date DESC, t.id DESC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		var description sql.NullString
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.CategoryID,
			&tx.CategoryName, &tx.Title, &description, &tx.TransactionDate); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Error scanning transaction for userID %d: %v", userID, err), http.StatusInternalServerError)
			return
		}
		if description.Valid {
			tx.Description = &description.String
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error iterating over transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

type transactionPayload struct {
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	CategoryID      int64   `json:"category_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	TransactionDate string  `json:"transaction_date"`
}

func (p *transactionPayload) validate() error {
	if p.Amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if p.Type != "income" && p.Type != "expense" {
		return fmt.Errorf("type must be income or expense")
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("category_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if utils.ParseDate(p.TransactionDate).IsZero() {
		return fmt.Errorf("transaction_date must be YYYY-MM-DD")
	}
	return nil
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.categoryBelongsToUser(userID, payload.CategoryID, payload.Type) {
		utils.SendJSONError(w, "category not found for this user and type", http.StatusBadRequest)
		return
	}

	payload.Title = validation.StripUnprintable(payload.Title)
	var description sql.NullString
	if payload.Description != nil && *payload.Description != "" {
		description = sql.NullString{String: validation.StripUnprintable(*payload.Description), Valid: true}
	}

	res, err := database.DB.Exec(`
		INSERT INTO transactions (user_id, amount, type, category_id, title, description, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, payload.Amount, payload.Type, payload.CategoryID, payload.Title, description, payload.TransactionDate)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error inserting transaction for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()
	h.summaryService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := payload.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.categoryBelongsToUser(userID, payload.CategoryID, payload.Type) {
		utils.SendJSONError(w, "category not found for this user and type", http.StatusBadRequest)
		return
	}

	payload.Title = validation.StripUnprintable(payload.Title)
	var description sql.NullString
	if payload.Description != nil && *payload.Description != "" {
		description = sql.NullString{String: validation.StripUnprintable(*payload.Description), Valid: true}
	}

	res, err := database.DB.Exec(`
		UPDATE transactions
		SET amount = ?, type = ?, category_id = ?, title = ?, description = ?, transaction_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		payload.Amount, payload.Type, payload.CategoryID, payload.Title, description, payload.TransactionDate, id, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error updating transaction %d for userID %d: %v", id, userID, err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		utils.SendJSONError(w, "transaction not found", http.StatusNotFound)
		return
	}
	h.summaryService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error deleting transaction %d for userID %d: %v", id, userID, err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		utils.SendJSONError(w, "transaction not found", http.StatusNotFound)
		return
	}
	h.summaryService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) categoryBelongsToUser(userID, categoryID int64, typ string) bool {
	var one int
	err := database.DB.QueryRow(
		`SELECT 1 FROM categories WHERE id = ? AND user_id = ? AND type = ?`,
		categoryID, userID, typ).Scan(&one)
	return err == nil
}

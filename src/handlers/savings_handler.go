package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/duitku/backend/src/database"
	"github.com/username/duitku/backend/src/models"
	"github.com/username/duitku/backend/src/security/validation"
	"github.com/username/duitku/backend/src/services"
	"github.com/username/duitku/backend/src/utils"
)

type SavingsHandler struct {
	summaryService services.SummaryService
}

func NewSavingsHandler(summaryService services.SummaryService) *SavingsHandler {
	return &SavingsHandler{summaryService: summaryService}
}

func (h *SavingsHandler) HandleGetGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	rows, err := database.DB.Query(`
		SELECT id, user_id, name, target_amount, current_amount, start_date, target_date, notes
		FROM savings_goals
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying savings goals for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	goals := []models.SavingsGoal{}
	for rows.Next() {
		var g models.SavingsGoal
		var targetDate, notes sql.NullString
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.StartDate, &targetDate, &notes); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Error scanning savings goal for userID %d: %v", userID, err), http.StatusInternalServerError)
			return
		}
		if targetDate.Valid {
			g.TargetDate = &targetDate.String
		}
		if notes.Valid {
			g.Notes = &notes.String
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error iterating over savings goals for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(goals)
}

func (h *SavingsHandler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name         string  `json:"name"`
		TargetAmount float64 `json:"target_amount"`
		StartDate    string  `json:"start_date"`
		TargetDate   *string `json:"target_date"`
		Notes        *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.Name = validation.StripUnprintable(strings.TrimSpace(payload.Name))
	if payload.Name == "" {
		utils.SendJSONError(w, "name is required", http.StatusBadRequest)
		return
	}
	if payload.TargetAmount <= 0 {
		utils.SendJSONError(w, "target_amount must be positive", http.StatusBadRequest)
		return
	}
	if utils.ParseDate(payload.StartDate).IsZero() {
		utils.SendJSONError(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if payload.TargetDate != nil && utils.ParseDate(*payload.TargetDate).IsZero() {
		utils.SendJSONError(w, "target_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var targetDate, notes sql.NullString
	if payload.TargetDate != nil {
		targetDate = sql.NullString{String: *payload.TargetDate, Valid: true}
	}
	if payload.Notes != nil && *payload.Notes != "" {
		notes = sql.NullString{String: validation.StripUnprintable(*payload.Notes), Valid: true}
	}

	res, err := database.DB.Exec(`
		INSERT INTO savings_goals (user_id, name, target_amount, current_amount, start_date, target_date, notes)
		VALUES (?, ?, ?, 0, ?, ?, ?)`,
		userID, payload.Name, payload.TargetAmount, payload.StartDate, targetDate, notes)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error inserting savings goal for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

func (h *SavingsHandler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid goal id", http.StatusBadRequest)
		return
	}

	// Goal history goes with the goal.
	tx, err := database.DB.Begin()
	if err != nil {
		utils.SendJSONError(w, "Error starting transaction", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error deleting savings goal %d for userID %d: %v", id, userID, err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		utils.SendJSONError(w, "savings goal not found", http.StatusNotFound)
		return
	}
	if _, err := tx.Exec(`DELETE FROM savings_transactions WHERE goal_id = ? AND user_id = ?`, id, userID); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error deleting savings transactions for goal %d: %v", id, err), http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		utils.SendJSONError(w, "Error committing transaction", http.StatusInternalServerError)
		return
	}
	h.summaryService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateGoalTransaction records a deposit or withdrawal against a goal
// and keeps the goal's current_amount in step, inside one database
// transaction. Withdrawals may not exceed the current balance.
func (h *SavingsHandler) HandleCreateGoalTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	goalID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid goal id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Type   string  `json:"type"`
		Amount float64 `json:"amount"`
		Date   string  `json:"date"`
		Note   *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Type != "deposit" && payload.Type != "withdraw" {
		utils.SendJSONError(w, "type must be deposit or withdraw", http.StatusBadRequest)
		return
	}
	if payload.Amount <= 0 {
		utils.SendJSONError(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if utils.ParseDate(payload.Date).IsZero() {
		utils.SendJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		utils.SendJSONError(w, "Error starting transaction", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	var currentAmount float64
	err = tx.QueryRow(`SELECT current_amount FROM savings_goals WHERE id = ? AND user_id = ?`,
		goalID, userID).Scan(&currentAmount)
	if err == sql.ErrNoRows {
		utils.SendJSONError(w, "savings goal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error loading savings goal %d: %v", goalID, err), http.StatusInternalServerError)
		return
	}

	delta := payload.Amount
	if payload.Type == "withdraw" {
		if payload.Amount > currentAmount {
			utils.SendJSONError(w, "withdrawal exceeds current balance", http.StatusBadRequest)
			return
		}
		delta = -payload.Amount
	}

	var note sql.NullString
	if payload.Note != nil && *payload.Note != "" {
		note = sql.NullString{String: validation.StripUnprintable(*payload.Note), Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO savings_transactions (goal_id, user_id, type, amount, date, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		goalID, userID, payload.Type, payload.Amount, payload.Date, note)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error inserting savings transaction for goal %d: %v", goalID, err), http.StatusInternalServerError)
		return
	}
	if _, err := tx.Exec(`
		UPDATE savings_goals SET current_amount = current_amount + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, delta, goalID, userID); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error updating savings goal %d balance: %v", goalID, err), http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(); err != nil {
		utils.SendJSONError(w, "Error committing transaction", http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()
	h.summaryService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":             id,
		"current_amount": currentAmount + delta,
	})
}

func (h *SavingsHandler) HandleGetGoalTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	goalID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid goal id", http.StatusBadRequest)
		return
	}

	rows, err := database.DB.Query(`
		SELECT id, goal_id, user_id, type, amount, date, note
		FROM savings_transactions
		WHERE goal_id = ? AND user_id = ?
		ORDER BY date DESC, id DESC`, goalID, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying savings transactions for goal %d: %v", goalID, err), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	transactions := []models.SavingsTransaction{}
	for rows.Next() {
		var st models.SavingsTransaction
		var note sql.NullString
		if err := rows.Scan(&st.ID, &st.GoalID, &st.UserID, &st.Type, &st.Amount, &st.Date, &note); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Error scanning savings transaction for goal %d: %v", goalID, err), http.StatusInternalServerError)
			return
		}
		if note.Valid {
			st.Note = &note.String
		}
		transactions = append(transactions, st)
	}
	if err := rows.Err(); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error iterating over savings transactions for goal %d: %v", goalID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

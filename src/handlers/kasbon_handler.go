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

type KasbonHandler struct {
	summaryService services.SummaryService
}

func NewKasbonHandler(summaryService services.SummaryService) *KasbonHandler {
	return &KasbonHandler{summaryService: summaryService}
}

func (h *KasbonHandler) HandleGetKasbon(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	query := `
		SELECT id, user_id, person, amount, note, date, is_settled
		FROM kasbon
		WHERE user_id = ?`
	args := []interface{}{userID}

	// ?settled=true|false filters by settlement state.
	if settled := r.URL.Query().Get("settled"); settled != "" {
		val, err := strconv.ParseBool(settled)
		if err != nil {
			utils.SendJSONError(w, "settled must be true or false", http.StatusBadRequest)
			return
		}
		query += " AND is_settled = ?"
		args = append(args, val)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying kasbon for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	entries := []models.Kasbon{}
	for rows.Next() {
		var k models.Kasbon
		var note sql.NullString
		if err := rows.Scan(&k.ID, &k.UserID, &k.Person, &k.Amount, &note, &k.Date, &k.IsSettled); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Error scanning kasbon for userID %d: %v", userID, err), http.StatusInternalServerError)
			return
		}
		if note.Valid {
			k.Note = &note.String
		}
		entries = append(entries, k)
	}
	if err := rows.Err(); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error iterating over kasbon for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *KasbonHandler) HandleCreateKasbon(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Person string  `json:"person"`
		Amount float64 `json:"amount"`
		Note   *string `json:"note"`
		Date   string  `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.Person = validation.StripUnprintable(strings.TrimSpace(payload.Person))
	if payload.Person == "" {
		utils.SendJSONError(w, "person is required", http.StatusBadRequest)
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

	var note sql.NullString
	if payload.Note != nil && *payload.Note != "" {
		note = sql.NullString{String: validation.StripUnprintable(*payload.Note), Valid: true}
	}

	res, err := database.DB.Exec(`
		INSERT INTO kasbon (user_id, person, amount, note, date, is_settled)
		VALUES (?, ?, ?, ?, ?, FALSE)`,
		userID, payload.Person, payload.Amount, note, payload.Date)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error inserting kasbon for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()
	h.summaryService.InvalidateUserCache(userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

// HandleSettleKasbon flips the settlement flag. Settled loans stop counting
// against the monthly and all-time nets.
func (h *KasbonHandler) HandleSettleKasbon(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid kasbon id", http.StatusBadRequest)
		return
	}

	var payload struct {
		IsSettled bool `json:"is_settled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec(`
		UPDATE kasbon SET is_settled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, payload.IsSettled, id, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error updating kasbon %d for userID %d: %v", id, userID, err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		utils.SendJSONError(w, "kasbon not found", http.StatusNotFound)
		return
	}
	h.summaryService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *KasbonHandler) HandleDeleteKasbon(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "invalid kasbon id", http.StatusBadRequest)
		return
	}

	res, err := database.DB.Exec(`DELETE FROM kasbon WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error deleting kasbon %d for userID %d: %v", id, userID, err), http.StatusInternalServerError)
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		utils.SendJSONError(w, "kasbon not found", http.StatusNotFound)
		return
	}
	h.summaryService.InvalidateUserCache(userID)

	w.WriteHeader(http.StatusNoContent)
}

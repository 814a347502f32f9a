package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/duitku/backend/src/database"
	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/models"
	"github.com/username/duitku/backend/src/security/validation"
	"github.com/username/duitku/backend/src/utils"
)

type CategoryHandler struct {
}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

func (h *CategoryHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	rows, err := database.DB.Query(`
		SELECT id, user_id, name, type, is_default, icon
		FROM categories
		WHERE user_id = ?
		ORDER BY type, name`, userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying categories for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.IsDefault, &c.Icon); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Error scanning category for userID %d: %v", userID, err), http.StatusInternalServerError)
			return
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error iterating over categories for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Icon string `json:"icon"`
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
	if payload.Type != "income" && payload.Type != "expense" {
		utils.SendJSONError(w, "type must be income or expense", http.StatusBadRequest)
		return
	}
	if payload.Icon == "" {
		payload.Icon = legacyimport.DefaultCategoryIcon
	}

	res, err := database.DB.Exec(`
		INSERT INTO categories (user_id, name, type, is_default, icon)
		VALUES (?, ?, ?, FALSE, ?)`,
		userID, payload.Name, payload.Type, payload.Icon)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			utils.SendJSONError(w, "category already exists", http.StatusConflict)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("Error inserting category for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	id, _ := res.LastInsertId()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.Category{
		ID:     id,
		UserID: userID,
		Name:   payload.Name,
		Type:   payload.Type,
		Icon:   payload.Icon,
	})
}

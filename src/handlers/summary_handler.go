package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/username/duitku/backend/src/logger"
	"github.com/username/duitku/backend/src/services"
	"github.com/username/duitku/backend/src/utils"
)

type SummaryHandler struct {
	summaryService services.SummaryService
}

func NewSummaryHandler(summaryService services.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// HandleGetSummary serves the dashboard aggregates for one month, defaulting
// to the current month. Responses carry an ETag so an unchanged dashboard
// costs a 304.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed < 1900 || parsed > 9999 {
			utils.SendJSONError(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 1 || parsed > 12 {
			utils.SendJSONError(w, "invalid month", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	summary, err := h.summaryService.GetSummary(userID, year, month)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing summary for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	etag, err := utils.GenerateETag(summary)
	if err != nil {
		logger.L.Warn("Failed to generate ETag for summary", "userID", userID, "error", err)
	} else {
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

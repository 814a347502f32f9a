package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/logger"
	"github.com/username/duitku/backend/src/services"
	"github.com/username/duitku/backend/src/utils"
)

// maxImportBodyBytes caps the request body; legacy exports are small JSON
// files and anything larger is a mistake or abuse.
const maxImportBodyBytes = 10 << 20 // 10 MiB

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(importService services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// HandleLegacyImport accepts a legacy JSON export and runs it through the
// import pipeline. The body is either a bare array of records or an object
// with a "records" field; the response is the per-row outcome report.
func (h *ImportHandler) HandleLegacyImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBodyBytes+1))
	if err != nil {
		utils.SendJSONError(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxImportBodyBytes {
		utils.SendJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	records, err := decodeLegacyRecords(body)
	if err != nil {
		logger.L.Warn("Legacy import: undecodable submission", "userID", userID, "error", err)
		utils.SendJSONError(w, "Invalid JSON: expected an array of records or an object with a \"records\" array", http.StatusBadRequest)
		return
	}

	result, err := h.importService.ImportLegacyBatch(r.Context(), userID, records)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBatchTooLarge):
			utils.SendJSONError(w, err.Error(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, services.ErrMalformedSubmission):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Legacy import failed", "userID", userID, "error", err)
			utils.SendJSONError(w, "Error processing import", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding import result", "userID", userID, "error", err)
	}
}

// decodeLegacyRecords tolerates both submission shapes the old frontend
// produced: a bare JSON array, or an object wrapping it in "records".
func decodeLegacyRecords(body []byte) ([]legacyimport.LegacyTransaction, error) {
	var records []legacyimport.LegacyTransaction
	arrayErr := json.Unmarshal(body, &records)
	if arrayErr == nil {
		return records, nil
	}

	var wrapper struct {
		Records []legacyimport.LegacyTransaction `json:"records"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Records == nil {
		return nil, arrayErr
	}
	return wrapper.Records, nil
}

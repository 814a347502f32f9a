package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/logger"
	"github.com/username/duitku/backend/src/services"
)

func init() {
	logger.InitLogger("error")
}

type stubImportService struct {
	gotUserID  int64
	gotRecords []legacyimport.LegacyTransaction
	result     legacyimport.BatchResult
	err        error
}

func (s *stubImportService) ImportLegacyBatch(ctx context.Context, userID int64, records []legacyimport.LegacyTransaction) (legacyimport.BatchResult, error) {
	s.gotUserID = userID
	s.gotRecords = records
	return s.result, s.err
}

func authedRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := context.WithValue(r.Context(), userIDContextKey, int64(7))
	return r.WithContext(ctx)
}

func TestHandleLegacyImportBareArray(t *testing.T) {
	stub := &stubImportService{
		result: legacyimport.BatchResult{Total: 1, Successful: 1, Errors: []legacyimport.BatchError{}},
	}
	h := NewImportHandler(stub)

	body := `[{"tanggal":"2/12/2025","tipe":"Pengeluaran","kategori":"Tagihan","judul":"Listrik","jumlah":7000}]`
	w := httptest.NewRecorder()
	h.HandleLegacyImport(w, authedRequest(http.MethodPost, "/api/import/legacy", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if stub.gotUserID != 7 {
		t.Errorf("userID = %d, want 7", stub.gotUserID)
	}
	if len(stub.gotRecords) != 1 || stub.gotRecords[0].Judul != "Listrik" {
		t.Errorf("records not passed through: %#v", stub.gotRecords)
	}

	var result legacyimport.BatchResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Total != 1 || result.Successful != 1 {
		t.Errorf("result = %+v, want total 1 successful 1", result)
	}
}

func TestHandleLegacyImportWrappedObject(t *testing.T) {
	stub := &stubImportService{result: legacyimport.BatchResult{Total: 1, Successful: 1}}
	h := NewImportHandler(stub)

	body := `{"records":[{"tanggal":"5/1/2025","tipe":"Pemasukan","kategori":"Gaji","judul":"Gaji","jumlah":8600000}]}`
	w := httptest.NewRecorder()
	h.HandleLegacyImport(w, authedRequest(http.MethodPost, "/api/import/legacy", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if len(stub.gotRecords) != 1 || stub.gotRecords[0].Kategori != "Gaji" {
		t.Errorf("records not passed through: %#v", stub.gotRecords)
	}
}

func TestHandleLegacyImportInvalidJSON(t *testing.T) {
	stub := &stubImportService{}
	h := NewImportHandler(stub)

	w := httptest.NewRecorder()
	h.HandleLegacyImport(w, authedRequest(http.MethodPost, "/api/import/legacy", `{"not":"records"}`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleLegacyImportBatchTooLarge(t *testing.T) {
	stub := &stubImportService{err: services.ErrBatchTooLarge}
	h := NewImportHandler(stub)

	w := httptest.NewRecorder()
	h.HandleLegacyImport(w, authedRequest(http.MethodPost, "/api/import/legacy", `[]`))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestHandleLegacyImportMalformedSubmission(t *testing.T) {
	stub := &stubImportService{err: services.ErrMalformedSubmission}
	h := NewImportHandler(stub)

	w := httptest.NewRecorder()
	h.HandleLegacyImport(w, authedRequest(http.MethodPost, "/api/import/legacy", `[{"tanggal":"2/12/2025"}]`))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleLegacyImportUnauthenticated(t *testing.T) {
	h := NewImportHandler(&stubImportService{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/import/legacy", strings.NewReader(`[]`))
	h.HandleLegacyImport(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

type memStore struct {
	nextID       int64
	categories   map[string]*legacyimport.Category
	transactions []legacyimport.NewTransaction
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, categories: map[string]*legacyimport.Category{}}
}

func (s *memStore) key(userID int64, name string, typ legacyimport.TransactionType) string {
	return fmt.Sprintf("%d/%s/%s", userID, name, typ)
}

func (s *memStore) FindCategory(_ context.Context, userID int64, name string, typ legacyimport.TransactionType) (*legacyimport.Category, error) {
	return s.categories[s.key(userID, name, typ)], nil
}

func (s *memStore) CreateCategory(_ context.Context, c legacyimport.Category) (int64, error) {
	k := s.key(c.UserID, c.Name, c.Type)
	if existing, ok := s.categories[k]; ok {
		return existing.ID, nil
	}
	c.ID = s.nextID
	s.nextID++
	s.categories[k] = &c
	return c.ID, nil
}

func (s *memStore) CreateTransaction(_ context.Context, tx legacyimport.NewTransaction) (int64, error) {
	s.transactions = append(s.transactions, tx)
	id := s.nextID
	s.nextID++
	return id, nil
}

type fakeSummaryService struct {
	invalidated []int64
}

func (f *fakeSummaryService) GetSummary(userID int64, year, month int) (*Summary, error) {
	return &Summary{}, nil
}

func (f *fakeSummaryService) InvalidateUserCache(userID int64) {
	f.invalidated = append(f.invalidated, userID)
}

func validRecord() legacyimport.LegacyTransaction {
	return legacyimport.LegacyTransaction{
		Tanggal:  "2/12/2025",
		Tipe:     "Pengeluaran",
		Kategori: "Tagihan",
		Judul:    "Listrik",
		Jumlah:   legacyimport.NumberAmount(7000),
	}
}

func newTestService(summary SummaryService, maxBatch int) ImportService {
	importer := legacyimport.NewImporter(newMemStore(), nil)
	return NewImportService(importer, summary, maxBatch)
}

func TestImportLegacyBatchSuccessInvalidatesCache(t *testing.T) {
	summary := &fakeSummaryService{}
	svc := newTestService(summary, 10)

	result, err := svc.ImportLegacyBatch(context.Background(), 7, []legacyimport.LegacyTransaction{validRecord()})
	if err != nil {
		t.Fatalf("ImportLegacyBatch() error = %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("successful = %d, want 1", result.Successful)
	}
	if len(summary.invalidated) != 1 || summary.invalidated[0] != 7 {
		t.Errorf("cache invalidations = %v, want [7]", summary.invalidated)
	}
}

func TestImportLegacyBatchTooLarge(t *testing.T) {
	svc := newTestService(&fakeSummaryService{}, 2)

	records := []legacyimport.LegacyTransaction{validRecord(), validRecord(), validRecord()}
	_, err := svc.ImportLegacyBatch(context.Background(), 7, records)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("error = %v, want ErrBatchTooLarge", err)
	}
}

func TestImportLegacyBatchMalformedRecordRejectsWholeBatch(t *testing.T) {
	summary := &fakeSummaryService{}
	svc := newTestService(summary, 10)

	malformed := validRecord()
	malformed.Judul = ""
	records := []legacyimport.LegacyTransaction{validRecord(), malformed}

	_, err := svc.ImportLegacyBatch(context.Background(), 7, records)
	if !errors.Is(err, ErrMalformedSubmission) {
		t.Fatalf("error = %v, want ErrMalformedSubmission", err)
	}
	if len(summary.invalidated) != 0 {
		t.Errorf("cache invalidated on rejected batch: %v", summary.invalidated)
	}
}

func TestImportLegacyBatchRowFailuresDoNotInvalidateCache(t *testing.T) {
	summary := &fakeSummaryService{}
	svc := newTestService(summary, 10)

	unknown := validRecord()
	unknown.Kategori = "Hadiah"

	result, err := svc.ImportLegacyBatch(context.Background(), 7, []legacyimport.LegacyTransaction{unknown})
	if err != nil {
		t.Fatalf("ImportLegacyBatch() error = %v", err)
	}
	if result.Failed != 1 || result.Successful != 0 {
		t.Fatalf("result = %+v, want 1 failed, 0 successful", result)
	}
	if len(summary.invalidated) != 0 {
		t.Errorf("cache invalidated with zero successful rows: %v", summary.invalidated)
	}
}

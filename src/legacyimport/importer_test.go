package legacyimport

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeStore is an in-memory Store for importer tests.
type fakeStore struct {
	categories   []Category
	transactions []NewTransaction
	nextID       int64

	failCreateTransaction bool
	failFindCategory      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) FindCategory(_ context.Context, userID int64, name string, typ TransactionType) (*Category, error) {
	if f.failFindCategory {
		return nil, errors.New("store unavailable")
	}
	for i := range f.categories {
		c := f.categories[i]
		if c.UserID == userID && c.Name == name && c.Type == typ {
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, category Category) (int64, error) {
	category.ID = f.nextID
	f.nextID++
	f.categories = append(f.categories, category)
	return category.ID, nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, tx NewTransaction) (int64, error) {
	if f.failCreateTransaction {
		return 0, errors.New("insert rejected")
	}
	f.transactions = append(f.transactions, tx)
	id := f.nextID
	f.nextID++
	return id, nil
}

const testUserID int64 = 42

func TestImportOneExpense(t *testing.T) {
	// Scenario A: Pengeluaran / Tagihan / numeric amount.
	store := newFakeStore()
	importer := NewImporter(store, nil)

	outcome := importer.ImportOne(context.Background(), testUserID, LegacyTransaction{
		Tanggal:  "2/12/2025",
		Tipe:     "Pengeluaran",
		Kategori: "Tagihan",
		Judul:    "Pulsa XL",
		Jumlah:   NumberAmount(7000),
	})

	if !outcome.Success {
		t.Fatalf("import failed: %s", outcome.Error)
	}
	if len(store.transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(store.transactions))
	}
	tx := store.transactions[0]
	if tx.Date.String() != "2025-12-02" {
		t.Errorf("date = %s, want 2025-12-02", tx.Date)
	}
	if tx.Type != TypeExpense {
		t.Errorf("type = %s, want expense", tx.Type)
	}
	if tx.Amount.IntPart() != 7000 {
		t.Errorf("amount = %s, want 7000", tx.Amount)
	}
	if tx.Title != "Pulsa XL" {
		t.Errorf("title = %q, want Pulsa XL", tx.Title)
	}
	if len(store.categories) != 1 || store.categories[0].Name != "Tagihan" {
		t.Fatalf("expected one category named Tagihan, got %+v", store.categories)
	}
	if store.categories[0].IsDefault {
		t.Error("imported category should not be a default category")
	}
	if store.categories[0].Icon != DefaultCategoryIcon {
		t.Errorf("icon = %q, want %q", store.categories[0].Icon, DefaultCategoryIcon)
	}
	if tx.CategoryID != store.categories[0].ID {
		t.Errorf("transaction categoryID = %d, want %d", tx.CategoryID, store.categories[0].ID)
	}
}

func TestImportOneIncome(t *testing.T) {
	// Scenario B: Pemasukan / Gaji.
	store := newFakeStore()
	importer := NewImporter(store, nil)

	outcome := importer.ImportOne(context.Background(), testUserID, LegacyTransaction{
		Tanggal:  "1/12/2025",
		Tipe:     "Pemasukan",
		Kategori: "Gaji",
		Judul:    "Gaji",
		Jumlah:   NumberAmount(8600000),
	})

	if !outcome.Success {
		t.Fatalf("import failed: %s", outcome.Error)
	}
	tx := store.transactions[0]
	if tx.Type != TypeIncome {
		t.Errorf("type = %s, want income", tx.Type)
	}
	if tx.Amount.IntPart() != 8600000 {
		t.Errorf("amount = %s, want 8600000", tx.Amount)
	}
	if store.categories[0].Name != "Gaji" || store.categories[0].Type != TypeIncome {
		t.Errorf("category = %+v, want Gaji/income", store.categories[0])
	}
}

func TestImportOneStringAmount(t *testing.T) {
	// Scenario D: "Rp 150.000" parses to 150000.
	store := newFakeStore()
	importer := NewImporter(store, nil)

	outcome := importer.ImportOne(context.Background(), testUserID, LegacyTransaction{
		Tanggal:   "1/12/2025",
		Tipe:      "Pengeluaran",
		Kategori:  "Lainnya",
		Judul:     "Kondangan",
		Deskripsi: "Wawan",
		Jumlah:    StringAmount("Rp 150.000"),
	})

	if !outcome.Success {
		t.Fatalf("import failed: %s", outcome.Error)
	}
	tx := store.transactions[0]
	if tx.Amount.IntPart() != 150000 {
		t.Errorf("amount = %s, want 150000", tx.Amount)
	}
	if tx.Description != "Wawan" {
		t.Errorf("description = %q, want Wawan", tx.Description)
	}
}

func TestImportBatchUnknownCategory(t *testing.T) {
	// Scenario C: unmapped kategori fails the row without side effects.
	store := newFakeStore()
	importer := NewImporter(store, nil)

	result := importer.ImportBatch(context.Background(), testUserID, []LegacyTransaction{
		{Tanggal: "2/12/2025", Tipe: "Pengeluaran", Kategori: "Unknown", Judul: "x", Jumlah: NumberAmount(100)},
	})

	if result.Total != 1 || result.Successful != 0 || result.Failed != 1 {
		t.Fatalf("result = %+v, want total:1 successful:0 failed:1", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 0 {
		t.Fatalf("errors = %+v, want one entry at index 0", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Error, "unknown category") {
		t.Errorf("error = %q, want unknown category message", result.Errors[0].Error)
	}
	if len(store.categories) != 0 || len(store.transactions) != 0 {
		t.Error("failed row must not create categories or transactions")
	}
}

func TestImportBatchPartialFailure(t *testing.T) {
	// Scenario E: one bad tipe at index 2 in a batch of 4.
	store := newFakeStore()
	importer := NewImporter(store, nil)

	records := []LegacyTransaction{
		{Tanggal: "2/12/2025", Tipe: "Pengeluaran", Kategori: "Tagihan", Judul: "Pulsa XL", Jumlah: NumberAmount(7000)},
		{Tanggal: "2/12/2025", Tipe: "Pengeluaran", Kategori: "Lainnya", Judul: "Kemanusiaan", Jumlah: NumberAmount(30000)},
		{Tanggal: "1/12/2025", Tipe: "Salah", Kategori: "Lainnya", Judul: "Kondangan", Jumlah: NumberAmount(150000)},
		{Tanggal: "1/12/2025", Tipe: "Pemasukan", Kategori: "Gaji", Judul: "Gaji", Jumlah: NumberAmount(8600000)},
	}

	result := importer.ImportBatch(context.Background(), testUserID, records)

	if result.Total != 4 || result.Successful != 3 || result.Failed != 1 {
		t.Fatalf("result = %+v, want total:4 successful:3 failed:1", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error entry, got %d", len(result.Errors))
	}
	if result.Errors[0].Index != 2 {
		t.Errorf("error index = %d, want 2", result.Errors[0].Index)
	}
	if result.Errors[0].Record.Judul != "Kondangan" {
		t.Errorf("error carries record %q, want the original offending record", result.Errors[0].Record.Judul)
	}
	if len(store.transactions) != 3 {
		t.Errorf("expected 3 persisted transactions, got %d", len(store.transactions))
	}
}

func TestImportBatchCategoryReuse(t *testing.T) {
	// Two rows with the same kategori share one created category.
	store := newFakeStore()
	importer := NewImporter(store, nil)

	result := importer.ImportBatch(context.Background(), testUserID, []LegacyTransaction{
		{Tanggal: "2/12/2025", Tipe: "Pengeluaran", Kategori: "Makanan", Judul: "Sarapan", Jumlah: NumberAmount(15000)},
		{Tanggal: "3/12/2025", Tipe: "Pengeluaran", Kategori: "Makanan", Judul: "Makan siang", Jumlah: NumberAmount(25000)},
	})

	if result.Successful != 2 {
		t.Fatalf("result = %+v, want 2 successes", result)
	}
	if len(store.categories) != 1 {
		t.Fatalf("expected a single shared category, got %d", len(store.categories))
	}
	if store.transactions[0].CategoryID != store.transactions[1].CategoryID {
		t.Error("both transactions should reference the same category")
	}
}

func TestImportBatchOrderPreserved(t *testing.T) {
	store := newFakeStore()
	importer := NewImporter(store, nil)

	bad := LegacyTransaction{Tanggal: "x", Tipe: "Pengeluaran", Kategori: "Tagihan", Judul: "bad", Jumlah: NumberAmount(1)}
	good := LegacyTransaction{Tanggal: "2/12/2025", Tipe: "Pengeluaran", Kategori: "Tagihan", Judul: "good", Jumlah: NumberAmount(1)}

	result := importer.ImportBatch(context.Background(), testUserID, []LegacyTransaction{bad, good, bad, good, bad})

	if result.Total != 5 || result.Successful != 2 || result.Failed != 3 {
		t.Fatalf("result = %+v, want total:5 successful:2 failed:3", result)
	}
	if result.Successful+result.Failed != result.Total {
		t.Error("successful + failed must equal total")
	}
	if len(result.Errors) != result.Failed {
		t.Error("len(errors) must equal failed")
	}
	wantIndexes := []int{0, 2, 4}
	for i, e := range result.Errors {
		if e.Index != wantIndexes[i] {
			t.Errorf("errors[%d].Index = %d, want %d", i, e.Index, wantIndexes[i])
		}
	}
}

func TestImportOneValidationSkipsStore(t *testing.T) {
	store := newFakeStore()
	store.failFindCategory = true // would error if reached
	importer := NewImporter(store, nil)

	outcome := importer.ImportOne(context.Background(), testUserID, LegacyTransaction{
		Tipe: "Pengeluaran", Kategori: "Tagihan", Judul: "no date", Jumlah: NumberAmount(1),
	})

	if outcome.Success {
		t.Fatal("malformed record must not import")
	}
	if !strings.Contains(outcome.Error, "validation error") {
		t.Errorf("error = %q, want a validation error", outcome.Error)
	}
}

func TestImportOnePersistenceFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreateTransaction = true
	importer := NewImporter(store, nil)

	outcome := importer.ImportOne(context.Background(), testUserID, LegacyTransaction{
		Tanggal: "2/12/2025", Tipe: "Pengeluaran", Kategori: "Tagihan", Judul: "x", Jumlah: NumberAmount(1),
	})

	if outcome.Success {
		t.Fatal("persistence failure must surface as a failed outcome")
	}
	// The category created on the way down is kept; a retry reuses it.
	if len(store.categories) != 1 {
		t.Errorf("expected the category side effect to remain, got %d categories", len(store.categories))
	}
}

func TestImportBatchEmpty(t *testing.T) {
	importer := NewImporter(newFakeStore(), nil)

	result := importer.ImportBatch(context.Background(), testUserID, nil)
	if result.Total != 0 || result.Successful != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want all zeroes", result)
	}
	if result.Errors == nil || len(result.Errors) != 0 {
		t.Errorf("errors should be an empty, non-nil slice, got %#v", result.Errors)
	}
}

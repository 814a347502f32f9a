package legacyimport

import (
	"encoding/json"
	"testing"
)

func TestLegacyTransactionUnmarshal(t *testing.T) {
	payload := `{"tanggal":"2/12/2025","tipe":"Pengeluaran","kategori":"Tagihan","judul":"Pulsa XL","jumlah":7000}`

	var record LegacyTransaction
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if record.Tanggal != "2/12/2025" || record.Tipe != "Pengeluaran" || record.Kategori != "Tagihan" || record.Judul != "Pulsa XL" {
		t.Errorf("unexpected record: %+v", record)
	}
	if !record.Jumlah.Defined || !record.Jumlah.Numeric {
		t.Errorf("jumlah should be a defined number, got %+v", record.Jumlah)
	}
	if record.Jumlah.Value.IntPart() != 7000 {
		t.Errorf("jumlah = %s, want 7000", record.Jumlah.Value)
	}
}

func TestLegacyTransactionUnmarshalStringAmount(t *testing.T) {
	payload := `{"tanggal":"1/12/2025","tipe":"Pengeluaran","kategori":"Lainnya","judul":"Kondangan","deskripsi":"Wawan","jumlah":"Rp 150.000"}`

	var record LegacyTransaction
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if record.Deskripsi != "Wawan" {
		t.Errorf("deskripsi = %q, want Wawan", record.Deskripsi)
	}
	if record.Jumlah.Numeric || record.Jumlah.Text != "Rp 150.000" {
		t.Errorf("jumlah should be the raw string, got %+v", record.Jumlah)
	}
}

func TestLegacyTransactionUnmarshalBadAmountKind(t *testing.T) {
	// A wrong-kind jumlah must not abort decoding of the batch; the record
	// fails shape validation instead.
	payload := `{"tanggal":"1/12/2025","tipe":"Pemasukan","kategori":"Gaji","judul":"Gaji","jumlah":true}`

	var record LegacyTransaction
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatalf("Unmarshal should tolerate a wrong-kind jumlah, got: %v", err)
	}
	if IsWellFormed(record) {
		t.Error("record with boolean jumlah should fail the shape check")
	}
}

func TestLegacyTransactionUnmarshalMissingAmount(t *testing.T) {
	payload := `{"tanggal":"1/12/2025","tipe":"Pemasukan","kategori":"Gaji","judul":"Gaji"}`

	var record LegacyTransaction
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if record.Jumlah.Defined {
		t.Error("absent jumlah should be undefined")
	}
	if IsWellFormed(record) {
		t.Error("record without jumlah should fail the shape check")
	}
}

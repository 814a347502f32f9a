// Package legacyimport brings transactions from the legacy spreadsheet
// export (Indonesian column labels, d/m/yyyy dates, "Rp"-formatted amounts)
// into the normalized schema. It is decoupled from HTTP and storage details
// so the server and the importctl CLI can both drive it.
package legacyimport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount holds the raw "jumlah" value. Legacy exports carry it either as a
// bare number or as a currency-formatted string ("Rp 150.000").
type Amount struct {
	Value   decimal.Decimal
	Text    string
	Numeric bool
	Defined bool
	invalid bool
}

// UnmarshalJSON tolerates both representations without failing the whole
// batch decode. A value of the wrong kind is recorded and rejected later by
// shape validation, so one bad row cannot abort the surrounding submission.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	a.Defined = true

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.invalid = true
			return nil
		}
		a.Text = s
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		a.invalid = true
		a.Text = string(data)
		return nil
	}
	a.Value = decimal.NewFromFloat(f)
	a.Numeric = true
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Defined {
		return []byte("null"), nil
	}
	if a.Numeric {
		return []byte(a.Value.String()), nil
	}
	return json.Marshal(a.Text)
}

// NumberAmount builds a numeric Amount, mainly for tests and the CLI.
func NumberAmount(v float64) Amount {
	return Amount{Value: decimal.NewFromFloat(v), Numeric: true, Defined: true}
}

// StringAmount builds a string Amount ("Rp 150.000" style).
func StringAmount(s string) Amount {
	return Amount{Text: s, Defined: true}
}

// LegacyTransaction is one row of the legacy export, field names matching
// the spreadsheet JSON verbatim.
type LegacyTransaction struct {
	Tanggal   string `json:"tanggal"`
	Tipe      string `json:"tipe"`
	Kategori  string `json:"kategori"`
	Judul     string `json:"judul"`
	Deskripsi string `json:"deskripsi,omitempty"`
	Jumlah    Amount `json:"jumlah"`
}

// ErrInvalidRecord marks a record that fails the shape check before any
// parsing or persistence is attempted.
var ErrInvalidRecord = errors.New("validation error")

// Validate checks the record shape: tanggal, tipe, kategori and judul must be
// non-empty strings and jumlah must be present as a number or string. Content
// problems (unknown labels, malformed dates) are caught later, per row.
func (r LegacyTransaction) Validate() error {
	if r.Tanggal == "" {
		return fmt.Errorf("%w: missing tanggal", ErrInvalidRecord)
	}
	if r.Tipe == "" {
		return fmt.Errorf("%w: missing tipe", ErrInvalidRecord)
	}
	if r.Kategori == "" {
		return fmt.Errorf("%w: missing kategori", ErrInvalidRecord)
	}
	if r.Judul == "" {
		return fmt.Errorf("%w: missing judul", ErrInvalidRecord)
	}
	if !r.Jumlah.Defined {
		return fmt.Errorf("%w: missing jumlah", ErrInvalidRecord)
	}
	if r.Jumlah.invalid {
		return fmt.Errorf("%w: jumlah must be a number or string", ErrInvalidRecord)
	}
	return nil
}

// IsWellFormed reports whether the record passes the shape check. Callers are
// expected to reject a whole submission up front if any record fails this.
func IsWellFormed(r LegacyTransaction) bool {
	return r.Validate() == nil
}

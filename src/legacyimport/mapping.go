package legacyimport

import (
	"fmt"
	"sort"
)

// CategoryMapping translates one legacy free-text category label to its
// normalized name and implied transaction type.
type CategoryMapping struct {
	Name string
	Type TransactionType
}

// categoryMappings is the static translation table for the legacy
// spreadsheet vocabulary. Labels not listed here are a hard per-row failure;
// the importer never invents a type for an unmapped label. Extend the table
// when the operator's remediation report shows a new label.
var categoryMappings = map[string]CategoryMapping{
	// Expense categories
	"Tagihan":   {Name: "Tagihan", Type: TypeExpense},
	"Lainnya":   {Name: "Lainnya", Type: TypeExpense},
	"Belanja":   {Name: "Belanja", Type: TypeExpense},
	"Kewajiban": {Name: "Kewajiban", Type: TypeExpense},
	"Makanan":   {Name: "Makanan", Type: TypeExpense},
	"Transport": {Name: "Transport", Type: TypeExpense},

	// Income categories
	"Gaji": {Name: "Gaji", Type: TypeIncome},
}

// DefaultCategories returns the normalized categories every new account
// starts with, sorted by name so seeding is deterministic.
func DefaultCategories() []CategoryMapping {
	out := make([]CategoryMapping, 0, len(categoryMappings))
	for _, m := range categoryMappings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupCategory resolves a legacy label against the static table.
func LookupCategory(label string) (CategoryMapping, error) {
	mapping, ok := categoryMappings[label]
	if !ok {
		return CategoryMapping{}, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
	}
	return mapping, nil
}

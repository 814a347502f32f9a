package legacyimport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/username/duitku/backend/src/security/validation"
)

// ImportOutcome is the per-record result. Failures carry the original record
// so the operator can fix the row (or extend the category mapping) and
// resubmit without digging through logs.
type ImportOutcome struct {
	Success       bool              `json:"success"`
	TransactionID int64             `json:"transactionId,omitempty"`
	Error         string            `json:"error,omitempty"`
	Record        LegacyTransaction `json:"-"`
}

// BatchError is one failed row in a batch, at its zero-based input position.
type BatchError struct {
	Index  int               `json:"index"`
	Record LegacyTransaction `json:"data"`
	Error  string            `json:"error"`
}

// BatchResult aggregates a whole import run.
// Successful+Failed == Total and len(Errors) == Failed always hold.
type BatchResult struct {
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Errors     []BatchError `json:"errors"`
}

// Importer drives single records end-to-end: shape check, parse, category
// resolution, persistence. It never returns an error past its boundary;
// every failure path becomes an ImportOutcome.
type Importer struct {
	store    Store
	resolver *CategoryResolver
	logger   *slog.Logger
}

func NewImporter(store Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:    store,
		resolver: NewCategoryResolver(store),
		logger:   logger,
	}
}

func failure(record LegacyTransaction, err error) ImportOutcome {
	return ImportOutcome{Success: false, Error: err.Error(), Record: record}
}

// ImportOne imports a single legacy record. A category created while
// resolving step 3 is not rolled back if the transaction insert then fails;
// a corrected resubmission will simply reuse it.
func (i *Importer) ImportOne(ctx context.Context, userID int64, record LegacyTransaction) ImportOutcome {
	if err := record.Validate(); err != nil {
		return failure(record, err)
	}

	date, err := ParseDate(record.Tanggal)
	if err != nil {
		return failure(record, err)
	}

	txType, err := ParseType(record.Tipe)
	if err != nil {
		return failure(record, err)
	}

	amount, err := ParseAmount(record.Jumlah)
	if err != nil {
		return failure(record, err)
	}

	categoryID, err := i.resolver.Resolve(ctx, userID, record.Kategori)
	if err != nil {
		return failure(record, err)
	}

	transactionID, err := i.store.CreateTransaction(ctx, NewTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		CategoryID:  categoryID,
		Title:       validation.StripUnprintable(record.Judul),
		Description: validation.StripUnprintable(record.Deskripsi),
		Date:        date,
	})
	if err != nil {
		return failure(record, fmt.Errorf("failed to insert transaction: %w", err))
	}

	return ImportOutcome{Success: true, TransactionID: transactionID, Record: record}
}

// ImportBatch runs the importer over records strictly in input order,
// sequentially. A failure at one index never stops the rest of the batch;
// sequential processing also keeps two rows referencing the same new
// category from racing against each other within a batch.
func (i *Importer) ImportBatch(ctx context.Context, userID int64, records []LegacyTransaction) BatchResult {
	result := BatchResult{
		Total:  len(records),
		Errors: []BatchError{},
	}

	for index, record := range records {
		outcome := i.ImportOne(ctx, userID, record)
		if outcome.Success {
			result.Successful++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, BatchError{
			Index:  index,
			Record: record,
			Error:  outcome.Error,
		})
		i.logger.Debug("legacy record failed to import", "userID", userID, "index", index, "error", outcome.Error)
	}

	return result
}

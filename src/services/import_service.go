package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/duitku/backend/src/legacyimport"
	"github.com/username/duitku/backend/src/logger"
)

type importServiceImpl struct {
	importer       *legacyimport.Importer
	summaryService SummaryService
	maxBatchSize   int
}

func NewImportService(importer *legacyimport.Importer, summaryService SummaryService, maxBatchSize int) ImportService {
	return &importServiceImpl{
		importer:       importer,
		summaryService: summaryService,
		maxBatchSize:   maxBatchSize,
	}
}

// ImportLegacyBatch rejects the whole submission if it is oversized or if
// any record fails the shape check (callers fix the payload and resubmit).
// Past that gate, failures are per-row and the batch always runs to the end.
func (s *importServiceImpl) ImportLegacyBatch(ctx context.Context, userID int64, records []legacyimport.LegacyTransaction) (legacyimport.BatchResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ImportLegacyBatch START", "userID", userID, "records", len(records))

	if s.maxBatchSize > 0 && len(records) > s.maxBatchSize {
		return legacyimport.BatchResult{}, fmt.Errorf("%w: %d records, maximum is %d", ErrBatchTooLarge, len(records), s.maxBatchSize)
	}

	for i, record := range records {
		if err := record.Validate(); err != nil {
			return legacyimport.BatchResult{}, fmt.Errorf("%w: record %d: %v", ErrMalformedSubmission, i, err)
		}
	}

	result := s.importer.ImportBatch(ctx, userID, records)

	if result.Successful > 0 {
		s.summaryService.InvalidateUserCache(userID)
	}

	logger.L.Info("ImportLegacyBatch END",
		"userID", userID,
		"total", result.Total,
		"successful", result.Successful,
		"failed", result.Failed,
		"duration", time.Since(overallStartTime))
	return result, nil
}

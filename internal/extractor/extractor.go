package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/uploads"
)

// Extractor turns a summary log into its parsed workbook: storage fetch
// plus parse. Consumers depend on this abstraction so they never touch
// storage or parsing directly.
type Extractor interface {
	Extract(ctx context.Context, log *domain.SummaryLog) (*spreadsheet.Workbook, error)
}

type workbookExtractor struct {
	uploads uploads.Store
}

// New creates an extractor reading workbooks from the given upload store.
func New(store uploads.Store) Extractor {
	return &workbookExtractor{uploads: store}
}

// Extract fetches and parses the summary log's workbook. A file object
// missing from storage is permanent: no retry will make it appear.
func (e *workbookExtractor) Extract(ctx context.Context, log *domain.SummaryLog) (*spreadsheet.Workbook, error) {
	buffer, err := e.uploads.FindByLocation(ctx, log.File.Location)
	if err != nil {
		if errors.Is(err, uploads.ErrNotFound) {
			return nil, domain.NewPermanentError(
				fmt.Sprintf("summary log %s file object is missing at %s", log.ID, log.File.Location), err)
		}
		return nil, fmt.Errorf("fetch summary log file: %w", err)
	}

	workbook, err := spreadsheet.Parse(buffer)
	if err != nil {
		return nil, err
	}
	return workbook, nil
}

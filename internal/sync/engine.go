// Package sync reconciles a validated summary log submission into the
// durable waste-record ledger and the registration's waste balances.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/extractor"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/tableschema"
	"github.com/wastetrack/epr/internal/transform"
)

// Result reports what a sync changed, for metrics. Rows carried forward
// unchanged get a pending version but count in neither figure.
type Result struct {
	Created int
	Updated int
}

// Engine merges one submission's rows into the waste-record store and
// recomputes the affected balances. Writes are per-record, not atomic
// across records; a crash mid-sync is recovered by re-running, which the
// version diffing and the balance's credited-amount ledger make idempotent.
type Engine struct {
	extractor     extractor.Extractor
	records       repository.WasteRecordRepository
	balances      repository.WasteBalanceRepository
	organisations repository.OrganisationRepository
	logger        *slog.Logger
}

// NewEngine wires a sync engine from its collaborators.
func NewEngine(
	ext extractor.Extractor,
	records repository.WasteRecordRepository,
	balances repository.WasteBalanceRepository,
	organisations repository.OrganisationRepository,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		extractor:     ext,
		records:       records,
		balances:      balances,
		organisations: organisations,
		logger:        logger,
	}
}

// Sync extracts, transforms and merges the summary log's rows. Extraction
// and transformation failures abort before any write. The caller owns the
// summary log's status; Sync never touches it.
func (e *Engine) Sync(ctx context.Context, log *domain.SummaryLog, user string) (Result, error) {
	registration, err := e.organisations.FindRegistration(ctx, log.RegistrationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, domain.NewPermanentError(
				fmt.Sprintf("registration %s not found", log.RegistrationID), err)
		}
		return Result{}, fmt.Errorf("resolve registration: %w", err)
	}

	workbook, err := e.extractor.Extract(ctx, log)
	if err != nil {
		return Result{}, err
	}

	rows, transformErrs := transform.Workbook(workbook, registration.ProcessingType)
	if len(transformErrs) > 0 {
		// A validated submission transforms cleanly; anything else means
		// the stored file changed after validation.
		return Result{}, domain.NewPermanentError(
			fmt.Sprintf("summary log %s no longer transforms cleanly", log.ID),
			errors.Join(transformErrs...))
	}

	var result Result
	for _, row := range rows {
		changed, err := e.mergeRow(ctx, log, registration, row, user)
		if err != nil {
			return result, err
		}
		switch changed {
		case domain.VersionCreated:
			result.Created++
		case domain.VersionUpdated:
			result.Updated++
		}
	}

	if registration.AccreditationID != nil {
		if err := e.updateBalance(ctx, log, registration); err != nil {
			return result, err
		}
	}

	e.logger.Info("summary log synced",
		"summaryLogId", log.ID,
		"registrationId", log.RegistrationID,
		"created", result.Created,
		"updated", result.Updated)
	return result, nil
}

// mergeRow writes one transformed row into the record store and reports
// which version status it produced.
func (e *Engine) mergeRow(ctx context.Context, log *domain.SummaryLog, registration *domain.Registration, row transform.TransformedRow, user string) (domain.VersionStatus, error) {
	existing, err := e.records.FindByKey(ctx, registration.ID, row.Type, row.RowID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		record := domain.NewWasteRecord(registration.ID, row.Type, row.RowID, row.Data, log.ID, user)
		if err := e.records.Save(ctx, record); err != nil {
			return "", fmt.Errorf("create waste record %s: %w", record.Key(), err)
		}
		return domain.VersionCreated, nil
	case err != nil:
		return "", fmt.Errorf("look up waste record: %w", err)
	}

	status := domain.VersionUpdated
	if domain.DataEqual(existing.CurrentData(), row.Data) {
		status = domain.VersionPending
	}
	existing.AppendVersion(status, row.Data, log.ID, user)
	if err := e.records.Save(ctx, existing); err != nil {
		return "", fmt.Errorf("append waste record version %s: %w", existing.Key(), err)
	}
	return status, nil
}

// updateBalance recomputes the accreditation's balance from the full
// current state of the registration's records.
func (e *Engine) updateBalance(ctx context.Context, log *domain.SummaryLog, registration *domain.Registration) error {
	records, err := e.records.ListByRegistration(ctx, registration.ID)
	if err != nil {
		return fmt.Errorf("list waste records for balance: %w", err)
	}

	contributions := map[string]domain.BalanceContribution{}
	for _, record := range records {
		contribution := domain.BalanceContribution{Amount: balanceContribution(record)}
		if latest := record.Latest(); latest != nil {
			contribution.VersionID = latest.ID
		}
		contributions[record.Key()] = contribution
	}

	balance, err := e.balances.FindByAccreditation(ctx, *registration.AccreditationID)
	if errors.Is(err, repository.ErrNotFound) {
		balance = domain.NewWasteBalance(*registration.AccreditationID)
	} else if err != nil {
		return fmt.Errorf("find waste balance: %w", err)
	}

	applied := balance.Apply(contributions, log.ID)
	if len(applied) == 0 {
		return nil
	}
	if err := e.balances.Save(ctx, balance); err != nil {
		return fmt.Errorf("save waste balance: %w", err)
	}
	return nil
}

// balanceContribution is the tonnage a record currently adds to its
// accreditation's balance. Tonnage already claimed through an issued
// PRN/PERN contributes nothing; only received and exported loads credit
// the balance.
func balanceContribution(record *domain.WasteRecord) float64 {
	if record.Type != domain.WasteRecordReceived && record.Type != domain.WasteRecordExported {
		return 0
	}
	table, ok := transform.TableForType(record.Type)
	if !ok {
		return 0
	}
	schema, ok := tableschema.ForTable(table)
	if !ok {
		return 0
	}

	data := record.CurrentData()
	if schema.Balance.PrnIssued != "" && data[schema.Balance.PrnIssued] == "Yes" {
		return 0
	}
	tonnage, err := strconv.ParseFloat(data[schema.Balance.Tonnage], 64)
	if err != nil {
		return 0
	}
	return tonnage
}

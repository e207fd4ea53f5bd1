// Package summarylog drives a summary log through its lifecycle: the
// validation pass after upload and the submission flow that reconciles it
// into the waste-record ledger.
package summarylog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/extractor"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/transform"
	"github.com/wastetrack/epr/internal/validation"
)

// Validator runs the layered validation pass over an uploaded summary log:
// parse, meta syntax, meta business, data syntax, data business. A fatal
// issue in any layer stops the layers after it; the pass still completes
// normally and records what it found.
type Validator struct {
	summaryLogs   repository.SummaryLogRepository
	organisations repository.OrganisationRepository
	records       repository.WasteRecordRepository
	extractor     extractor.Extractor
	rules         []validation.Rule
	logger        *slog.Logger
}

// NewValidator wires a validator from its collaborators.
func NewValidator(
	summaryLogs repository.SummaryLogRepository,
	organisations repository.OrganisationRepository,
	records repository.WasteRecordRepository,
	ext extractor.Extractor,
	logger *slog.Logger,
) *Validator {
	return &Validator{
		summaryLogs:   summaryLogs,
		organisations: organisations,
		records:       records,
		extractor:     ext,
		rules:         validation.BusinessRules(),
		logger:        logger,
	}
}

// Validate runs one validation pass for the summary log. It persists
// exactly one issue set and one terminal transition (VALID or INVALID) per
// completed pass. A transient failure mid-pass leaves the log in
// VALIDATING, from which a retry re-enters.
func (v *Validator) Validate(ctx context.Context, summaryLogID uuid.UUID) error {
	log, err := v.summaryLogs.FindByID(ctx, summaryLogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewPermanentError(fmt.Sprintf("summary log %s not found", summaryLogID), err)
		}
		return fmt.Errorf("find summary log: %w", err)
	}

	switch log.Status {
	case domain.StatusPending:
		if err := log.TransitionTo(domain.StatusValidating); err != nil {
			return domain.NewPermanentError("cannot start validation", err)
		}
		if err := v.summaryLogs.Update(ctx, log, log.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return domain.NewPermanentError("summary log changed while starting validation", err)
			}
			return fmt.Errorf("persist validating status: %w", err)
		}
	case domain.StatusValidating:
		// Re-entry after a transient failure; resume the pass.
	default:
		return domain.NewPermanentError(
			fmt.Sprintf("summary log %s is %s, not awaiting validation", log.ID, log.Status), nil)
	}

	issues, meta, err := v.runPass(ctx, log)
	if err != nil {
		return err
	}

	target := domain.StatusValid
	if !issues.IsValid() {
		target = domain.StatusInvalid
	}
	log.RecordValidation(meta, issues.All())
	if err := log.TransitionTo(target); err != nil {
		return domain.NewPermanentError("cannot record validation outcome", err)
	}
	if err := v.summaryLogs.Update(ctx, log, log.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return domain.NewPermanentError("summary log changed during validation", err)
		}
		return fmt.Errorf("persist validation outcome: %w", err)
	}

	v.logger.Info("summary log validated",
		"summaryLogId", log.ID,
		"status", log.Status,
		"outcome", issues.Summary())
	return nil
}

// runPass executes the validation layers in order. It returns an error only
// for transient infrastructure failures; everything the uploader can act on
// becomes an issue.
func (v *Validator) runPass(ctx context.Context, log *domain.SummaryLog) (*validation.Issues, map[string]spreadsheet.MetaField, error) {
	issues := validation.NewIssues()

	switch log.File.UploadStatus {
	case domain.UploadRejected:
		message := log.File.ErrorMessage
		if message == "" {
			message = "the uploaded file was rejected"
		}
		issues.AddFatal(validation.CategoryTechnical, validation.UploadRejectionCode(log.File.ErrorMessage), message, nil)
		return issues, nil, nil
	case domain.UploadPending:
		// The upload callback fires only once the file store has the object;
		// a pending status here means the caller jumped the gun.
		return nil, nil, domain.NewPermanentError(
			fmt.Sprintf("summary log %s file upload is still pending", log.ID), nil)
	}

	workbook, err := v.extractor.Extract(ctx, log)
	if err != nil {
		var parseErr *spreadsheet.ParseError
		switch {
		case errors.As(err, &parseErr):
			issues.AddFatal(validation.CategoryParsing, parseErr.Code, parseErr.Message, nil)
			return issues, nil, nil
		case domain.IsPermanent(err):
			issues.AddFatal(validation.CategoryTechnical, validation.CodeValidationSystemError,
				"the uploaded file could not be retrieved", nil)
			return issues, nil, nil
		default:
			return nil, nil, fmt.Errorf("extract summary log: %w", err)
		}
	}

	issues.Merge(validation.ValidateMetaSyntax(workbook.Meta))
	if issues.IsFatal() {
		return issues, workbook.Meta, nil
	}

	registration, err := v.organisations.FindRegistration(ctx, log.RegistrationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, domain.NewPermanentError(
				fmt.Sprintf("registration %s not found", log.RegistrationID), err)
		}
		return nil, nil, fmt.Errorf("resolve registration: %w", err)
	}
	details, err := v.registrationDetails(ctx, registration)
	if err != nil {
		return nil, nil, err
	}

	issues.Merge(validation.ValidateMetaBusiness(workbook.Meta, details))
	if issues.IsFatal() {
		return issues, workbook.Meta, nil
	}

	issues.Merge(validation.ValidateDataSyntax(workbook))
	if issues.IsFatal() {
		return issues, workbook.Meta, nil
	}

	// Rows that fail to transform were already reported by the technical
	// layer; the business rules see the rows that survived.
	rows, _ := transform.Workbook(workbook, registration.ProcessingType)
	refs := make([]validation.RecordRef, len(rows))
	for i, row := range rows {
		refs[i] = validation.RecordRef{Type: string(row.Type), RowID: row.RowID}
	}

	existing, err := v.records.ListByRegistration(ctx, registration.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list existing waste records: %w", err)
	}
	existingRefs := make([]validation.RecordRef, len(existing))
	for i, record := range existing {
		existingRefs[i] = validation.RecordRef{Type: string(record.Type), RowID: record.RowID}
	}

	issues.Merge(validation.ValidateDataBusiness(validation.RuleContext{
		Records:  refs,
		Existing: existingRefs,
	}, v.rules))

	return issues, workbook.Meta, nil
}

func (v *Validator) registrationDetails(ctx context.Context, registration *domain.Registration) (validation.RegistrationDetails, error) {
	details := validation.RegistrationDetails{
		ProcessingType:     string(registration.ProcessingType),
		Material:           registration.Material,
		RegistrationNumber: registration.RegistrationNumber,
	}
	if registration.AccreditationID == nil {
		return details, nil
	}

	accreditation, err := v.organisations.FindAccreditation(ctx, *registration.AccreditationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return details, domain.NewPermanentError(
				fmt.Sprintf("accreditation %s not found", *registration.AccreditationID), err)
		}
		return details, fmt.Errorf("resolve accreditation: %w", err)
	}
	details.HasAccreditation = true
	details.AccreditationNumber = accreditation.AccreditationNumber
	return details, nil
}

package summarylog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/sync"
)

// Syncer reconciles a summary log into the waste-record ledger.
type Syncer interface {
	Sync(ctx context.Context, log *domain.SummaryLog, user string) (sync.Result, error)
}

// Submitter carries a VALID summary log through submission: records are
// merged first, balances updated, and the terminal status transition is
// persisted last so a crash mid-sync leaves the log retryable in
// SUBMITTING.
type Submitter struct {
	summaryLogs repository.SummaryLogRepository
	syncer      Syncer
	logger      *slog.Logger
}

// NewSubmitter wires a submitter from its collaborators.
func NewSubmitter(summaryLogs repository.SummaryLogRepository, syncer Syncer, logger *slog.Logger) *Submitter {
	return &Submitter{summaryLogs: summaryLogs, syncer: syncer, logger: logger}
}

// Begin moves a VALID summary log into SUBMITTING on the request path,
// before the submission job is enqueued. A log in any other state cannot be
// submitted.
func (s *Submitter) Begin(ctx context.Context, summaryLogID uuid.UUID) error {
	log, err := s.summaryLogs.FindByID(ctx, summaryLogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewPermanentError(fmt.Sprintf("summary log %s not found", summaryLogID), err)
		}
		return fmt.Errorf("find summary log: %w", err)
	}

	if err := log.TransitionTo(domain.StatusSubmitting); err != nil {
		return domain.NewPermanentError("summary log cannot be submitted", err)
	}
	if err := s.summaryLogs.Update(ctx, log, log.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return domain.NewPermanentError("summary log changed while starting submission", err)
		}
		return fmt.Errorf("persist submitting status: %w", err)
	}
	return nil
}

// Submit runs the submission job for a log already in SUBMITTING. On
// success the log becomes SUBMITTED; a permanent failure marks it FAILED
// with the reason; a transient failure leaves it in SUBMITTING for retry.
func (s *Submitter) Submit(ctx context.Context, summaryLogID uuid.UUID, user string) error {
	log, err := s.summaryLogs.FindByID(ctx, summaryLogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewPermanentError(fmt.Sprintf("summary log %s not found", summaryLogID), err)
		}
		return fmt.Errorf("find summary log: %w", err)
	}
	if log.Status != domain.StatusSubmitting {
		return domain.NewPermanentError(
			fmt.Sprintf("summary log %s is %s, not in submitting status", log.ID, log.Status), nil)
	}

	result, err := s.syncer.Sync(ctx, log, user)
	if err != nil {
		if domain.IsPermanent(err) {
			return s.fail(ctx, log, err)
		}
		return err
	}

	if err := log.TransitionTo(domain.StatusSubmitted); err != nil {
		return domain.NewPermanentError("cannot record submission outcome", err)
	}
	if err := s.summaryLogs.Update(ctx, log, log.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return domain.NewPermanentError("summary log changed during submission", err)
		}
		return fmt.Errorf("persist submitted status: %w", err)
	}

	s.logger.Info("summary log submitted",
		"summaryLogId", log.ID,
		"created", result.Created,
		"updated", result.Updated)
	return nil
}

// fail records a permanent submission failure and surfaces the original
// error to the dispatcher.
func (s *Submitter) fail(ctx context.Context, log *domain.SummaryLog, cause error) error {
	log.FailureReason = cause.Error()
	if err := log.TransitionTo(domain.StatusFailed); err != nil {
		return domain.NewPermanentError("cannot record submission failure", err)
	}
	if err := s.summaryLogs.Update(ctx, log, log.Version); err != nil {
		s.logger.Error("failed to persist submission failure",
			"summaryLogId", log.ID, "error", err)
	}
	return cause
}

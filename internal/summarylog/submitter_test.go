package summarylog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/sync"
)

type stubSyncer struct {
	result sync.Result
	err    error
	calls  int
}

func (s *stubSyncer) Sync(context.Context, *domain.SummaryLog, string) (sync.Result, error) {
	s.calls++
	return s.result, s.err
}

func newSubmitterFixture(t *testing.T, status domain.Status, syncer Syncer) (*Submitter, repository.SummaryLogRepository, *domain.SummaryLog) {
	t.Helper()
	summaryLogs := repository.NewMemorySummaryLogRepository()
	log := domain.NewSummaryLog(uuid.New(), uuid.New(), domain.SummaryLogFile{ID: uuid.New()})
	log.Status = status
	if err := summaryLogs.Insert(context.Background(), log); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSubmitter(summaryLogs, syncer, logger), summaryLogs, log
}

func TestBeginMovesValidLogToSubmitting(t *testing.T) {
	submitter, summaryLogs, log := newSubmitterFixture(t, domain.StatusValid, &stubSyncer{})

	if err := submitter.Begin(context.Background(), log.ID); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	stored, err := summaryLogs.FindByID(context.Background(), log.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusSubmitting {
		t.Errorf("expected SUBMITTING, got %s", stored.Status)
	}
}

func TestBeginRejectsUnvalidatedLog(t *testing.T) {
	submitter, _, log := newSubmitterFixture(t, domain.StatusPending, &stubSyncer{})

	err := submitter.Begin(context.Background(), log.ID)
	if !domain.IsPermanent(err) {
		t.Fatalf("expected a permanent error, got %v", err)
	}
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Errorf("expected the cause to be an invalid transition, got %v", err)
	}
}

func TestSubmitSuccessEndsSubmitted(t *testing.T) {
	syncer := &stubSyncer{result: sync.Result{Created: 2, Updated: 1}}
	submitter, summaryLogs, log := newSubmitterFixture(t, domain.StatusSubmitting, syncer)

	if err := submitter.Submit(context.Background(), log.ID, "user-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	stored, err := summaryLogs.FindByID(context.Background(), log.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusSubmitted {
		t.Errorf("expected SUBMITTED, got %s", stored.Status)
	}
	if syncer.calls != 1 {
		t.Errorf("expected one sync, got %d", syncer.calls)
	}
}

func TestSubmitPermanentFailureEndsFailed(t *testing.T) {
	cause := domain.NewPermanentError("file object is missing", nil)
	submitter, summaryLogs, log := newSubmitterFixture(t, domain.StatusSubmitting, &stubSyncer{err: cause})

	err := submitter.Submit(context.Background(), log.ID, "user-1")
	if !domain.IsPermanent(err) {
		t.Fatalf("the failure should surface to the dispatcher, got %v", err)
	}

	stored, findErr := summaryLogs.FindByID(context.Background(), log.ID)
	if findErr != nil {
		t.Fatal(findErr)
	}
	if stored.Status != domain.StatusFailed {
		t.Errorf("expected FAILED, got %s", stored.Status)
	}
	if stored.FailureReason == "" {
		t.Error("the failure reason should be recorded on the log")
	}
}

func TestSubmitTransientFailureLeavesSubmitting(t *testing.T) {
	cause := errors.New("connection reset")
	submitter, summaryLogs, log := newSubmitterFixture(t, domain.StatusSubmitting, &stubSyncer{err: cause})

	err := submitter.Submit(context.Background(), log.ID, "user-1")
	if err == nil || domain.IsPermanent(err) {
		t.Fatalf("a transient failure should bubble up retryable, got %v", err)
	}

	stored, findErr := summaryLogs.FindByID(context.Background(), log.ID)
	if findErr != nil {
		t.Fatal(findErr)
	}
	if stored.Status != domain.StatusSubmitting {
		t.Errorf("a transient failure must leave the log in SUBMITTING, got %s", stored.Status)
	}
}

func TestSubmitRequiresSubmittingStatus(t *testing.T) {
	syncer := &stubSyncer{}
	submitter, _, log := newSubmitterFixture(t, domain.StatusValid, syncer)

	err := submitter.Submit(context.Background(), log.ID, "user-1")
	if !domain.IsPermanent(err) {
		t.Fatalf("expected a permanent error, got %v", err)
	}
	if syncer.calls != 0 {
		t.Error("sync must not run for a log outside SUBMITTING")
	}
}

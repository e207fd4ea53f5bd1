package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/summarylog"
	"github.com/wastetrack/epr/internal/sync"
	"github.com/wastetrack/epr/internal/worker"
)

type stubExtractor struct {
	workbook *spreadsheet.Workbook
	err      error
}

func (s stubExtractor) Extract(context.Context, *domain.SummaryLog) (*spreadsheet.Workbook, error) {
	return s.workbook, s.err
}

type stubSyncer struct{}

func (stubSyncer) Sync(context.Context, *domain.SummaryLog, string) (sync.Result, error) {
	return sync.Result{}, nil
}

type apiFixture struct {
	server      *httptest.Server
	summaryLogs repository.SummaryLogRepository
	dispatcher  *worker.Dispatcher
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summaryLogs := repository.NewMemorySummaryLogRepository()
	organisations := repository.NewMemoryOrganisationRepository()
	records := repository.NewMemoryWasteRecordRepository()

	// The validation job will find an unreadable workbook; these tests only
	// exercise the HTTP surface.
	ext := stubExtractor{err: &spreadsheet.ParseError{
		Code:    spreadsheet.CodeWorkbookUnreadable,
		Message: "failed to open workbook",
	}}
	validator := summarylog.NewValidator(summaryLogs, organisations, records, ext, logger)
	submitter := summarylog.NewSubmitter(summaryLogs, stubSyncer{}, logger)

	dispatcher := worker.NewDispatcher(worker.Config{Workers: 1, QueueSize: 4, JobTimeout: time.Second, MaxRetries: -1}, logger)
	dispatcher.Start(context.Background())

	handler := NewHandler(summaryLogs, validator, submitter, dispatcher)
	server := httptest.NewServer(NewRouter(handler, []string{"*"}))
	t.Cleanup(func() {
		server.Close()
		dispatcher.Stop()
	})

	return &apiFixture{server: server, summaryLogs: summaryLogs, dispatcher: dispatcher}
}

func TestUploadCompletedCreatesLogAndQueuesValidation(t *testing.T) {
	f := newAPIFixture(t)
	registrationID := uuid.New()

	body, _ := json.Marshal(map[string]any{
		"organisationId": uuid.New(),
		"fileId":         uuid.New(),
		"fileName":       "summary-log.xlsx",
		"location":       "uploads/summary-log.xlsx",
	})
	resp, err := http.Post(
		f.server.URL+"/api/registrations/"+registrationID.String()+"/summary-logs",
		"application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	// The queued validation pass ends INVALID against the unreadable stub.
	deadline := time.After(2 * time.Second)
	for {
		stored, err := f.summaryLogs.FindByID(context.Background(), created.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Status == domain.StatusInvalid {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("validation never completed, status %s", stored.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestUploadCompletedRejectsMissingLocation(t *testing.T) {
	f := newAPIFixture(t)

	body, _ := json.Marshal(map[string]any{"fileName": "x.xlsx"})
	resp, err := http.Post(
		f.server.URL+"/api/registrations/"+uuid.NewString()+"/summary-logs",
		"application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetReturnsSummaryLog(t *testing.T) {
	f := newAPIFixture(t)
	log := domain.NewSummaryLog(uuid.New(), uuid.New(), domain.SummaryLogFile{ID: uuid.New(), Name: "log.xlsx"})
	if err := f.summaryLogs.Insert(context.Background(), log); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(f.server.URL + "/api/summary-logs/" + log.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got struct {
		Status   domain.Status `json:"status"`
		FileName string        `json:"fileName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPending || got.FileName != "log.xlsx" {
		t.Errorf("unexpected response %+v", got)
	}
}

func TestGetUnknownLogIs404(t *testing.T) {
	f := newAPIFixture(t)
	resp, err := http.Get(f.server.URL + "/api/summary-logs/" + uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSubmitRejectsUnvalidatedLog(t *testing.T) {
	f := newAPIFixture(t)
	log := domain.NewSummaryLog(uuid.New(), uuid.New(), domain.SummaryLogFile{ID: uuid.New()})
	if err := f.summaryLogs.Insert(context.Background(), log); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(f.server.URL+"/api/summary-logs/"+log.ID.String()+"/submit", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("a PENDING log cannot be submitted, expected 409, got %d", resp.StatusCode)
	}
}

func TestSubmitValidLogEndsSubmitted(t *testing.T) {
	f := newAPIFixture(t)
	log := domain.NewSummaryLog(uuid.New(), uuid.New(), domain.SummaryLogFile{ID: uuid.New()})
	log.Status = domain.StatusValid
	if err := f.summaryLogs.Insert(context.Background(), log); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(f.server.URL+"/api/summary-logs/"+log.ID.String()+"/submit", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	deadline := time.After(2 * time.Second)
	for {
		stored, err := f.summaryLogs.FindByID(context.Background(), log.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Status == domain.StatusSubmitted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("submission never completed, status %s", stored.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

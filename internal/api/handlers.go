// Package api exposes the summary log pipeline over HTTP: upload
// completion, submission, and status reads. Validation and submission run
// as background jobs; handlers return as soon as the job is enqueued.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/logging"
	"github.com/wastetrack/epr/internal/repository"
	"github.com/wastetrack/epr/internal/summarylog"
	"github.com/wastetrack/epr/internal/worker"
)

// Handler serves the summary log endpoints.
type Handler struct {
	summaryLogs repository.SummaryLogRepository
	validator   *summarylog.Validator
	submitter   *summarylog.Submitter
	dispatcher  *worker.Dispatcher
}

// NewHandler wires the HTTP handlers.
func NewHandler(
	summaryLogs repository.SummaryLogRepository,
	validator *summarylog.Validator,
	submitter *summarylog.Submitter,
	dispatcher *worker.Dispatcher,
) *Handler {
	return &Handler{
		summaryLogs: summaryLogs,
		validator:   validator,
		submitter:   submitter,
		dispatcher:  dispatcher,
	}
}

type uploadCompletedRequest struct {
	OrganisationID uuid.UUID `json:"organisationId"`
	FileID         uuid.UUID `json:"fileId"`
	FileName       string    `json:"fileName"`
	Location       string    `json:"location"`
	UploadStatus   string    `json:"uploadStatus"`
	ErrorMessage   string    `json:"errorMessage"`
}

// UploadCompleted creates a summary log for a finished upload and enqueues
// its validation pass.
func (h *Handler) UploadCompleted(w http.ResponseWriter, r *http.Request) {
	registrationID, err := uuid.Parse(chi.URLParam(r, "registrationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid registration id")
		return
	}

	var req uploadCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	uploadStatus := domain.UploadStatus(req.UploadStatus)
	if uploadStatus == "" {
		uploadStatus = domain.UploadComplete
	}

	log := domain.NewSummaryLog(req.OrganisationID, registrationID, domain.SummaryLogFile{
		ID:           req.FileID,
		Name:         req.FileName,
		Location:     req.Location,
		UploadStatus: uploadStatus,
		ErrorMessage: req.ErrorMessage,
	})
	if err := h.summaryLogs.Insert(r.Context(), log); err != nil {
		logging.FromContext(r.Context()).Error("failed to create summary log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create summary log")
		return
	}

	if err := h.enqueueValidation(r, log.ID); err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":     log.ID,
		"status": log.Status,
	})
}

// Submit moves a VALID summary log into SUBMITTING and enqueues the
// submission job.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	summaryLogID, err := uuid.Parse(chi.URLParam(r, "summaryLogID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid summary log id")
		return
	}
	user := r.Header.Get("X-User-Id")
	if user == "" {
		user = "system"
	}

	if err := h.submitter.Begin(r.Context(), summaryLogID); err != nil {
		if domain.IsPermanent(err) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		logging.FromContext(r.Context()).Error("failed to start submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start submission")
		return
	}

	job := func(ctx context.Context) error {
		return h.submitter.Submit(ctx, summaryLogID, user)
	}
	if err := h.dispatcher.Dispatch(summaryLogID.String(), "submit", job); err != nil {
		writeDispatchError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":     summaryLogID,
		"status": domain.StatusSubmitting,
	})
}

// Get returns a summary log's status and validation issues.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	summaryLogID, err := uuid.Parse(chi.URLParam(r, "summaryLogID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid summary log id")
		return
	}

	log, err := h.summaryLogs.FindByID(r.Context(), summaryLogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "summary log not found")
			return
		}
		logging.FromContext(r.Context()).Error("failed to load summary log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load summary log")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":             log.ID,
		"registrationId": log.RegistrationID,
		"status":         log.Status,
		"fileName":       log.File.Name,
		"issues":         log.Issues,
		"failureReason":  log.FailureReason,
		"version":        log.Version,
	})
}

func (h *Handler) enqueueValidation(r *http.Request, summaryLogID uuid.UUID) error {
	job := func(ctx context.Context) error {
		return h.validator.Validate(ctx, summaryLogID)
	}
	return h.dispatcher.Dispatch(summaryLogID.String(), "validate", job)
}

func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, worker.ErrInFlight):
		writeError(w, http.StatusConflict, "a job for this summary log is already running")
	case errors.Is(err, worker.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, "the job queue is full, try again later")
	default:
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

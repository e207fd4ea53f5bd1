package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/validation"
)

// Status is a summary log's lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusValidating Status = "VALIDATING"
	StatusValid      Status = "VALID"
	StatusInvalid    Status = "INVALID"
	StatusSubmitting Status = "SUBMITTING"
	StatusSubmitted  Status = "SUBMITTED"
	StatusFailed     Status = "FAILED"
)

// transitions is the complete set of legal status edges. SUBMITTED and
// FAILED have no outgoing edges; a correction is a new upload, never a
// status rewind.
var transitions = map[Status][]Status{
	StatusPending:    {StatusValidating},
	StatusValidating: {StatusValid, StatusInvalid},
	StatusValid:      {StatusSubmitting},
	StatusSubmitting: {StatusSubmitted, StatusFailed},
}

// InvalidTransitionError reports an attempt to move a summary log along an
// edge that is not in the transition table. It indicates a bug or a
// concurrent-modification race, not a user error.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid summary log status transition from %s to %s", e.From, e.To)
}

// CanTransition reports whether the edge from -> to is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UploadStatus tracks the file object's own state, separate from the
// summary log's validation lifecycle.
type UploadStatus string

const (
	UploadPending  UploadStatus = "pending"
	UploadComplete UploadStatus = "complete"
	UploadRejected UploadStatus = "rejected"
)

// SummaryLogFile identifies the uploaded workbook backing a summary log.
// ErrorMessage carries the uploader's rejection reason when UploadStatus is
// rejected.
type SummaryLogFile struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Location     string       `json:"location"`
	UploadStatus UploadStatus `json:"uploadStatus"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// SummaryLog is one uploaded submission attempt for a registration. A
// re-upload creates a new SummaryLog; existing ones are never deleted.
type SummaryLog struct {
	ID             uuid.UUID                        `json:"id"`
	OrganisationID uuid.UUID                        `json:"organisationId"`
	RegistrationID uuid.UUID                        `json:"registrationId"`
	File           SummaryLogFile                   `json:"file"`
	Status         Status                           `json:"status"`
	Meta           map[string]spreadsheet.MetaField `json:"meta,omitempty"`
	Issues         []validation.Issue               `json:"issues,omitempty"`
	FailureReason  string                           `json:"failureReason,omitempty"`
	Version        int64                            `json:"version"`
	CreatedAt      time.Time                        `json:"createdAt"`
	UpdatedAt      time.Time                        `json:"updatedAt"`
}

// NewSummaryLog creates a summary log in PENDING for a freshly initiated
// upload.
func NewSummaryLog(organisationID, registrationID uuid.UUID, file SummaryLogFile) *SummaryLog {
	now := time.Now()
	return &SummaryLog{
		ID:             uuid.New(),
		OrganisationID: organisationID,
		RegistrationID: registrationID,
		File:           file,
		Status:         StatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionTo moves the summary log to target, or fails with an
// InvalidTransitionError when the edge is not legal. This is the only way
// status may be mutated.
func (s *SummaryLog) TransitionTo(target Status) error {
	if !CanTransition(s.Status, target) {
		return &InvalidTransitionError{From: s.Status, To: target}
	}
	s.Status = target
	s.UpdatedAt = time.Now()
	return nil
}

// IsTerminal reports whether the summary log has reached a state with no
// outgoing transitions.
func (s *SummaryLog) IsTerminal() bool {
	return len(transitions[s.Status]) == 0
}

// RecordValidation stores the outcome of one validation pass, replacing any
// issues from a previous pass.
func (s *SummaryLog) RecordValidation(meta map[string]spreadsheet.MetaField, issues []validation.Issue) {
	s.Meta = meta
	s.Issues = issues
	s.UpdatedAt = time.Now()
}

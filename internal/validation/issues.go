package validation

import (
	"fmt"
	"strings"

	"github.com/wastetrack/epr/internal/spreadsheet"
)

// Severity ranks how bad a validation issue is. Fatal issues stop the
// validation pass from progressing to the next layer.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Category identifies which validation layer raised an issue.
type Category string

const (
	CategoryParsing   Category = "parsing"
	CategoryTechnical Category = "technical"
	CategoryBusiness  Category = "business"
)

// Stable issue codes. Clients translate these; messages are for logs only.
const (
	CodeFieldRequired              = "FIELD_REQUIRED"
	CodeInvalidType                = "INVALID_TYPE"
	CodeValueOutOfRange            = "VALUE_OUT_OF_RANGE"
	CodeInvalidFormat              = "INVALID_FORMAT"
	CodeInvalidDate                = "INVALID_DATE"
	CodeMissingHeader              = "MISSING_REQUIRED_HEADER"
	CodeMissingRowID               = "MISSING_ROW_ID"
	CodeProcessingTypeMismatch     = "PROCESSING_TYPE_MISMATCH"
	CodeMaterialMismatch           = "MATERIAL_MISMATCH"
	CodeRegistrationMismatch       = "REGISTRATION_MISMATCH"
	CodeMissingAccreditationNumber = "MISSING_ACCREDITATION_NUMBER"
	CodeAccreditationMismatch      = "ACCREDITATION_MISMATCH"
	CodeUnexpectedAccreditation    = "UNEXPECTED_ACCREDITATION_NUMBER"
	CodeSequentialRowRemoved       = "SEQUENTIAL_ROW_REMOVED"
	CodeValidationFailed           = "VALIDATION_FAILED"
	CodeValidationSystemError      = "VALIDATION_SYSTEM_ERROR"
	CodeFileVirusDetected          = "FILE_VIRUS_DETECTED"
	CodeFileEmpty                  = "FILE_EMPTY"
	CodeFileTooLarge               = "FILE_TOO_LARGE"
	CodeFileWrongType              = "FILE_WRONG_TYPE"
	CodeFileUploadFailed           = "FILE_UPLOAD_FAILED"
	CodeFileDownloadFailed         = "FILE_DOWNLOAD_FAILED"
	CodeFileRejected               = "FILE_REJECTED"
)

// Context pins an issue to where it occurred in the submission.
type Context struct {
	Path     string                `json:"path,omitempty"`
	Location *spreadsheet.Location `json:"location,omitempty"`
	Field    string                `json:"field,omitempty"`
	Row      int                   `json:"row,omitempty"` // 1-based for user display
	RowID    string                `json:"rowId,omitempty"`
	Expected any                   `json:"expected,omitempty"`
	Actual   any                   `json:"actual,omitempty"`
}

// Issue is one structured validation finding. Issues are data, never errors:
// they are accumulated and persisted, not thrown.
type Issue struct {
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Context  *Context `json:"context,omitempty"`
}

// Issues collects validation findings in insertion order.
type Issues struct {
	list []Issue
}

func NewIssues() *Issues {
	return &Issues{}
}

func (s *Issues) Add(issue Issue) *Issues {
	s.list = append(s.list, issue)
	return s
}

func (s *Issues) AddFatal(category Category, code, message string, ctx *Context) *Issues {
	return s.Add(Issue{Severity: SeverityFatal, Category: category, Code: code, Message: message, Context: ctx})
}

func (s *Issues) AddError(category Category, code, message string, ctx *Context) *Issues {
	return s.Add(Issue{Severity: SeverityError, Category: category, Code: code, Message: message, Context: ctx})
}

func (s *Issues) AddWarning(category Category, code, message string, ctx *Context) *Issues {
	return s.Add(Issue{Severity: SeverityWarning, Category: category, Code: code, Message: message, Context: ctx})
}

// Merge appends every issue from other, preserving order. Merging cannot
// drop or overwrite previously collected issues.
func (s *Issues) Merge(other *Issues) *Issues {
	if other == nil {
		return s
	}
	s.list = append(s.list, other.list...)
	return s
}

// IsFatal reports whether any collected issue is fatal.
func (s *Issues) IsFatal() bool {
	for _, issue := range s.list {
		if issue.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// IsValid reports whether validation passed: no fatal and no error issues.
func (s *Issues) IsValid() bool {
	for _, issue := range s.list {
		if issue.Severity == SeverityFatal || issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (s *Issues) HasIssues() bool {
	return len(s.list) > 0
}

// All returns a copy of the collected issues in insertion order.
func (s *Issues) All() []Issue {
	out := make([]Issue, len(s.list))
	copy(out, s.list)
	return out
}

// BySeverity returns the issues matching one severity, in insertion order.
func (s *Issues) BySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range s.list {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// ByRow groups row-scoped issues by their 1-based row number.
func (s *Issues) ByRow() map[int][]Issue {
	byRow := map[int][]Issue{}
	for _, issue := range s.list {
		if issue.Context != nil && issue.Context.Row > 0 {
			byRow[issue.Context.Row] = append(byRow[issue.Context.Row], issue)
		}
	}
	return byRow
}

// Counts tallies issues per severity.
func (s *Issues) Counts() (fatal, errs, warnings int) {
	for _, issue := range s.list {
		switch issue.Severity {
		case SeverityFatal:
			fatal++
		case SeverityError:
			errs++
		case SeverityWarning:
			warnings++
		}
	}
	return fatal, errs, warnings
}

// Summary builds a one-line description suitable for logging.
func (s *Issues) Summary() string {
	fatal, errs, warnings := s.Counts()
	if fatal+errs+warnings == 0 {
		return "validation passed with no issues"
	}
	var parts []string
	if fatal > 0 {
		parts = append(parts, fmt.Sprintf("%d fatal", fatal))
	}
	if errs > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", errs))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", warnings))
	}
	return "validation completed with " + strings.Join(parts, ", ")
}

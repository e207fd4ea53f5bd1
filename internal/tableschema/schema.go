package tableschema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind selects the validation behaviour for a field.
type Kind string

const (
	KindRowID        Kind = "rowId"
	KindNumber       Kind = "number"
	KindWeight       Kind = "weight"
	KindPercentage   Kind = "percentage"
	KindDate         Kind = "date"
	KindYesNo        Kind = "yesNo"
	KindEnum         Kind = "enum"
	KindText         Kind = "text"
	KindThreeDigitID Kind = "threeDigitId"
)

// Violation codes, aligned with the validation issue codes persisted against
// a summary log.
const (
	CodeInvalidType     = "INVALID_TYPE"
	CodeValueOutOfRange = "VALUE_OUT_OF_RANGE"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeInvalidDate     = "INVALID_DATE"
)

const (
	defaultMaxWeight  = 1000
	defaultMaxTextLen = 100
	threeDigitMin     = 100
	threeDigitMax     = 999
)

var alphanumericPattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// dateLayouts covers the formats cells come back in once the workbook
// library has applied number formatting, plus ISO forms.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"01-02-06",
	"2-Jan-06",
}

// Violation is one failed field constraint.
type Violation struct {
	Code    string
	Message string
}

// FieldSchema is a declarative per-field rule. All fields are optional at
// this level: syntax validation only applies to filled cells, and presence
// requirements are expressed through RequiredHeaders on the table.
type FieldSchema struct {
	Kind     Kind
	Min      float64  // row id minimum
	Max      float64  // weight maximum override; zero means the default
	MaxLen   int      // text length cap; zero means the default
	Enum     []string // enum membership for KindEnum
	Unfilled []string // values treated as "not filled in" besides the empty string
}

// Filled reports whether a cell value counts as filled for this field.
func (f FieldSchema) Filled(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	for _, unfilled := range f.Unfilled {
		if value == unfilled {
			return false
		}
	}
	return true
}

// Validate checks a filled cell value against the field's constraints.
// Returns nil when the value is acceptable.
func (f FieldSchema) Validate(value string) *Violation {
	switch f.Kind {
	case KindRowID:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return &Violation{CodeInvalidType, "must be a whole number"}
		}
		if float64(n) < f.Min {
			return &Violation{CodeValueOutOfRange, fmt.Sprintf("must be at least %d", int(f.Min))}
		}
		return nil
	case KindNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return &Violation{CodeInvalidType, "must be a number"}
		}
		return nil
	case KindWeight:
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return &Violation{CodeInvalidType, "must be a number"}
		}
		max := f.Max
		if max == 0 {
			max = defaultMaxWeight
		}
		if n < 0 {
			return &Violation{CodeValueOutOfRange, "must be at least 0"}
		}
		if n > max {
			return &Violation{CodeValueOutOfRange, fmt.Sprintf("must be at most %v", max)}
		}
		return nil
	case KindPercentage:
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return &Violation{CodeInvalidType, "must be a number"}
		}
		if n < 0 || n > 1 {
			return &Violation{CodeValueOutOfRange, "must be between 0 and 1"}
		}
		return nil
	case KindDate:
		trimmed := strings.TrimSpace(value)
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, trimmed); err == nil {
				return nil
			}
		}
		return &Violation{CodeInvalidDate, "must be a valid date"}
	case KindYesNo:
		if value != "Yes" && value != "No" {
			return &Violation{CodeInvalidFormat, "must be Yes or No"}
		}
		return nil
	case KindEnum:
		for _, allowed := range f.Enum {
			if value == allowed {
				return nil
			}
		}
		return &Violation{CodeInvalidFormat, "is not one of the allowed values"}
	case KindText:
		maxLen := f.MaxLen
		if maxLen == 0 {
			maxLen = defaultMaxTextLen
		}
		if len(value) > maxLen {
			return &Violation{CodeValueOutOfRange, fmt.Sprintf("must be at most %d characters", maxLen)}
		}
		if !alphanumericPattern.MatchString(value) {
			return &Violation{CodeInvalidFormat, "must contain only letters, numbers and spaces"}
		}
		return nil
	case KindThreeDigitID:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || n < threeDigitMin || n > threeDigitMax {
			return &Violation{CodeInvalidFormat, "must be a 3 digit number"}
		}
		return nil
	default:
		return nil
	}
}

// BalanceFields names the columns the waste-balance calculation reads from a
// record of this table.
type BalanceFields struct {
	Tonnage   string
	Date      string
	PrnIssued string
}

// TableSchema describes one data section: which headers must be present,
// which field identifies the row, and how each cell is validated.
type TableSchema struct {
	Name            string
	RowIDField      string
	RequiredHeaders []string
	Fields          map[string]FieldSchema
	Balance         BalanceFields
}

// ForTable resolves the schema for a data section name. Unknown sections
// have no schema and are ignored by validation.
func ForTable(name string) (TableSchema, bool) {
	schema, ok := tables[name]
	return schema, ok
}

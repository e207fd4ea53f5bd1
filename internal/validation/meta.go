package validation

import (
	"fmt"
	"strconv"

	"github.com/wastetrack/epr/internal/spreadsheet"
)

// Metadata field names as tagged in the upload template.
const (
	MetaProcessingType      = "PROCESSING_TYPE"
	MetaTemplateVersion     = "TEMPLATE_VERSION"
	MetaMaterial            = "MATERIAL"
	MetaRegistrationNumber  = "REGISTRATION_NUMBER"
	MetaAccreditationNumber = "ACCREDITATION_NUMBER"
)

// minTemplateVersion is the oldest template the pipeline still accepts.
const minTemplateVersion = 1

const metaMaxLen = 50

// metaRule is one declarative constraint on a metadata field.
type metaRule struct {
	field      string
	required   bool
	enum       []string
	maxLen     int
	minVersion float64 // non-zero enables numeric minimum-version checking
}

var metaRules = []metaRule{
	{field: MetaProcessingType, required: true, enum: []string{"REPROCESSOR", "EXPORTER"}},
	{field: MetaTemplateVersion, required: true, minVersion: minTemplateVersion},
	{field: MetaMaterial, required: true, maxLen: metaMaxLen},
	{field: MetaRegistrationNumber, required: true, maxLen: metaMaxLen},
	{field: MetaAccreditationNumber, maxLen: metaMaxLen},
}

// ValidateMetaSyntax checks each metadata field against its declarative
// rule. Failures are fatal: without trustworthy metadata nothing downstream
// can be interpreted.
func ValidateMetaSyntax(meta map[string]spreadsheet.MetaField) *Issues {
	issues := NewIssues()

	for _, rule := range metaRules {
		field, present := meta[rule.field]
		if !present || field.Value == "" {
			if rule.required {
				issues.AddFatal(CategoryTechnical, CodeFieldRequired,
					fmt.Sprintf("metadata field %s is required", rule.field),
					&Context{Field: rule.field})
			}
			continue
		}

		ctx := &Context{Field: rule.field, Location: locationOf(field)}

		if len(rule.enum) > 0 && !contains(rule.enum, field.Value) {
			issues.AddFatal(CategoryTechnical, CodeInvalidFormat,
				fmt.Sprintf("metadata field %s has an unrecognised value", rule.field), ctx)
			continue
		}
		if rule.maxLen > 0 && len(field.Value) > rule.maxLen {
			issues.AddFatal(CategoryTechnical, CodeValueOutOfRange,
				fmt.Sprintf("metadata field %s exceeds %d characters", rule.field, rule.maxLen), ctx)
			continue
		}
		if rule.minVersion > 0 {
			version, err := strconv.ParseFloat(field.Value, 64)
			if err != nil {
				issues.AddFatal(CategoryTechnical, CodeInvalidType,
					fmt.Sprintf("metadata field %s must be a number", rule.field), ctx)
				continue
			}
			if version < rule.minVersion {
				issues.AddFatal(CategoryTechnical, CodeValueOutOfRange,
					fmt.Sprintf("template version %s is no longer supported", field.Value), ctx)
			}
		}
	}

	return issues
}

// RegistrationDetails carries the recorded attributes of the registration a
// submission targets, flattened for cross-checking against metadata.
type RegistrationDetails struct {
	ProcessingType      string
	Material            string
	RegistrationNumber  string
	HasAccreditation    bool
	AccreditationNumber string
}

// ValidateMetaBusiness cross-checks submission metadata against the target
// registration. Mismatches are fatal; a submission filed against the wrong
// registration must never reach data validation.
func ValidateMetaBusiness(meta map[string]spreadsheet.MetaField, registration RegistrationDetails) *Issues {
	issues := NewIssues()

	if field, ok := meta[MetaProcessingType]; ok && field.Value != registration.ProcessingType {
		issues.AddFatal(CategoryBusiness, CodeProcessingTypeMismatch,
			"submission processing type does not match the registration",
			&Context{Field: MetaProcessingType, Location: locationOf(field),
				Expected: registration.ProcessingType, Actual: field.Value})
	}
	if field, ok := meta[MetaMaterial]; ok && field.Value != registration.Material {
		issues.AddFatal(CategoryBusiness, CodeMaterialMismatch,
			"submission material does not match the registration",
			&Context{Field: MetaMaterial, Location: locationOf(field),
				Expected: registration.Material, Actual: field.Value})
	}
	if field, ok := meta[MetaRegistrationNumber]; ok && field.Value != registration.RegistrationNumber {
		issues.AddFatal(CategoryBusiness, CodeRegistrationMismatch,
			"submission registration number does not match the registration",
			&Context{Field: MetaRegistrationNumber, Location: locationOf(field),
				Expected: registration.RegistrationNumber, Actual: field.Value})
	}

	accreditation, hasNumber := meta[MetaAccreditationNumber]
	if hasNumber && accreditation.Value == "" {
		hasNumber = false
	}
	switch {
	case registration.HasAccreditation && !hasNumber:
		issues.AddFatal(CategoryBusiness, CodeMissingAccreditationNumber,
			"the registration is accredited but the submission carries no accreditation number",
			&Context{Field: MetaAccreditationNumber})
	case registration.HasAccreditation && accreditation.Value != registration.AccreditationNumber:
		issues.AddFatal(CategoryBusiness, CodeAccreditationMismatch,
			"submission accreditation number does not match the registration's accreditation",
			&Context{Field: MetaAccreditationNumber, Location: locationOf(accreditation),
				Expected: registration.AccreditationNumber, Actual: accreditation.Value})
	case !registration.HasAccreditation && hasNumber:
		issues.AddWarning(CategoryBusiness, CodeUnexpectedAccreditation,
			"the submission carries an accreditation number but the registration is not accredited",
			&Context{Field: MetaAccreditationNumber, Location: locationOf(accreditation),
				Actual: accreditation.Value})
	}

	return issues
}

func locationOf(field spreadsheet.MetaField) *spreadsheet.Location {
	if field.Location == (spreadsheet.Location{}) {
		return nil
	}
	loc := field.Location
	return &loc
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

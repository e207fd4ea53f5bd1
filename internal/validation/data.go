package validation

import (
	"fmt"

	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/tableschema"
)

// ValidateDataSyntax validates every recognised data section of a parsed
// workbook: required headers first, then each row against the table's field
// schemas. A missing required header is fatal because row values cannot be
// trusted without their headers; row-level findings are errors that
// accumulate without aborting the pass.
func ValidateDataSyntax(wb *spreadsheet.Workbook) *Issues {
	issues := NewIssues()

	for name, table := range wb.Data {
		schema, ok := tableschema.ForTable(name)
		if !ok {
			continue
		}
		validateTable(issues, name, table, schema)
	}

	return issues
}

func validateTable(issues *Issues, name string, table spreadsheet.Table, schema tableschema.TableSchema) {
	missingHeader := false
	for _, header := range schema.RequiredHeaders {
		if !table.HasHeader(header) {
			missingHeader = true
			loc := table.Location
			issues.AddFatal(CategoryTechnical, CodeMissingHeader,
				fmt.Sprintf("table %s is missing required header %s", name, header),
				&Context{Path: name, Field: header, Location: &loc})
		}
	}
	if missingHeader {
		return
	}

	for i := range table.Rows {
		validateRow(issues, name, table, schema, i)
	}
}

func validateRow(issues *Issues, name string, table spreadsheet.Table, schema tableschema.TableSchema, rowIdx int) {
	row := table.RowMap(rowIdx)
	rowNum := rowIdx + 1
	rowID := row[schema.RowIDField]

	if rowID == "" {
		issues.AddError(CategoryTechnical, CodeMissingRowID,
			fmt.Sprintf("table %s row %d has no row identifier", name, rowNum),
			&Context{Path: name, Field: schema.RowIDField, Row: rowNum,
				Location: cellLocation(table, schema.RowIDField, rowNum)})
		return
	}

	for _, field := range schema.RequiredHeaders {
		fieldSchema, ok := schema.Fields[field]
		if !ok {
			continue
		}

		value := row[field]
		ctx := &Context{Path: name, Field: field, Row: rowNum, RowID: rowID,
			Location: cellLocation(table, field, rowNum)}

		if !fieldSchema.Filled(value) {
			issues.AddError(CategoryTechnical, CodeFieldRequired,
				fmt.Sprintf("table %s row %d: %s must be filled in", name, rowNum, field), ctx)
			continue
		}
		if violation := fieldSchema.Validate(value); violation != nil {
			issues.AddError(CategoryTechnical, violation.Code,
				fmt.Sprintf("table %s row %d: %s %s", name, rowNum, field, violation.Message), ctx)
		}
	}
}

// cellLocation pins a field in a data row to its worksheet cell. The table
// location points at the first header; data rows start one below it.
func cellLocation(table spreadsheet.Table, field string, rowNum int) *spreadsheet.Location {
	offset := -1
	for i, header := range table.Headers {
		if header == field {
			offset = i
			break
		}
	}
	if offset < 0 {
		return nil
	}
	column, err := spreadsheet.OffsetColumn(table.Location.Column, offset)
	if err != nil {
		return nil
	}
	return &spreadsheet.Location{
		Sheet:  table.Location.Sheet,
		Row:    table.Location.Row + rowNum,
		Column: column,
	}
}

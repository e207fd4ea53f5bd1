package transform

import (
	"fmt"
	"maps"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/tableschema"
)

// FieldProcessingType is the annotation key added to every transformed row's
// data so a waste record remembers the role it was submitted under.
const FieldProcessingType = "PROCESSING_TYPE"

// TransformedRow is the normalized waste-record fragment produced from one
// parsed table row.
type TransformedRow struct {
	Type  domain.WasteRecordType
	RowID string
	Data  map[string]string
}

// RowTransformError reports a row that could not be normalized. RowIndex is
// 1-based to match how rows are shown to the uploader.
type RowTransformError struct {
	Table    string
	RowIndex int
	Field    string
}

func (e *RowTransformError) Error() string {
	return fmt.Sprintf("table %s row %d: missing required field %s", e.Table, e.RowIndex, e.Field)
}

// recordTypes maps each data section to the waste-record type its rows
// become, per processing type. A table not listed for a processing type is
// not submittable under that role.
var recordTypes = map[domain.ProcessingType]map[string]domain.WasteRecordType{
	domain.ProcessingReprocessor: {
		tableschema.TableReceivedLoads:  domain.WasteRecordReceived,
		tableschema.TableProcessedLoads: domain.WasteRecordProcessed,
		tableschema.TableSentOnLoads:    domain.WasteRecordSentOn,
	},
	domain.ProcessingExporter: {
		tableschema.TableReceivedLoads: domain.WasteRecordReceived,
		tableschema.TableExportedLoads: domain.WasteRecordExported,
	},
}

// tablesByType is the inverse mapping: which data section a record type's
// rows originate from.
var tablesByType = map[domain.WasteRecordType]string{
	domain.WasteRecordReceived:  tableschema.TableReceivedLoads,
	domain.WasteRecordProcessed: tableschema.TableProcessedLoads,
	domain.WasteRecordSentOn:    tableschema.TableSentOnLoads,
	domain.WasteRecordExported:  tableschema.TableExportedLoads,
}

// TableForType resolves the data section a waste-record type's rows come
// from.
func TableForType(recordType domain.WasteRecordType) (string, bool) {
	table, ok := tablesByType[recordType]
	return table, ok
}

// RecordType resolves the waste-record type for a (table, processingType)
// pair, or false when the pair is not supported.
func RecordType(table string, processingType domain.ProcessingType) (domain.WasteRecordType, bool) {
	recordType, ok := recordTypes[processingType][table]
	return recordType, ok
}

// Row normalizes one parsed row into a waste-record fragment. rowIndex is
// the row's 1-based position within its table. The row's identifier field
// must be present and filled; everything else passes through annotated with
// the processing type.
func Row(table string, processingType domain.ProcessingType, row map[string]string, rowIndex int) (TransformedRow, error) {
	recordType, ok := RecordType(table, processingType)
	if !ok {
		return TransformedRow{}, fmt.Errorf("table %s is not submittable under processing type %s", table, processingType)
	}

	schema, ok := tableschema.ForTable(table)
	if !ok {
		return TransformedRow{}, fmt.Errorf("no schema for table %s", table)
	}

	rowID := row[schema.RowIDField]
	if rowID == "" {
		return TransformedRow{}, &RowTransformError{Table: table, RowIndex: rowIndex, Field: schema.RowIDField}
	}

	data := maps.Clone(row)
	data[FieldProcessingType] = string(processingType)

	return TransformedRow{Type: recordType, RowID: rowID, Data: data}, nil
}

// Table normalizes every row of a parsed data section. A row that fails to
// transform is reported through errs and skipped; the remaining rows are
// still returned, so one malformed row never hides the rest of the table.
func Table(name string, table spreadsheet.Table, processingType domain.ProcessingType) (rows []TransformedRow, errs []error) {
	for i := range table.Rows {
		transformed, err := Row(name, processingType, table.RowMap(i), i+1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, transformed)
	}
	return rows, errs
}

// Workbook normalizes every recognised data section of a parsed workbook.
// Sections with no schema for the given processing type are ignored.
func Workbook(wb *spreadsheet.Workbook, processingType domain.ProcessingType) (rows []TransformedRow, errs []error) {
	for name, table := range wb.Data {
		if _, ok := RecordType(name, processingType); !ok {
			continue
		}
		tableRows, tableErrs := Table(name, table, processingType)
		rows = append(rows, tableRows...)
		errs = append(errs, tableErrs...)
	}
	return rows, errs
}

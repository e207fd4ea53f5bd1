package spreadsheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Template markers. The upload templates tag every region of interest so the
// parser never depends on fixed cell addresses surviving template edits.
const (
	metaMarkerPrefix = "__EPR_META_"
	dataMarkerPrefix = "__EPR_DATA_"
	skipColumnMarker = "__EPR_SKIP_COLUMN"
)

// ParseError reports an unreadable or structurally malformed workbook.
// It is always fatal: nothing downstream can run without a parsed workbook.
type ParseError struct {
	Code    string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Parse error codes, stable for client-side translation.
const (
	CodeWorkbookUnreadable = "WORKBOOK_UNREADABLE"
	CodeDuplicateMetadata  = "DUPLICATE_METADATA"
	CodeDuplicateTable     = "DUPLICATE_TABLE"
	CodeMalformedMetadata  = "MALFORMED_METADATA"
)

// Location identifies a cell or region in the source workbook.
type Location struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// MetaField is one extracted metadata value together with where it was found.
type MetaField struct {
	Value    string   `json:"value"`
	Location Location `json:"location"`
}

// Table is one extracted data section. Headers are positional; a skipped
// column is recorded as an empty string so row values keep their offsets.
// Rows hold the raw cell text; empty cells are empty strings.
type Table struct {
	Location Location   `json:"location"`
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
}

// RowMap returns the i-th data row keyed by header name. Cells under a
// skipped column have no header and are left out.
func (t Table) RowMap(i int) map[string]string {
	row := t.Rows[i]
	out := make(map[string]string, len(t.Headers))
	for j, header := range t.Headers {
		if header == "" {
			continue
		}
		if j < len(row) {
			out[header] = row[j]
		} else {
			out[header] = ""
		}
	}
	return out
}

// HasHeader reports whether the table carries the named header.
func (t Table) HasHeader(name string) bool {
	for _, header := range t.Headers {
		if header == name {
			return true
		}
	}
	return false
}

// Workbook is the parsed form of a summary log upload: named metadata fields
// plus named data tables.
type Workbook struct {
	Meta map[string]MetaField `json:"meta"`
	Data map[string]Table     `json:"data"`
}

// tableCollector accumulates rows for one data section until it sees an
// empty row or the worksheet ends.
type tableCollector struct {
	name     string
	startCol int // 0-based index of the first header column
	headers  []string
	rows     [][]string
	location Location
}

// Parse reads a workbook buffer and extracts all marked metadata fields and
// data tables across every worksheet.
//
// Recognised markers:
//   - __EPR_META_<NAME>: the cell immediately to the right holds the value
//   - __EPR_DATA_<NAME>: headers follow on the same row, data rows below
//   - __EPR_SKIP_COLUMN: header placeholder for a column with no name
//
// A data section ends at the first row whose cells are all empty, or at the
// end of the worksheet. Duplicate metadata or section names are malformed.
func Parse(buffer []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buffer))
	if err != nil {
		return nil, &ParseError{
			Code:    CodeWorkbookUnreadable,
			Message: fmt.Sprintf("failed to open workbook: %v", err),
		}
	}
	defer func() { _ = f.Close() }()

	result := &Workbook{
		Meta: map[string]MetaField{},
		Data: map[string]Table{},
	}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, &ParseError{
				Code:    CodeWorkbookUnreadable,
				Message: fmt.Sprintf("failed to read rows from sheet %q: %v", sheet, err),
			}
		}
		if err := parseSheet(sheet, rows, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func parseSheet(sheet string, rows [][]string, result *Workbook) error {
	var active []*tableCollector

	for rowIdx, row := range rows {
		// Feed this row to collectors opened on earlier rows first so a
		// section's own marker row is never consumed as data.
		remaining := active[:0]
		for _, c := range active {
			if c.collectRow(row) {
				remaining = append(remaining, c)
			} else if err := emitTable(c, result); err != nil {
				return err
			}
		}
		active = remaining

		for colIdx, cell := range row {
			value := strings.TrimSpace(cell)
			switch {
			case strings.HasPrefix(value, metaMarkerPrefix):
				field, name, err := extractMetaField(sheet, row, rowIdx, colIdx)
				if err != nil {
					return err
				}
				if _, exists := result.Meta[name]; exists {
					return &ParseError{
						Code:    CodeDuplicateMetadata,
						Message: fmt.Sprintf("duplicate metadata name: %s", name),
					}
				}
				result.Meta[name] = field
			case strings.HasPrefix(value, dataMarkerPrefix):
				c := newTableCollector(sheet, row, rowIdx, colIdx)
				active = append(active, c)
			}
		}
	}

	// Worksheet ended with sections still open.
	for _, c := range active {
		if err := emitTable(c, result); err != nil {
			return err
		}
	}
	return nil
}

func extractMetaField(sheet string, row []string, rowIdx, colIdx int) (MetaField, string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(row[colIdx]), metaMarkerPrefix)

	value := ""
	if colIdx+1 < len(row) {
		value = strings.TrimSpace(row[colIdx+1])
	}
	if strings.HasPrefix(value, metaMarkerPrefix) {
		return MetaField{}, "", &ParseError{
			Code:    CodeMalformedMetadata,
			Message: "malformed sheet: metadata marker found in value position",
		}
	}

	return MetaField{
		Value: value,
		Location: Location{
			Sheet:  sheet,
			Row:    rowIdx + 1,
			Column: ColumnNumberToLetter(colIdx + 2),
		},
	}, name, nil
}

func newTableCollector(sheet string, row []string, rowIdx, colIdx int) *tableCollector {
	c := &tableCollector{
		name:     strings.TrimPrefix(strings.TrimSpace(row[colIdx]), dataMarkerPrefix),
		startCol: colIdx + 1,
		location: Location{
			Sheet:  sheet,
			Row:    rowIdx + 1,
			Column: ColumnNumberToLetter(colIdx + 2),
		},
	}

	// Headers run right from the marker until the first empty cell.
	for i := c.startCol; i < len(row); i++ {
		header := strings.TrimSpace(row[i])
		if header == "" {
			break
		}
		if header == skipColumnMarker {
			c.headers = append(c.headers, "")
		} else {
			c.headers = append(c.headers, header)
		}
	}
	return c
}

// collectRow appends the cells under this collector's columns. It returns
// false when the row is empty across all columns, which terminates the table.
func (c *tableCollector) collectRow(row []string) bool {
	values := make([]string, len(c.headers))
	empty := true
	for i := range c.headers {
		col := c.startCol + i
		if col < len(row) {
			values[i] = strings.TrimSpace(row[col])
		}
		if values[i] != "" {
			empty = false
		}
	}
	if empty {
		return false
	}
	c.rows = append(c.rows, values)
	return true
}

func emitTable(c *tableCollector, result *Workbook) error {
	if _, exists := result.Data[c.name]; exists {
		return &ParseError{
			Code:    CodeDuplicateTable,
			Message: fmt.Sprintf("duplicate data section name: %s", c.name),
		}
	}
	result.Data[c.name] = Table{
		Location: c.location,
		Headers:  c.headers,
		Rows:     c.rows,
	}
	return nil
}

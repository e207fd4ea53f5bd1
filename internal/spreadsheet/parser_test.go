package spreadsheet

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, cells map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for ref, value := range cells {
		if err := f.SetCellValue("Sheet1", ref, value); err != nil {
			t.Fatalf("failed to set cell %s: %v", ref, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseMetadata(t *testing.T) {
	buffer := buildWorkbook(t, map[string]string{
		"A1": "__EPR_META_PROCESSING_TYPE",
		"B1": "REPROCESSOR_INPUT",
		"A2": "__EPR_META_WASTE_REGISTRATION_NUMBER",
		"B2": "WRN-001",
	})

	parsed, err := Parse(buffer)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	pt, ok := parsed.Meta["PROCESSING_TYPE"]
	if !ok {
		t.Fatal("PROCESSING_TYPE metadata not extracted")
	}
	if pt.Value != "REPROCESSOR_INPUT" {
		t.Errorf("expected REPROCESSOR_INPUT, got %q", pt.Value)
	}
	if pt.Location.Sheet != "Sheet1" || pt.Location.Row != 1 || pt.Location.Column != "B" {
		t.Errorf("unexpected location: %+v", pt.Location)
	}

	if parsed.Meta["WASTE_REGISTRATION_NUMBER"].Value != "WRN-001" {
		t.Errorf("expected WRN-001, got %q", parsed.Meta["WASTE_REGISTRATION_NUMBER"].Value)
	}
}

func TestParseDataSection(t *testing.T) {
	buffer := buildWorkbook(t, map[string]string{
		"A1": "__EPR_DATA_RECEIVED_LOADS_FOR_REPROCESSING",
		"B1": "ROW_ID",
		"C1": "__EPR_SKIP_COLUMN",
		"D1": "GROSS_WEIGHT",
		"B2": "1001",
		"C2": "note",
		"D2": "12.5",
		"B3": "1002",
		"D3": "7",
		// B4 empty row terminates the table
		"B5": "ignored",
	})

	parsed, err := Parse(buffer)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	table, ok := parsed.Data["RECEIVED_LOADS_FOR_REPROCESSING"]
	if !ok {
		t.Fatal("data section not extracted")
	}

	expectedHeaders := []string{"ROW_ID", "", "GROSS_WEIGHT"}
	if len(table.Headers) != len(expectedHeaders) {
		t.Fatalf("expected %d headers, got %d: %v", len(expectedHeaders), len(table.Headers), table.Headers)
	}
	for i, h := range expectedHeaders {
		if table.Headers[i] != h {
			t.Errorf("header %d: expected %q, got %q", i, h, table.Headers[i])
		}
	}

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(table.Rows), table.Rows)
	}
	if table.Rows[0][0] != "1001" || table.Rows[0][2] != "12.5" {
		t.Errorf("unexpected first row: %v", table.Rows[0])
	}
	if table.Rows[1][0] != "1002" || table.Rows[1][2] != "7" {
		t.Errorf("unexpected second row: %v", table.Rows[1])
	}

	if table.Location.Row != 1 || table.Location.Column != "B" {
		t.Errorf("unexpected table location: %+v", table.Location)
	}
}

func TestParseMixedMetaAndData(t *testing.T) {
	buffer := buildWorkbook(t, map[string]string{
		"A1": "__EPR_META_TEMPLATE_VERSION",
		"B1": "3",
		"A3": "__EPR_DATA_SENT_ON_LOADS",
		"B3": "ROW_ID",
		"C3": "TONNAGE",
		"B4": "2001",
		"C4": "5.25",
	})

	parsed, err := Parse(buffer)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed.Meta["TEMPLATE_VERSION"].Value != "3" {
		t.Errorf("expected template version 3, got %q", parsed.Meta["TEMPLATE_VERSION"].Value)
	}
	if len(parsed.Data["SENT_ON_LOADS"].Rows) != 1 {
		t.Errorf("expected 1 data row, got %d", len(parsed.Data["SENT_ON_LOADS"].Rows))
	}
}

func TestParseDuplicateMetadata(t *testing.T) {
	buffer := buildWorkbook(t, map[string]string{
		"A1": "__EPR_META_MATERIAL",
		"B1": "Paper",
		"A2": "__EPR_META_MATERIAL",
		"B2": "Glass",
	})

	_, err := Parse(buffer)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Code != CodeDuplicateMetadata {
		t.Errorf("expected %s, got %s", CodeDuplicateMetadata, parseErr.Code)
	}
}

func TestParseMetaMarkerInValuePosition(t *testing.T) {
	buffer := buildWorkbook(t, map[string]string{
		"A1": "__EPR_META_MATERIAL",
		"B1": "__EPR_META_OTHER",
	})

	_, err := Parse(buffer)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Code != CodeMalformedMetadata {
		t.Errorf("expected %s, got %s", CodeMalformedMetadata, parseErr.Code)
	}
}

func TestParseGarbageBuffer(t *testing.T) {
	_, err := Parse([]byte("not a workbook"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Code != CodeWorkbookUnreadable {
		t.Errorf("expected %s, got %s", CodeWorkbookUnreadable, parseErr.Code)
	}
}

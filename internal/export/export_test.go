package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/fincache-tui/internal/config"
)

type staticSettings config.Settings

func (s staticSettings) Current() config.Settings { return config.Settings(s) }

var (
	testHeaders = []string{"date", "close", "label"}
	testRows    = [][]string{
		{"2024-01-03", "184.25", "Jan 3"},
		{"2024-01-02", "185.64", ""},
	}
	testTime = time.Date(2024, 1, 5, 14, 3, 9, 0, time.Local)
)

func newExporter(t *testing.T, format config.ExportFormat) (*Exporter, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "exports")
	s := staticSettings{ExportDir: dir, ExportFormat: format}
	return New(s, clockwork.NewFakeClockAt(testTime)), dir
}

func TestExport_CSV(t *testing.T) {
	e, dir := newExporter(t, config.FormatCSV)

	path, err := e.Export("AAPL_price", testHeaders, testRows)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	want := filepath.Join(dir, "AAPL_price_20240105_140309.csv")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(append([][]string{testHeaders}, testRows...), records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_XLSX(t *testing.T) {
	e, dir := newExporter(t, config.FormatXLSX)

	path, err := e.Export("gdp_economic", testHeaders, testRows)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".xlsx" {
		t.Errorf("path = %q", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if diff := cmp.Diff(testHeaders, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if rows[1][0] != "2024-01-03" || rows[1][1] != "184.25" {
		t.Errorf("first data row = %v", rows[1])
	}

	typ, err := f.GetCellType(sheetName, "B2")
	if err != nil {
		t.Fatal(err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Error("numeric value stored as text")
	}
}

func TestExport_InvalidFormatFallsBack(t *testing.T) {
	e, _ := newExporter(t, config.ExportFormat("pdf"))

	path, err := e.Export("AAPL_esg", testHeaders, nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".xlsx" {
		t.Errorf("path = %q, want .xlsx", path)
	}
}

func TestExport_DirectoryError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	e := New(staticSettings{ExportDir: filepath.Join(blocker, "out"), ExportFormat: config.FormatCSV}, nil)
	if _, err := e.Export("AAPL_price", testHeaders, testRows); err == nil {
		t.Error("expected error when export dir cannot be created")
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"185.64", 185.64},
		{"-3", -3.0},
		{"0", 0.0},
		{"0.25", 0.25},
		{"9007199254740992", 9007199254740992.0},
		{"2024-01-02", "2024-01-02"},
		{"0000320193", "0000320193"},
		{"-007", "-007"},
		{"9007199254740993", "9007199254740993"},
		{"123456789012345678901234", "123456789012345678901234"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := cellValue(tt.in); got != tt.want {
				t.Errorf("cellValue(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

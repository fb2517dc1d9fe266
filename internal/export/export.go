// Package export writes tables to timestamped CSV or XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/logger"
)

const (
	sheetName       = "Sheet1"
	timestampLayout = "20060102_150405"
)

// SettingsProvider supplies the current export settings.
type SettingsProvider interface {
	Current() config.Settings
}

// Exporter writes files into the configured export directory.
type Exporter struct {
	settings SettingsProvider
	clock    clockwork.Clock
}

// New creates an Exporter. A nil clock uses the wall clock.
func New(settings SettingsProvider, clock clockwork.Clock) *Exporter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Exporter{settings: settings, clock: clock}
}

// Export writes headers and rows to {dir}/{base}_{YYYYMMDD_HHMMSS}.{format}
// and returns the file path.
func (e *Exporter) Export(base string, headers []string, rows [][]string) (string, error) {
	s := e.settings.Current()

	if err := os.MkdirAll(s.ExportDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	format := s.ExportFormat
	if !format.Valid() {
		format = config.FormatXLSX
	}

	name := fmt.Sprintf("%s_%s.%s", base, e.clock.Now().Format(timestampLayout), format)
	path := filepath.Join(s.ExportDir, name)

	var err error
	switch format {
	case config.FormatCSV:
		err = writeCSV(path, headers, rows)
	default:
		err = writeXLSX(path, headers, rows)
	}
	if err != nil {
		return "", err
	}

	logger.Info("exported", "path", path, "rows", len(rows))
	return path, nil
}

func writeCSV(path string, headers []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func writeXLSX(path string, headers []string, rows [][]string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Error("failed to close workbook", "error", cerr)
		}
	}()

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// maxExactInt is the largest integer a float64 holds without rounding.
var maxExactInt = decimal.NewFromInt(1 << 53)

// cellValue stores numeric strings as numbers so spreadsheets can sum them.
// Zero-padded identifiers and integers beyond float64 precision stay text.
func cellValue(s string) any {
	d, err := decimal.NewFromString(s)
	if err != nil || zeroPadded(s) {
		return s
	}
	if d.IsInteger() && d.Abs().GreaterThan(maxExactInt) {
		return s
	}
	return d.InexactFloat64()
}

// zeroPadded reports whether s has a leading zero before another digit,
// as in a CIK like 0000320193.
func zeroPadded(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

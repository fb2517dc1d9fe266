package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExportFormat is the file type written by exports.
type ExportFormat string

// Supported export formats.
const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// Setting keys as they appear in config.json.
const (
	KeyDatabasePath = "database_path"
	KeyExportFormat = "export_format"
	KeyExportDir    = "export_dir"
)

var (
	// ErrUnknownKey is returned when setting a key that does not exist.
	ErrUnknownKey = errors.New("unknown setting")
	// ErrInvalidFormat is returned for an export format other than csv or xlsx.
	ErrInvalidFormat = errors.New("export format must be csv or xlsx")
	// ErrEmptyValue is returned when a setting is cleared.
	ErrEmptyValue = errors.New("value must not be empty")
)

// Settings is the user-editable configuration persisted in config.json.
type Settings struct {
	DatabasePath string       `json:"database_path"`
	ExportFormat ExportFormat `json:"export_format"`
	ExportDir    string       `json:"export_dir"`
}

// DefaultSettings returns the settings written when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		DatabasePath: "financial_data.db",
		ExportFormat: FormatXLSX,
		ExportDir:    "exports",
	}
}

// Keys returns the setting keys in display order.
func Keys() []string {
	return []string{KeyDatabasePath, KeyExportFormat, KeyExportDir}
}

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// Get returns the value stored under key.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyDatabasePath:
		return s.DatabasePath, nil
	case KeyExportFormat:
		return string(s.ExportFormat), nil
	case KeyExportDir:
		return s.ExportDir, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set validates value and stores it under key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s: %w", key, ErrEmptyValue)
	}

	switch key {
	case KeyDatabasePath:
		s.DatabasePath = value
	case KeyExportFormat:
		f := ExportFormat(strings.ToLower(value))
		if !f.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidFormat, value)
		}
		s.ExportFormat = f
	case KeyExportDir:
		s.ExportDir = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// normalize fills missing values with defaults and reports whether anything
// changed.
func (s *Settings) normalize() bool {
	def := DefaultSettings()
	changed := false

	if s.DatabasePath == "" {
		s.DatabasePath = def.DatabasePath
		changed = true
	}
	if f := ExportFormat(strings.ToLower(string(s.ExportFormat))); f.Valid() {
		if f != s.ExportFormat {
			s.ExportFormat = f
			changed = true
		}
	} else {
		s.ExportFormat = def.ExportFormat
		changed = true
	}
	if s.ExportDir == "" {
		s.ExportDir = def.ExportDir
		changed = true
	}
	return changed
}

// LoadSettings reads the settings file at path. A missing or malformed file
// is replaced with defaults, and missing or invalid keys are filled in and
// written back.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := DefaultSettings()
		return s, SaveSettings(path, s)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s, changed, err := ParseSettings(data)
	if err != nil {
		s = DefaultSettings()
		return s, SaveSettings(path, s)
	}

	if changed {
		return s, SaveSettings(path, s)
	}
	return s, nil
}

// ParseSettings decodes a settings document and fills missing or invalid
// values with defaults. changed reports whether any value was filled in.
func ParseSettings(data []byte) (s Settings, changed bool, err error) {
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, false, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, s.normalize(), nil
}

// SaveSettings writes s to path as indented JSON.
func SaveSettings(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

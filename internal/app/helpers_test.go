package app

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/j-veylop/fincache-tui/internal/config"
	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/services"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

const esgBody = `[{"date":"2024-01-01","environmentalScore":61.5,"socialScore":40,"governanceScore":55,"total":52}]`

// newTestManager builds a manager over a temp store whose API always
// answers with esgBody.
func newTestManager(t *testing.T) *services.Manager {
	t.Helper()
	dir := t.TempDir()

	settingsPath := filepath.Join(dir, "config.json")
	err := config.SaveSettings(settingsPath, config.Settings{
		DatabasePath: filepath.Join(dir, "financial_data.db"),
		ExportFormat: config.FormatCSV,
		ExportDir:    filepath.Join(dir, "exports"),
	})
	if err != nil {
		t.Fatal(err)
	}

	transport := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(esgBody))}, nil
	})

	mgr, err := services.NewManager(
		&config.Config{APIKey: "test", BaseURL: "https://api.test", SettingsPath: settingsPath},
		services.WithTransport(transport),
		services.WithNotifier(func(string, string) error { return nil }),
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func mustLookup(t *testing.T, category string) endpoints.Descriptor {
	t.Helper()
	d, err := endpoints.Lookup(category)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func fetchESG(t *testing.T, mgr *services.Manager, symbol string) {
	t.Helper()
	if _, err := mgr.Refresh(context.Background(), mustLookup(t, "esg"), symbol); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
}

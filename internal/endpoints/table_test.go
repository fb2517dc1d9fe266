package endpoints

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func TestPrepare(t *testing.T) {
	price, _ := Lookup("price")
	revenue, _ := Lookup("revenue")
	esg, _ := Lookup("esg")

	tests := []struct {
		name    string
		desc    Descriptor
		body    string
		want    string
		wantErr error
	}{
		{"Passthrough", esg, `[{"date":"2024-01-01","total":42}]`, `[{"date":"2024-01-01","total":42}]`, nil},
		{"EmptyArray", esg, `[]`, "", ErrNoData},
		{"EmptyObject", esg, `{}`, "", ErrNoData},
		{"Null", esg, `null`, "", ErrNoData},
		{"Extract", price, `{"symbol":"AAPL","historical":[{"date":"2024-01-02","close":185.64}]}`, `[{"date":"2024-01-02","close":185.64}]`, nil},
		{"ExtractMissing", price, `{"symbol":"AAPL"}`, "", ErrNoData},
		{"ExtractEmpty", price, `{"symbol":"AAPL","historical":[]}`, "", ErrNoData},
		{"RequireKeepsWhole", revenue, `{"symbol":"AAPL","breakdown":{"2023":{"iPhone":1}}}`, `{"symbol":"AAPL","breakdown":{"2023":{"iPhone":1}}}`, nil},
		{"RequireMissing", revenue, `{"symbol":"AAPL"}`, "", ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.desc.Prepare(decode(t, tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Prepare() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if diff := cmp.Diff(decode(t, tt.want), got); diff != "" {
				t.Errorf("Prepare() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTable_SortsAndFiltersColumns(t *testing.T) {
	income, _ := Lookup("income")
	payload := decode(t, `[
		{"date":"2022-09-24","revenue":394328000000,"netIncome":99803000000},
		{"date":"2023-09-30","revenue":383285000000,"netIncome":96995000000,"eps":6.13}
	]`)

	table, err := income.Table("AAPL", payload)
	if err != nil {
		t.Fatalf("Table() failed: %v", err)
	}

	var headers []string
	for _, c := range table.Columns {
		headers = append(headers, c.Header)
	}
	// grossProfit is absent from the data.
	if diff := cmp.Diff([]string{"Date", "Revenue", "Net Income", "EPS"}, headers); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	rows := table.Rows(0)
	want := [][]string{
		{"2023-09-30", "383,285,000,000", "96,995,000,000", "6.13"},
		{"2022-09-24", "394,328,000,000", "99,803,000,000", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if got := table.Rows(1); len(got) != 1 {
		t.Errorf("Rows(1) returned %d rows", len(got))
	}
	if table.Title != "Income Statement for AAPL" {
		t.Errorf("Title = %q", table.Title)
	}
}

func TestTable_ViewObject(t *testing.T) {
	outlook, _ := Lookup("outlook")
	payload := decode(t, `{"profile":{"companyName":"Apple Inc.","price":189.98,"mktCap":2950000000000},"ratios":[]}`)

	table, err := outlook.Table("AAPL", payload)
	if err != nil {
		t.Fatalf("Table() failed: %v", err)
	}
	want := [][]string{{"Apple Inc.", "189.98", "2,950,000,000,000"}}
	if diff := cmp.Diff(want, table.Rows(0)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if _, err := outlook.Table("AAPL", decode(t, `{"ratios":[]}`)); !errors.Is(err, ErrNoData) {
		t.Errorf("missing profile error = %v, want ErrNoData", err)
	}
}

func TestTable_Flatten(t *testing.T) {
	revenue, _ := Lookup("revenue")
	payload := decode(t, `{"breakdown":{
		"2022":{"Mac":40177000000,"iPhone":205489000000},
		"2023":{"iPhone":200583000000}
	}}`)

	table, err := revenue.Table("AAPL", payload)
	if err != nil {
		t.Fatalf("Table() failed: %v", err)
	}

	want := [][]string{
		{"2023", "iPhone", "200,583,000,000"},
		{"2022", "Mac", "40,177,000,000"},
		{"2022", "iPhone", "205,489,000,000"},
	}
	if diff := cmp.Diff(want, table.Rows(0)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_NoColumns(t *testing.T) {
	esg, _ := Lookup("esg")
	_, err := esg.Table("AAPL", decode(t, `[{"unrelated":1}]`))
	if !errors.Is(err, ErrNoColumns) {
		t.Errorf("Table() error = %v, want ErrNoColumns", err)
	}
}

func TestTable_Empty(t *testing.T) {
	esg, _ := Lookup("esg")
	if _, err := esg.Table("AAPL", decode(t, `[]`)); !errors.Is(err, ErrNoData) {
		t.Errorf("Table() error = %v, want ErrNoData", err)
	}
}

func TestExportData(t *testing.T) {
	ratios, _ := Lookup("ratios")
	payload := decode(t, `[
		{"date":"2023-09-30","currentRatio":0.988,"symbol":"AAPL","period":"FY"},
		{"date":"2022-09-24","currentRatio":0.879,"symbol":"AAPL"}
	]`)

	table, err := ratios.Table("AAPL", payload)
	if err != nil {
		t.Fatal(err)
	}

	headers, rows := table.ExportData()
	if diff := cmp.Diff([]string{"date", "currentRatio", "period", "symbol"}, headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"2023-09-30", "0.988", "FY", "AAPL"},
		{"2022-09-24", "0.879", "", "AAPL"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

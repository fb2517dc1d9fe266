package endpoints

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/PaesslerAG/jsonpath"
)

// Record is one row of a payload, keyed by field name.
type Record map[string]any

// Table is a payload converted for display and export.
type Table struct {
	Title   string
	Columns []Column
	Records []Record
}

// Prepare validates a fresh API response and returns the value to cache.
// It fails with ErrNoData when the response, the required node or the
// extracted node is missing or empty.
func (d Descriptor) Prepare(response any) (any, error) {
	if isEmpty(response) {
		return nil, ErrNoData
	}

	if d.Require != "" {
		node, err := jsonpath.Get(d.Require, response)
		if err != nil || isEmpty(node) {
			return nil, fmt.Errorf("%w: missing %s", ErrNoData, d.Require)
		}
	}

	if d.Extract == "" {
		return response, nil
	}

	node, err := jsonpath.Get(d.Extract, response)
	if err != nil || isEmpty(node) {
		return nil, fmt.Errorf("%w: missing %s", ErrNoData, d.Extract)
	}
	return node, nil
}

// Table builds the display table for a cached payload. Records are sorted
// newest first by the endpoint's sort key and only columns present in the
// data are kept.
func (d Descriptor) Table(key string, payload any) (*Table, error) {
	node := payload
	if d.View != "" {
		var err error
		node, err = jsonpath.Get(d.View, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: missing %s", ErrNoData, d.View)
		}
	}

	var records []Record
	if d.Flatten {
		records = flatten(node)
	} else {
		records = toRecords(node)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	if d.SortKey != "" && hasKey(records, d.SortKey) {
		sort.SliceStable(records, func(i, j int) bool {
			return RawValue(records[i][d.SortKey]) > RawValue(records[j][d.SortKey])
		})
	}

	var cols []Column
	for _, c := range d.Columns {
		if hasKey(records, c.Key) {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}

	return &Table{
		Title:   fmt.Sprintf("%s for %s", d.Title, key),
		Columns: cols,
		Records: records,
	}, nil
}

// Rows returns the formatted display cells, limited to n rows when n > 0.
func (t *Table) Rows(n int) [][]string {
	records := t.Records
	if n > 0 && len(records) > n {
		records = records[:n]
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = FormatValue(r[c.Key])
		}
		rows[i] = row
	}
	return rows
}

// ExportData returns every field of every record: display columns first,
// then the remaining keys alphabetically. Values are unformatted.
func (t *Table) ExportData() ([]string, [][]string) {
	seen := make(map[string]bool)
	var headers []string
	for _, c := range t.Columns {
		headers = append(headers, c.Key)
		seen[c.Key] = true
	}

	var extra []string
	for _, r := range t.Records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	headers = append(headers, extra...)

	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = RawValue(r[h])
		}
		rows[i] = row
	}
	return headers, rows
}

func toRecords(node any) []Record {
	switch v := node.(type) {
	case []any:
		records := make([]Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				records = append(records, Record(m))
			}
		}
		return records
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return []Record{Record(v)}
	default:
		return nil
	}
}

// flatten expands {period: {segment: value}} into period/segment/value rows.
func flatten(node any) []Record {
	periods, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	var records []Record
	for _, period := range slices.Sorted(maps.Keys(periods)) {
		segments, ok := periods[period].(map[string]any)
		if !ok {
			continue
		}
		for _, segment := range slices.Sorted(maps.Keys(segments)) {
			records = append(records, Record{
				"period":  period,
				"segment": segment,
				"value":   segments[segment],
			})
		}
	}
	return records
}

func hasKey(records []Record, key string) bool {
	for _, r := range records {
		if _, ok := r[key]; ok {
			return true
		}
	}
	return false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case string:
		return t == ""
	case json.RawMessage:
		return len(t) == 0
	default:
		return false
	}
}

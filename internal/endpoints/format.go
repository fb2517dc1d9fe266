package endpoints

import (
	"encoding/json"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatValue renders a payload value for a table cell. Integers get
// thousands separators and fractions are rounded to four places.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case json.Number:
		return formatDecimal(t.String())
	case float64:
		return formatDecimal(decimal.NewFromFloat(t).String())
	case int:
		return humanize.Comma(int64(t))
	case int64:
		return humanize.Comma(t)
	default:
		return RawValue(v)
	}
}

// RawValue renders a payload value without display formatting, as written
// to export files.
func RawValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatDecimal(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}

	if d.IsInteger() {
		if d.Abs().LessThan(decimal.New(1, 18)) {
			return humanize.Comma(d.IntPart())
		}
		return d.String()
	}

	rounded := d.Round(4)
	if rounded.Abs().GreaterThanOrEqual(decimal.New(1, 4)) {
		return humanize.CommafWithDigits(rounded.Round(2).InexactFloat64(), 2)
	}
	return rounded.String()
}

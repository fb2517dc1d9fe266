// Package endpoints describes the Financial Modeling Prep endpoints the tool
// can fetch and turns their cached payloads into display tables.
package endpoints

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnknownCategory is returned by Lookup for an unregistered category.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNoData is returned when a response holds nothing worth caching.
	ErrNoData = errors.New("no data available")
	// ErrNoColumns is returned when none of the display columns are present.
	ErrNoColumns = errors.New("no relevant columns found")
)

// ParamStyle is how the symbol is passed to the API.
type ParamStyle int

const (
	// ParamPath appends the symbol as the last path segment.
	ParamPath ParamStyle = iota
	// ParamSymbol passes the symbol as ?symbol=.
	ParamSymbol
	// ParamName passes an indicator name as ?name=.
	ParamName
)

// Column is a payload field shown in the table.
type Column struct {
	Key    string
	Header string
}

// Descriptor is one fetchable endpoint.
type Descriptor struct {
	Name     string
	Title    string
	Category string
	Path     string
	// Require must resolve to a non-empty value before the response is saved.
	Require string
	// Extract selects the part of the response that is saved.
	Extract string
	// View selects the part of the saved payload that is displayed.
	View    string
	SortKey string
	Prompt  string
	Columns []Column
	Param   ParamStyle
	// Flatten expands a period -> segment -> value object into rows.
	Flatten bool
}

const symbolPrompt = "Enter stock symbol (e.g., AAPL)"

var registry = []Descriptor{
	{
		Name: "analyst_estimates", Title: "Analyst Estimates", Category: "estimates",
		Path: "/v4/analyst-estimates", Param: ParamSymbol, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"estimatedRevenueAvg", "Est. Revenue (Avg)"}, {"estimatedEpsAvg", "Est. EPS (Avg)"},
		},
	},
	{
		Name: "balance_sheet", Title: "Balance Sheet", Category: "balance",
		Path: "/v3/balance-sheet-statement", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"totalAssets", "Total Assets"}, {"totalLiabilities", "Total Liabilities"},
			{"totalEquity", "Total Equity"},
		},
	},
	{
		Name: "cash_flow", Title: "Cash Flow", Category: "cashflow",
		Path: "/v3/cash-flow-statement", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"operatingCashFlow", "Operating CF"}, {"investingCashFlow", "Investing CF"},
			{"financingCashFlow", "Financing CF"},
		},
	},
	{
		Name: "company_outlook", Title: "Company Outlook", Category: "outlook",
		Path: "/v4/company-outlook", Param: ParamSymbol, View: "$.profile",
		Columns: []Column{
			{"companyName", "Company"}, {"price", "Price"}, {"beta", "Beta"}, {"volAvg", "Avg Volume"},
			{"mktCap", "Market Cap"},
		},
	},
	{
		Name: "dividends", Title: "Dividends", Category: "dividends",
		Path: "/v3/historical-price-full/stock_dividend", Param: ParamPath, Extract: "$.historical", SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"label", "Label"}, {"adjDividend", "Adj. Dividend"}, {"dividend", "Dividend"},
		},
	},
	{
		Name: "economic_indicators", Title: "Economic Indicators", Category: "economic",
		Path: "/v3/economic", Param: ParamName, SortKey: "date",
		Prompt: "Enter economic indicator (GDP, CPI, unemploymentRate)",
		Columns: []Column{
			{"date", "Date"}, {"value", "Value"},
		},
	},
	{
		Name: "esg", Title: "ESG Scores", Category: "esg",
		Path: "/v4/esg-environmental-social-governance-data", Param: ParamSymbol, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"environmentalScore", "Environmental"}, {"socialScore", "Social"},
			{"governanceScore", "Governance"}, {"total", "Total"},
		},
	},
	{
		Name: "financial_growth", Title: "Financial Growth", Category: "growth",
		Path: "/v3/financial-growth", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"revenueGrowth", "Revenue Growth"}, {"netIncomeGrowth", "Net Income Growth"},
			{"epsGrowth", "EPS Growth"},
		},
	},
	{
		Name: "financial_ratios", Title: "Financial Ratios", Category: "ratios",
		Path: "/v3/ratios", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"currentRatio", "Current Ratio"}, {"quickRatio", "Quick Ratio"},
			{"debtEquityRatio", "Debt/Equity"}, {"returnOnEquity", "ROE"},
		},
	},
	{
		Name: "income_statement", Title: "Income Statement", Category: "income",
		Path: "/v3/income-statement", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"revenue", "Revenue"}, {"netIncome", "Net Income"}, {"grossProfit", "Gross Profit"},
			{"eps", "EPS"},
		},
	},
	{
		Name: "insider_trading", Title: "Insider Trading", Category: "insider",
		Path: "/v4/insider-trading", Param: ParamSymbol, SortKey: "transactionDate",
		Columns: []Column{
			{"transactionDate", "Date"}, {"insiderName", "Insider"}, {"transactionType", "Type"},
			{"shares", "Shares"}, {"price", "Price"},
		},
	},
	{
		Name: "institutional_holders", Title: "Institutional Holders", Category: "holders",
		Path: "/v3/institutional-holder", Param: ParamPath,
		Columns: []Column{
			{"dateReported", "Date Reported"}, {"holder", "Holder"}, {"shares", "Shares"}, {"value", "Value"},
		},
	},
	{
		Name: "market_cap", Title: "Market Capitalization", Category: "marketcap",
		Path: "/v3/historical-market-capitalization", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"marketCap", "Market Cap"},
		},
	},
	{
		Name: "price_targets", Title: "Price Targets", Category: "targets",
		Path: "/v4/price-target", Param: ParamSymbol, SortKey: "publishedDate",
		Columns: []Column{
			{"publishedDate", "Published"}, {"analystName", "Analyst"}, {"priceTarget", "Target"},
			{"adjPriceTarget", "Adj. Target"},
		},
	},
	{
		Name: "revenue_breakdown", Title: "Revenue Breakdown", Category: "revenue",
		Path: "/v4/revenue-breakdown", Param: ParamSymbol, Require: "$.breakdown", View: "$.breakdown",
		Flatten: true, SortKey: "period",
		Columns: []Column{
			{"period", "Period"}, {"segment", "Segment"}, {"value", "Value"},
		},
	},
	{
		Name: "sec_filings", Title: "SEC Filings", Category: "filings",
		Path: "/v3/sec_filings", Param: ParamPath, SortKey: "filingDate",
		Columns: []Column{
			{"filingDate", "Filing Date"}, {"type", "Type"}, {"title", "Title"},
		},
	},
	{
		Name: "stock_grades", Title: "Stock Grades", Category: "grades",
		Path: "/v3/grades", Param: ParamPath, SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"gradingCompany", "Company"}, {"grade", "Grade"}, {"previousGrade", "Previous"},
		},
	},
	{
		Name: "stock_price", Title: "Stock Price", Category: "price",
		Path: "/v3/historical-price-full", Param: ParamPath, Extract: "$.historical", SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"open", "Open"}, {"high", "High"}, {"low", "Low"}, {"close", "Close"},
			{"volume", "Volume"},
		},
	},
	{
		Name: "stock_splits", Title: "Stock Splits", Category: "splits",
		Path: "/v3/historical-price-full/stock_split", Param: ParamPath, Extract: "$.historical", SortKey: "date",
		Columns: []Column{
			{"date", "Date"}, {"numerator", "Numerator"}, {"denominator", "Denominator"}, {"splitRatio", "Ratio"},
		},
	},
}

// All returns every registered endpoint in menu order.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the endpoint registered under category.
func Lookup(category string) (Descriptor, error) {
	for _, d := range registry {
		if d.Category == category {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
}

// Label is the menu label for the endpoint's key.
func (d Descriptor) Label() string {
	if d.Param == ParamName {
		return "indicator"
	}
	return "symbol"
}

// PromptText returns the input prompt for the endpoint's key.
func (d Descriptor) PromptText() string {
	if d.Prompt != "" {
		return d.Prompt
	}
	return symbolPrompt
}

// NormalizeKey trims user input and applies the case the API expects:
// symbols upper case, indicator names lower case.
func (d Descriptor) NormalizeKey(input string) string {
	key := strings.TrimSpace(input)
	if d.Param == ParamName {
		return strings.ToLower(key)
	}
	return strings.ToUpper(key)
}

// Request returns the URL path and query parameters for fetching key.
func (d Descriptor) Request(key string) (string, url.Values) {
	q := url.Values{}
	switch d.Param {
	case ParamSymbol:
		q.Set("symbol", key)
		return d.Path, q
	case ParamName:
		q.Set("name", key)
		return d.Path, q
	default:
		return d.Path + "/" + url.PathEscape(key), q
	}
}

// ExportBase is the file name stem for exporting key.
func (d Descriptor) ExportBase(key string) string {
	return fmt.Sprintf("%s_%s", key, d.Category)
}

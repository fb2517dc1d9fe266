// Package models defines data structures and domain types.
package models

import "time"

// CacheEntry is a single stored API response for a category and symbol.
type CacheEntry struct {
	LastUpdated time.Time
	Category    string
	Symbol      string
	RawData     string
	ID          int64
}

// CacheSummary describes all cached rows for one category and symbol.
type CacheSummary struct {
	LastUpdated time.Time
	Category    string
	Symbol      string
	DataPoints  int
}

package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/fincache-tui/internal/endpoints"
	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/services/cache"
)

var (
	// ErrBudgetExhausted is returned when today's request budget is spent.
	ErrBudgetExhausted = fmt.Errorf("daily API request limit (%d) reached", cache.DailyBudget)
	// ErrNoData is returned when the API answered without usable data.
	ErrNoData = endpoints.ErrNoData
)

// Result is a payload served for one endpoint and key.
type Result struct {
	UpdatedAt time.Time
	Payload   any
	// Err is why cached data was served instead of a fresh response.
	Err      error
	Category string
	Key      string
	// FromCache is set when Payload came from the store.
	FromCache bool
	// Fallback is set when a refresh failed and cached data was served.
	Fallback bool
}

// Service runs the endpoint flow: read the cache, check the budget, call the
// API, count the request and save the response.
type Service struct {
	client *Client
	cache  *cache.Manager
}

// NewService creates a market service.
func NewService(client *Client, cacheManager *cache.Manager) *Service {
	return &Service{client: client, cache: cacheManager}
}

// Lookup returns the cached payload for key, or nil when nothing is cached.
func (s *Service) Lookup(d endpoints.Descriptor, key string) (*Result, error) {
	entry, err := s.cache.Entry(d.Category, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	payload, err := cache.Decode([]byte(entry.RawData))
	if err != nil {
		return nil, fmt.Errorf("decode cached %s/%s: %w", d.Category, key, err)
	}

	return &Result{
		Category:  d.Category,
		Key:       key,
		Payload:   payload,
		UpdatedAt: entry.LastUpdated,
		FromCache: true,
	}, nil
}

// Refresh fetches key from the API and caches the response. When the budget
// is spent or the call fails, cached data is returned with Fallback set and
// the cause in Err; the error is returned only when nothing is cached.
func (s *Service) Refresh(ctx context.Context, d endpoints.Descriptor, key string) (*Result, error) {
	exhausted, err := s.cache.BudgetExhausted()
	if err != nil {
		return nil, err
	}
	if exhausted {
		logger.Warn("budget exhausted", "category", d.Category, "key", key)
		return s.fallback(d, key, ErrBudgetExhausted)
	}

	path, query := d.Request(key)
	response, err := s.client.Get(ctx, path, query)
	if err != nil {
		logger.Error("fetch failed", "category", d.Category, "key", key, "error", err)
		return s.fallback(d, key, err)
	}

	// A 200 counts against the provider's quota even when it is empty. The
	// call is already paid for, so a counter failure does not drop the data.
	if err := s.cache.RecordRequest(d.Path); err != nil {
		logger.Error("failed to record request", "category", d.Category, "key", key, "error", err)
	}

	payload, err := d.Prepare(response)
	if err != nil {
		return nil, fmt.Errorf("%s for %s: %w", d.Title, key, err)
	}

	updated := s.cache.Now()
	if err := s.cache.SaveDataAt(d.Category, key, payload, updated); err != nil {
		return nil, err
	}

	return &Result{
		Category:  d.Category,
		Key:       key,
		Payload:   payload,
		UpdatedAt: updated,
	}, nil
}

func (s *Service) fallback(d endpoints.Descriptor, key string, cause error) (*Result, error) {
	res, err := s.Lookup(d, key)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	if res == nil {
		return nil, cause
	}
	res.Fallback = true
	res.Err = cause
	return res, nil
}

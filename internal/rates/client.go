// Package rates fetches day-stamped exchange-rate tables from an external
// provider and memoizes them per calendar day. The core converter is a pure
// function of a snapshot; everything network- and cache-shaped lives here.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"conti/internal/core"
)

// Latest selects the provider's most recent rate table instead of a
// specific calendar day.
const Latest = "latest"

// SnapshotStore persists fetched snapshots so a provider outage can fall
// back to the last known table for a day.
type SnapshotStore interface {
	SaveRateSnapshot(ctx context.Context, rs core.RateSnapshot) error
	GetRateSnapshot(ctx context.Context, asOf, base string) (core.RateSnapshot, error)
}

type Client struct {
	baseURL string
	base    string // base currency every table is anchored to
	httpc   *http.Client
	memo    *gocache.Cache
	store   SnapshotStore // optional
}

func NewClient(baseURL, baseCurrency string, ttl time.Duration, store SnapshotStore) *Client {
	return &Client{
		baseURL: baseURL,
		base:    baseCurrency,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		memo:    gocache.New(ttl, 2*ttl),
		store:   store,
	}
}

// providerResponse is the provider's wire shape (frankfurter-style).
type providerResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// GetRates returns the rate table for the given day (YYYY-MM-DD) or Latest.
// Tables are memoized per day; the latest table additionally expires with
// the cache TTL so new provider data is picked up. On provider failure a
// persisted snapshot for the same day is used when available; otherwise the
// error surfaces as core.ErrRateUnavailable wrapped with the cause.
func (c *Client) GetRates(ctx context.Context, asOf string) (core.RateSnapshot, error) {
	if asOf == "" {
		asOf = Latest
	}

	if cached, ok := c.memo.Get(asOf); ok {
		return cached.(core.RateSnapshot), nil
	}

	rs, err := c.fetch(ctx, asOf)
	if err != nil {
		slog.WarnContext(ctx, "Rate fetch failed",
			"rate_date", asOf,
			"base_currency", c.base,
			"error", err)
		if c.store != nil && asOf != Latest {
			if stored, serr := c.store.GetRateSnapshot(ctx, asOf, c.base); serr == nil {
				c.memo.Set(asOf, stored, gocache.DefaultExpiration)
				return stored, nil
			}
		}
		return core.RateSnapshot{}, fmt.Errorf("%w: %v", core.ErrRateUnavailable, err)
	}

	if asOf == Latest {
		c.memo.Set(asOf, rs, gocache.DefaultExpiration)
	} else {
		// Historical tables never change; keep them for the process lifetime.
		c.memo.Set(asOf, rs, gocache.NoExpiration)
	}

	if c.store != nil {
		if err := c.store.SaveRateSnapshot(ctx, rs); err != nil {
			slog.WarnContext(ctx, "Failed to persist rate snapshot",
				"rate_date", rs.AsOf,
				"error", err)
		}
	}

	return rs, nil
}

func (c *Client) fetch(ctx context.Context, asOf string) (core.RateSnapshot, error) {
	u := fmt.Sprintf("%s/%s?base=%s", c.baseURL, url.PathEscape(asOf), url.QueryEscape(c.base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return core.RateSnapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return core.RateSnapshot{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.RateSnapshot{}, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return core.RateSnapshot{}, fmt.Errorf("decode rates: %w", err)
	}
	if pr.Base != c.base || len(pr.Rates) == 0 {
		return core.RateSnapshot{}, fmt.Errorf("malformed rate table (base=%q, %d rates)", pr.Base, len(pr.Rates))
	}

	// The base converts to itself at 1; providers usually omit it.
	if _, ok := pr.Rates[pr.Base]; !ok {
		pr.Rates[pr.Base] = 1.0
	}

	return core.RateSnapshot{AsOf: pr.Date, Base: pr.Base, Rates: pr.Rates}, nil
}

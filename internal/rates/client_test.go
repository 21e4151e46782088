package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"conti/internal/core"
)

type memoryStore struct {
	snapshots map[string]core.RateSnapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string]core.RateSnapshot)}
}

func (s *memoryStore) SaveRateSnapshot(_ context.Context, rs core.RateSnapshot) error {
	s.snapshots[rs.AsOf+"/"+rs.Base] = rs
	return nil
}

func (s *memoryStore) GetRateSnapshot(_ context.Context, asOf, base string) (core.RateSnapshot, error) {
	rs, ok := s.snapshots[asOf+"/"+base]
	if !ok {
		return core.RateSnapshot{}, errors.New("not found")
	}
	return rs, nil
}

func rateServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		if r.URL.Query().Get("base") != "EUR" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2026-01-15","rates":{"USD":1.1,"GBP":0.9}}`))
	}))
}

func TestGetRatesFetchesAndMemoizes(t *testing.T) {
	var hits int64
	srv := rateServer(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, "EUR", time.Hour, nil)

	rs, err := c.GetRates(context.Background(), "2026-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Base != "EUR" || rs.AsOf != "2026-01-15" {
		t.Fatalf("unexpected snapshot: %+v", rs)
	}
	if rs.Rates["USD"] != 1.1 {
		t.Fatalf("unexpected USD rate: %v", rs.Rates["USD"])
	}
	if rs.Rates["EUR"] != 1.0 {
		t.Fatal("base rate must be filled in at 1.0")
	}

	// second lookup for the same day must come from the memo
	if _, err := c.GetRates(context.Background(), "2026-01-15"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Fatalf("expected 1 provider hit, got %d", hits)
	}
}

func TestGetRatesDefaultsToLatest(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.URL.Path != "/latest" {
			t.Errorf("expected /latest, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2026-09-01","rates":{"USD":1.2}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "EUR", time.Hour, nil)
	rs, err := c.GetRates(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.AsOf != "2026-09-01" {
		t.Fatalf("unexpected date: %s", rs.AsOf)
	}
}

func TestGetRatesProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "EUR", time.Hour, nil)
	_, err := c.GetRates(context.Background(), "2026-01-15")
	if !errors.Is(err, core.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestGetRatesFallsBackToStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newMemoryStore()
	_ = store.SaveRateSnapshot(context.Background(), core.RateSnapshot{
		AsOf: "2026-01-15", Base: "EUR", Rates: map[string]float64{"EUR": 1.0, "USD": 1.08},
	})

	c := NewClient(srv.URL, "EUR", time.Hour, store)
	rs, err := c.GetRates(context.Background(), "2026-01-15")
	if err != nil {
		t.Fatalf("expected fallback snapshot, got error: %v", err)
	}
	if rs.Rates["USD"] != 1.08 {
		t.Fatalf("unexpected fallback rate: %v", rs.Rates["USD"])
	}
}

func TestGetRatesPersistsSnapshot(t *testing.T) {
	var hits int64
	srv := rateServer(t, &hits)
	defer srv.Close()

	store := newMemoryStore()
	c := NewClient(srv.URL, "EUR", time.Hour, store)
	if _, err := c.GetRates(context.Background(), "2026-01-15"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetRateSnapshot(context.Background(), "2026-01-15", "EUR"); err != nil {
		t.Fatal("fetched snapshot was not persisted")
	}
}

func TestGetRatesRejectsMalformedTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","date":"2026-01-15","rates":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "EUR", time.Hour, nil)
	if _, err := c.GetRates(context.Background(), "2026-01-15"); !errors.Is(err, core.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

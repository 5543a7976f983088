package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"kudi/internal/core"
)

func TestClientConvertFetchesAndCaches(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v6/test-key/latest/GHS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"success","base_code":"GHS","conversion_rates":{"GHS":1,"USD":0.08}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "GHS", time.Hour)
	ctx := context.Background()

	got, err := c.Convert(ctx, core.Money{Cents: 800}, "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.Cents != 10000 {
		t.Errorf("Convert() = %d cents, want 10000", got.Cents)
	}

	// Second conversion within the TTL must not refetch.
	if _, err := c.Convert(ctx, core.Money{Cents: 100}, "USD"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("rate service calls = %d, want 1", n)
	}
}

func TestClientUnavailableWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "GHS", time.Hour)
	if _, err := c.Convert(context.Background(), core.Money{Cents: 100}, "USD"); err == nil {
		t.Fatal("Convert() expected error when rate service is down")
	}
}

func TestClientServesStaleTableOnRefreshFailure(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"result":"success","base_code":"GHS","conversion_rates":{"USD":0.1}}`))
	}))
	defer srv.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClient(srv.URL, "test-key", "GHS", time.Minute)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	if _, err := c.Convert(ctx, core.Money{Cents: 100}, "USD"); err != nil {
		t.Fatal(err)
	}

	// Expire the cache and take the service down; stale rates still serve.
	now = now.Add(2 * time.Minute)
	healthy.Store(false)
	got, err := c.Convert(ctx, core.Money{Cents: 100}, "USD")
	if err != nil {
		t.Fatalf("Convert() with stale table error = %v", err)
	}
	if got.Cents != 1000 {
		t.Errorf("Convert() = %d cents, want 1000", got.Cents)
	}
}

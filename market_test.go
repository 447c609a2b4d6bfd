package steamtrade

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetPriceOverview(t *testing.T) {
	var hits int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if got := r.URL.Query().Get("market_hash_name"); !strings.HasPrefix(got, "AK-47 | Redline") {
			t.Errorf("market_hash_name = %q", got)
		}
		if got := r.URL.Query().Get("currency"); got != CurrencyUSD {
			t.Errorf("currency = %q", got)
		}
		fmt.Fprint(w, `{"success":true,"lowest_price":"$17.41","median_price":"$17.14","volume":"1,153"}`)
	}))
	defer server.Close()

	session := testSession(server.URL)

	overview, err := session.GetPriceOverview(730, CurrencyUSD, "AK-47 | Redline (Field-Tested)")
	if err != nil {
		t.Fatal(err)
	}
	if overview.LowestPrice != "$17.41" || overview.Volume != "1,153" {
		t.Fatalf("overview = %+v", overview)
	}

	// Second lookup is served from the cache.
	session.prices.Wait()
	if _, err := session.GetPriceOverview(730, CurrencyUSD, "AK-47 | Redline (Field-Tested)"); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Fatalf("server hit %d times, want 1", hits)
	}

	// A different item misses the cache.
	if _, err := session.GetPriceOverview(730, CurrencyUSD, "AK-47 | Redline (Minimal Wear)"); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Fatalf("server hit %d times, want 2", hits)
	}
}

func TestGetPriceOverviewFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false}`)
	}))
	defer server.Close()

	_, err := testSession(server.URL).GetPriceOverview(730, CurrencyUSD, "AK-47 | Redline (Field-Tested)")
	if !errors.Is(err, ErrCannotLoadPrices) {
		t.Fatalf("got %v, want ErrCannotLoadPrices", err)
	}
}

func TestGetPriceOverviewRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testSession(server.URL).GetPriceOverview(730, CurrencyUSD, "AWP | Asiimov (Field-Tested)")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
}

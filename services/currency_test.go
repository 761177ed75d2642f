package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const bcvHTML = `<html><body>
<div id="dolar"><strong> 36,58 </strong></div>
<div id="euro"><strong> 39,12 </strong></div>
</body></html>`

func currencyTestService(url string) *CurrencyService {
	return &CurrencyService{
		URL:    url,
		Client: &http.Client{Timeout: 2 * time.Second},
		TTL:    time.Hour,
	}
}

func TestGetRatesScrapesAndCaches(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(bcvHTML))
	}))
	defer srv.Close()

	s := currencyTestService(srv.URL)

	rates, stale, err := s.GetRates()
	if err != nil {
		t.Fatalf("get rates: %v", err)
	}
	if stale {
		t.Fatal("fresh scrape reported as stale")
	}
	if rates.USD != 36.58 || rates.EUR != 39.12 {
		t.Fatalf("unexpected rates: %+v", rates)
	}

	// Second call within the TTL serves the cache.
	if _, _, err := s.GetRates(); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit got %d", hits)
	}
}

func TestGetRatesServesStaleOnFailure(t *testing.T) {
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(bcvHTML))
	}))
	defer srv.Close()

	s := currencyTestService(srv.URL)
	if _, _, err := s.GetRates(); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	fail = true
	s.fetchedAt = time.Now().Add(-2 * time.Hour) // expire the cache

	rates, stale, err := s.GetRates()
	if err != nil {
		t.Fatalf("expected stale rates, got error: %v", err)
	}
	if !stale {
		t.Fatal("expected stale flag")
	}
	if rates.USD != 36.58 {
		t.Fatalf("stale rates corrupted: %+v", rates)
	}
}

func TestGetRatesErrorsWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := currencyTestService(srv.URL)
	if _, _, err := s.GetRates(); err == nil {
		t.Fatal("expected error when nothing was ever fetched")
	}
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{" 36,58 ", 36.58, true},
		{"1.234,56", 1234.56, true},
		{"40.25", 40.25, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"-5,00", 0, false},
	}
	for _, tc := range cases {
		got, err := parseRate(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("parseRate(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("parseRate(%q) should fail", tc.in)
		}
	}
}

package services

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultBCVURL = "https://www.bcv.org.ve/"

// Rates are the official USD and EUR rates in VES.
type Rates struct {
	USD float64 `json:"USD"`
	EUR float64 `json:"EUR"`
}

// CurrencyService scrapes the central bank page and caches the result for
// an hour. The cache is process-local; the deployment is single-instance.
type CurrencyService struct {
	URL    string
	Client *http.Client
	TTL    time.Duration

	mu        sync.Mutex
	cached    *Rates
	fetchedAt time.Time
}

func NewCurrencyService() *CurrencyService {
	url := os.Getenv("BCV_URL")
	if url == "" {
		url = defaultBCVURL
	}
	return &CurrencyService{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		TTL:    time.Hour,
	}
}

// Currency is the process-wide instance used by the controller.
var Currency = NewCurrencyService()

// GetRates returns the cached rates when fresh, otherwise scrapes. On
// scrape failure a stale cache is served; the error is returned only when
// nothing has ever been fetched.
func (s *CurrencyService) GetRates() (Rates, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < s.TTL {
		return *s.cached, false, nil
	}

	rates, err := s.scrape()
	if err != nil {
		if s.cached != nil {
			log.Printf("BCV scrape failed, serving stale rates: %v", err)
			return *s.cached, true, nil
		}
		return Rates{}, false, err
	}

	s.cached = &rates
	s.fetchedAt = time.Now()
	return rates, false, nil
}

func (s *CurrencyService) scrape() (Rates, error) {
	resp, err := s.Client.Get(s.URL)
	if err != nil {
		return Rates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rates{}, errors.New("BCV returned status " + resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Rates{}, err
	}

	usd, err := parseRate(doc.Find("#dolar strong").First().Text())
	if err != nil {
		return Rates{}, errors.New("could not parse USD rate")
	}
	eur, err := parseRate(doc.Find("#euro strong").First().Text())
	if err != nil {
		return Rates{}, errors.New("could not parse EUR rate")
	}

	return Rates{USD: usd, EUR: eur}, nil
}

// parseRate handles the page's comma decimal separator ("36,58").
func parseRate(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0, errors.New("invalid rate text: " + text)
	}
	return v, nil
}

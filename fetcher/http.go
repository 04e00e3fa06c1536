package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"plusauto-intel/config"
	"plusauto-intel/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// HTTPFetcher fetches documents over plain HTTP with browser-like headers.
type HTTPFetcher struct {
	client *resty.Client
	logger *utils.Logger
	retry  *utils.RetryConfig

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewHTTPFetcher builds a fetcher from the agent configuration.
func NewHTTPFetcher(cfg *config.Config, logger *utils.Logger) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.FetchTimeoutS) * time.Second)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.5")
	client.SetHeader("Connection", "keep-alive")

	return &HTTPFetcher{
		client: client,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		minInterval: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	}
}

// Fetch retrieves one URL, retrying transport failures with back-off. Any
// HTTP status is returned to the caller; only network-level problems error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	var page *Page

	err := f.retry.Do(ctx, fmt.Sprintf("fetch %s", url), func() error {
		f.pace()

		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fmt.Errorf("fetcher: get %s: %w", url, err)
		}

		page = &Page{
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("[fetcher] %s -> %d (%d bytes)", url, page.StatusCode, len(page.Body))
	return page, nil
}

// pace enforces the respectful delay between outbound requests.
func (f *HTTPFetcher) pace() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if elapsed := time.Since(f.lastRequest); elapsed < f.minInterval {
		time.Sleep(f.minInterval - elapsed)
	}
	f.lastRequest = time.Now()
}

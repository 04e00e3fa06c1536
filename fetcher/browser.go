package fetcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"plusauto-intel/config"
	"plusauto-intel/utils"
)

// BrowserFetcher drives a headless Chrome instance for pages that only
// render their listing counts client-side. Selected with FETCHER=browser.
type BrowserFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	logger      *utils.Logger
	timeout     time.Duration

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewBrowserFetcher starts a shared Chrome allocator. Call Close when done.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) *BrowserFetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[fetcher] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, _ := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserFetcher{
		allocCtx:    silentCtx,
		cancelAlloc: cancelAlloc,
		logger:      logger,
		timeout:     time.Duration(cfg.FetchTimeoutS) * time.Second,
		minInterval: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	}
}

// Fetch navigates to the URL and returns the rendered document HTML.
// Status codes are not observable through the render path, so a page that
// loaded at all reports 200; per-dealer 404 probing needs the HTTP fetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	f.pace()

	tabCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("fetcher: browser render %s: %w", url, err)
	}

	f.logger.Debug("[fetcher] rendered %s (%d bytes)", url, len(html))
	return &Page{StatusCode: 200, Body: html}, nil
}

// Close tears down the Chrome allocator.
func (f *BrowserFetcher) Close() {
	f.cancelAlloc()
}

func (f *BrowserFetcher) pace() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if elapsed := time.Since(f.lastRequest); elapsed < f.minInterval {
		time.Sleep(f.minInterval - elapsed)
	}
	f.lastRequest = time.Now()
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

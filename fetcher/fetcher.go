// Package fetcher abstracts "given a URL, return the raw document" so the
// extractor never talks to the network directly. Both implementations pace
// outbound requests with a minimum inter-request delay; hammering the
// marketplace gets the agent rate-limited.
package fetcher

import "context"

// Page is the raw result of fetching one URL. A 404 is reported through
// StatusCode, not as an error: probing dealer profiles treats "not found"
// as an ordinary outcome.
type Page struct {
	StatusCode int
	Body       string
}

// NotFound reports whether the resource is absent.
func (p *Page) NotFound() bool {
	return p.StatusCode == 404
}

// Fetcher retrieves a single document. Implementations fail with an error
// only on transport problems (timeout, DNS, connection refused).
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

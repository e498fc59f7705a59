package install

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher downloads a document by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DefaultMaxBodySize caps a single download.
const DefaultMaxBodySize = 8 << 20

// HTTPFetcher fetches over HTTP(S) with a plain GET.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
}

// NewHTTPFetcher returns a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		MaxBytes:  DefaultMaxBodySize,
	}
}

// Fetch returns the response body. Non-2xx responses are errors carrying
// the status and the start of the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return nil, fmt.Errorf("request failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("request failed: %s\n%s", resp.Status, msg)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response larger than %d bytes", limit)
	}
	return body, nil
}

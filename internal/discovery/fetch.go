package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxPageBytes caps how much of a response body is read for pattern matching.
const maxPageBytes = 4 << 20

// HTTPClient abstracts outbound HTTP requests so tests can stub the network.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.URL, e.Code)
}

// browserHeaders make search and directory queries look like a regular browser visit.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "nb-NO,nb;q=0.9,no;q=0.8,en-US;q=0.7,en;q=0.6",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

type fetcher struct {
	client    HTTPClient
	userAgent string
}

// page GETs target and returns its body. Each call is bounded by its own timeout.
func (f *fetcher) page(ctx context.Context, target string, timeout time.Duration, browser bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if browser {
		for k, v := range browserHeaders {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: target, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}
	return string(body), nil
}

// exists sends a HEAD request and falls back to GET when HEAD is not allowed.
func (f *fetcher) exists(ctx context.Context, target string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := f.status(ctx, http.MethodHead, target)
	if err != nil {
		return false
	}
	if code == http.StatusMethodNotAllowed {
		if code, err = f.status(ctx, http.MethodGet, target); err != nil {
			return false
		}
	}
	return code >= 200 && code <= 299
}

func (f *fetcher) status(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

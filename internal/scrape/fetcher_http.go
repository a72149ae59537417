package scrape

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxRedirects = 3

// HTTPFetcher issues page fetches and liveness probes. TLS certificate
// verification is disabled on purpose: the source sites are low-trust
// content sources, only text is extracted and never executed, and several
// of them run with broken certificate chains.
type HTTPFetcher struct {
	client      *http.Client
	probeClient *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:       30 * time.Second,
			Transport:     transport,
			CheckRedirect: limitRedirects,
		},
		probeClient: &http.Client{
			// Probes must fail fast so liveness checks never dominate a run.
			Timeout:       10 * time.Second,
			Transport:     transport,
			CheckRedirect: limitRedirects,
		},
	}
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return nil
}

// Fetch issues a GET and returns the body for parsing. A non-200 status is
// a *FetchError; the caller decides whether that aborts the routine.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	return &FetchedDocument{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
		FetchedAt:   time.Now(),
	}, nil
}

// Probe checks application-URL liveness with a HEAD request, falling back
// to GET for servers that reject HEAD. Any status in [200,400) counts as
// reachable. Probe never returns an error: an unreachable URL is a
// validation signal, not a crash.
func (f *HTTPFetcher) Probe(ctx context.Context, url string) bool {
	status, ok := f.probeStatus(ctx, http.MethodHead, url)
	if ok && status == http.StatusMethodNotAllowed {
		status, ok = f.probeStatus(ctx, http.MethodGet, url)
	}
	if !ok {
		return false
	}
	return status >= 200 && status < 400
}

func (f *HTTPFetcher) probeStatus(ctx context.Context, method, url string) (int, bool) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.probeClient.Do(req)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()
	return resp.StatusCode, true
}

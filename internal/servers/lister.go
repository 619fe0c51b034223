package servers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pcaplink/internal/constants"
	"pcaplink/pkg/circuitbreaker"
	"pcaplink/pkg/metrics"
)

const (
	upstreamName    = "server_listing"
	maxListingBytes = 8 << 20
)

// Lister returns the current server listing. Nothing is cached between calls.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

type HTTPLister struct {
	url        string
	httpClient *http.Client
	breaker    *circuitbreaker.Wrapper
}

type ListerOption func(*HTTPLister)

func WithHTTPClient(hc *http.Client) ListerOption {
	return func(l *HTTPLister) { l.httpClient = hc }
}

func WithBreaker(w *circuitbreaker.Wrapper) ListerOption {
	return func(l *HTTPLister) { l.breaker = w }
}

func NewHTTPLister(url string, opts ...ListerOption) *HTTPLister {
	l := &HTTPLister{
		url:        url,
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *HTTPLister) List(ctx context.Context) ([]Record, error) {
	return circuitbreaker.Do(ctx, l.breaker, func() ([]Record, error) {
		return l.fetch(ctx)
	})
}

func (l *HTTPLister) fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(upstreamName, "error", time.Since(start))
		return nil, fmt.Errorf("failed to fetch servers: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstreamRequest(upstreamName, metrics.StatusClass(resp.StatusCode), time.Since(start))

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return nil, fmt.Errorf("server listing returned status: %d", resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxListingBytes)).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse servers: %w", err)
	}
	return records, nil
}

package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

// Source fetches the current USD/TRY rate from an upstream.
type Source interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// HTTPSource reads the rate out of a JSON document with a JSONPath
// expression, e.g. "$.rates.TRY".
type HTTPSource struct {
	client     *http.Client
	url        string
	path       string
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewHTTPSource creates a source that GETs url and evaluates path on the body.
func NewHTTPSource(client *http.Client, url, path string) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{
		client:     client,
		url:        url,
		path:       path,
		maxRetries: 2,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return b
		},
	}
}

// Fetch retries transport failures and 5xx answers. Malformed documents fail at once.
func (s *HTTPSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	var rate decimal.Decimal

	operation := func() error {
		doc, err := s.get(ctx)
		if err != nil {
			return err
		}
		r, err := extractRate(doc, s.path)
		if err != nil {
			return backoff.Permanent(err)
		}
		rate = r
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

func (s *HTTPSource) get(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build fx request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fx rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("fetch fx rate: upstream status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("fetch fx rate: upstream status %d", resp.StatusCode))
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode fx document: %w", err))
	}
	return doc, nil
}

func extractRate(doc any, path string) (decimal.Decimal, error) {
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluate %q: %w", path, err)
	}
	// filters and slices yield a list; the first match wins
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return decimal.Zero, fmt.Errorf("evaluate %q: no match", path)
		}
		val = list[0]
	}

	var rate decimal.Decimal
	switch v := val.(type) {
	case float64:
		rate = decimal.NewFromFloat(v)
	case string:
		rate, err = decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v), ",", "."))
		if err != nil {
			return decimal.Zero, fmt.Errorf("evaluate %q: %w", path, err)
		}
	default:
		return decimal.Zero, fmt.Errorf("evaluate %q: not a number: %v", path, val)
	}

	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("evaluate %q: rate must be positive, got %s", path, rate)
	}
	return rate, nil
}

// StaticSource always returns the same rate. It backs test setups and
// deployments without an upstream.
type StaticSource struct {
	Rate decimal.Decimal
}

// Fetch returns the configured rate.
func (s StaticSource) Fetch(context.Context) (decimal.Decimal, error) {
	if !s.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("static fx rate is not configured")
	}
	return s.Rate, nil
}

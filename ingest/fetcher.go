package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/heartvoice/voicebio/logging"
)

// FetcherConfig holds recording download configuration.
type FetcherConfig struct {
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay"` // doubled per attempt
	MaxBytes   int64         `json:"max_bytes"`   // response body cap
}

// DefaultFetcherConfig returns default fetcher configuration. Telephony
// providers publish recordings with a short delay, so a couple of retries
// with backoff cover the common not-ready-yet case.
func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		MaxBytes:   64 << 20,
	}
}

// Fetcher downloads call recordings over HTTP.
type Fetcher struct {
	config *FetcherConfig
	client *http.Client
	logger logging.Logger
}

// NewFetcher creates a recording fetcher.
func NewFetcher(config *FetcherConfig) *Fetcher {
	if config == nil {
		config = DefaultFetcherConfig()
	}
	return &Fetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logging.WithFields(logging.Fields{"component": "recording_fetcher"}),
	}
}

// Fetch downloads the recording at url, retrying transient failures with
// exponential backoff. 4xx statuses other than 404 and 429 fail immediately;
// 404 retries because providers publish recordings asynchronously.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	logger := f.logger.WithFields(logging.Fields{"url": url})

	delay := f.config.RetryDelay
	var lastErr error

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying recording fetch", logging.Fields{
				"attempt": attempt,
				"delay":   delay.Seconds(),
			})
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		data, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	logger.Error(lastErr, "recording fetch failed")
	return nil, fmt.Errorf("fetching recording %s: %w", url, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("unexpected status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, false, fmt.Errorf("recording exceeds %d byte limit", f.config.MaxBytes)
	}
	if len(body) == 0 {
		return nil, true, fmt.Errorf("empty response body")
	}

	return body, false, nil
}

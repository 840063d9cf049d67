package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// This file builds the single shared outbound HTTP client and the retry
// wrapper used by both provider adapters. The client is created once at
// startup and reused for every upstream call.

// Outbound pool tuning.
const (
	httpTotalTimeout      = 15 * time.Second
	httpConnectTimeout    = 5 * time.Second
	httpReadHeaderTimeout = 10 * time.Second
	httpMaxConns          = 100
	httpMaxConnsPerHost   = 30
	httpIdleConnTimeout   = 90 * time.Second
)

// Retry policy: only 429 and 503 are retried, with exponential backoff capped
// between retryBaseDelay and retryMaxDelay.
const (
	retryMaxAttempts = 3
	retryBaseDelay   = 1 * time.Second
	retryMaxDelay    = 4 * time.Second
)

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: httpTotalTimeout,
		Transport: &http.Transport{
			MaxIdleConns:          httpMaxConns,
			MaxConnsPerHost:       httpMaxConnsPerHost,
			MaxIdleConnsPerHost:   httpMaxConnsPerHost,
			IdleConnTimeout:       httpIdleConnTimeout,
			ResponseHeaderTimeout: httpReadHeaderTimeout,
			TLSHandshakeTimeout:   httpConnectTimeout,
			ForceAttemptHTTP2:     true,
			DialContext: (&net.Dialer{
				Timeout:   httpConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// getWithRetry issues a GET and returns the response body. Transport errors
// and retryable statuses are re-attempted with exponential backoff; any other
// non-200 status fails immediately.
func getWithRetry(ctx context.Context, client *http.Client, logger *slog.Logger, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		if attempt > 1 {
			delay := min(retryBaseDelay<<(attempt-2), retryMaxDelay)
			logger.Debug("retrying upstream request", "attempt", attempt, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building upstream request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if !retryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("upstream returned %s", resp.Status)
		}
		lastErr = fmt.Errorf("upstream returned %s", resp.Status)
	}

	return nil, fmt.Errorf("upstream request failed after %d attempts: %w", retryMaxAttempts, lastErr)
}

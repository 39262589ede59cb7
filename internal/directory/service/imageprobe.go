package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PlaceholderImageURL is served in place of a profile image that cannot be
// fetched.
const PlaceholderImageURL = "/images/profile-placeholder.png"

const (
	probeMaxRetries   = 3
	probeRetryBase    = 200 * time.Millisecond
	probePerTryBudget = 3 * time.Second
)

// ProbeImageURL checks that an image URL answers with a success status,
// retrying transient failures with exponential backoff. It returns the URL
// itself, or the placeholder once retries are exhausted. Finalization runs it
// once per profile so directory reads never block on broken image hosts.
func ProbeImageURL(ctx context.Context, client *http.Client, url string) string {
	if url == "" {
		return PlaceholderImageURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(probeRetryBase),
		), probeMaxRetries),
		ctx,
	)

	err := backoff.Retry(func() error {
		tryCtx, cancel := context.WithTimeout(ctx, probePerTryBudget)
		defer cancel()

		req, err := http.NewRequestWithContext(tryCtx, http.MethodHead, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("image fetch returned %d", resp.StatusCode))
		}
		return fmt.Errorf("image fetch returned %d", resp.StatusCode)
	}, policy)
	if err != nil {
		return PlaceholderImageURL
	}
	return url
}

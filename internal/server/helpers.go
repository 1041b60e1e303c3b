package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaitForHealthy polls baseURL's /health endpoint until it answers 200 OK or
// ctx is done. baseURL has no trailing slash, e.g. "http://localhost:8080".
func WaitForHealthy(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: time.Second}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if healthy(ctx, client, baseURL+"/health") {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server at %s not healthy: %w", baseURL, ctx.Err())
		case <-ticker.C:
		}
	}
}

func healthy(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

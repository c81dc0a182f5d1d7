package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v5"

	"github.com/nzcvm/nzcvm-webapp/internal/catalog"
)

const fetchAttempts = 3

// ModelVersions lists the model versions the backend can display.
func (c *Client) ModelVersions(ctx context.Context) ([]catalog.ModelVersion, error) {
	var body struct {
		ModelVersions []catalog.ModelVersion `json:"model_versions"`
	}
	if err := c.getJSON(ctx, c.endpoint("model-versions", "list"), &body); err != nil {
		return nil, err
	}
	return body.ModelVersions, nil
}

// OverlayFiles lists the overlay files the backend serves.
func (c *Client) OverlayFiles(ctx context.Context) ([]string, error) {
	var body struct {
		Files []string `json:"files"`
	}
	if err := c.getJSON(ctx, c.endpoint("geojson", "list"), &body); err != nil {
		return nil, err
	}
	return body.Files, nil
}

// Overlay fetches one overlay file.
func (c *Client) Overlay(ctx context.Context, name string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.endpoint("geojson", name), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// getJSON retries network errors and 5xx responses. Other failures are
// returned at once.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, readAPIError(resp)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(readAPIError(resp))
		}
		return io.ReadAll(resp.Body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(fetchAttempts))
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

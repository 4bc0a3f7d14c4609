// Package paddleapi provides a client for the PaddlePartner backend REST API.
package paddleapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the water-body search operations of the backend API.
type Client interface {
	// SearchByCoordinate returns raw water-body records near a point.
	SearchByCoordinate(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error)
	// SearchByName returns raw water-body records matching a name query.
	SearchByName(ctx context.Context, name string) ([]map[string]any, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new backend API client. The token is sent as a bearer
// credential; pass an empty string for anonymous access.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.paddlepartner.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// getJSON executes a GET with exponential backoff retries on transient
// failures and returns the response body on 200.
func (c *httpClient) getJSON(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "paddleapi: create request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, eris.Wrap(lastErr, "paddleapi: request failed")
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "paddleapi: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("paddleapi: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("paddleapi: unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	return nil, eris.Wrap(lastErr, "paddleapi: request failed")
}

// decodeRecords accepts either a bare JSON array or an envelope with a
// "results" key; the two search endpoints disagree on the wrapper.
func decodeRecords(body []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var envelope struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "paddleapi: unmarshal search response")
	}
	return envelope.Results, nil
}

func (c *httpClient) SearchByCoordinate(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lng", fmt.Sprintf("%f", lng))
	q.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
	reqURL := fmt.Sprintf("%s/api/water-bodies/search?%s", c.baseURL, q.Encode())

	body, err := c.getJSON(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

func (c *httpClient) SearchByName(ctx context.Context, name string) ([]map[string]any, error) {
	reqURL := fmt.Sprintf("%s/api/water-bodies/search-by-name?name=%s", c.baseURL, url.QueryEscape(name))

	body, err := c.getJSON(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

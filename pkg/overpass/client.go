// Package overpass provides a client for the OSM Overpass API, used to find
// water features near a point when community coverage is thin.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the external candidate lookup operations.
type Client interface {
	// AroundPoint returns raw external candidate records for water features
	// within radiusMeters of the given point.
	AroundPoint(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom Overpass endpoint (for testing or a mirror).
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

// WithRateLimit overrides the default request rate.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Overpass client. The public Overpass instances ask
// clients to stay well under one request per second, so the default limiter
// is conservative.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://overpass-api.de/api/interpreter",
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// overpassResponse mirrors the subset of the Overpass JSON output we read.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// waterQuery builds an Overpass QL query for named water features around a
// point. "out center" collapses ways and relations to a representative point.
func waterQuery(lat, lng, radiusMeters float64) string {
	around := fmt.Sprintf("(around:%.0f,%.6f,%.6f)", radiusMeters, lat, lng)
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, filter := range []string{
		`["natural"="water"]["name"]`,
		`["waterway"="river"]["name"]`,
		`["waterway"="stream"]["name"]`,
	} {
		fmt.Fprintf(&b, "nwr%s%s;", filter, around)
	}
	b.WriteString(");out center;")
	return b.String()
}

func (c *httpClient) AroundPoint(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limiter wait")
	}

	form := url.Values{"data": {waterQuery(lat, lng, radiusMeters)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("overpass: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "overpass: unmarshal response")
	}

	return elementsToRecords(parsed.Elements), nil
}

// elementsToRecords converts Overpass elements into the raw record shape the
// candidate normalizer consumes. Unnamed and uncentered elements are skipped.
func elementsToRecords(elements []overpassElement) []map[string]any {
	records := make([]map[string]any, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}

		lat, lon := el.Lat, el.Lon
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}
		if lat == 0 && lon == 0 {
			continue
		}

		rec := map[string]any{
			"externalId":   strconv.FormatInt(el.ID, 10),
			"externalType": el.Type,
			"name":         name,
			"lat":          lat,
			"lon":          lon,
		}
		if tag := featureTag(el.Tags); tag != "" {
			rec["type"] = tag
		}
		records = append(records, rec)
	}
	return records
}

func featureTag(tags map[string]string) string {
	if w := tags["waterway"]; w != "" {
		return w
	}
	if tags["natural"] == "water" {
		if w := tags["water"]; w != "" {
			return w
		}
		return "water"
	}
	return ""
}

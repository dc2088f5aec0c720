package thingspeak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"heartbot/internal/metrics"
	"heartbot/internal/models"
)

// DefaultBaseURL is the public ThingSpeak host.
const DefaultBaseURL = "https://thingspeak.com"

var (
	// ErrNotFound means the channel/key pair is invalid or the feed is empty.
	ErrNotFound = errors.New("thingspeak: not found")
	// ErrParse means the response or one of its values could not be interpreted.
	ErrParse = errors.New("thingspeak: parse error")
)

// Client fetches channel feeds.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// FetchFeed downloads the full feed of a channel and localizes its timestamps.
func (c *Client) FetchFeed(ctx context.Context, channelID, readKey string) (*models.Feed, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/feed.json?api_key=%s",
		c.BaseURL, url.PathEscape(channelID), url.QueryEscape(readKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, redact(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		metrics.TelemetryFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thingspeak request: %w", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.TelemetryFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thingspeak read body: %w", err)
	}

	var out models.FeedResponse
	if jsonErr := json.Unmarshal(body, &out); jsonErr != nil {
		if resp.StatusCode == http.StatusNotFound {
			metrics.TelemetryFetches.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		metrics.TelemetryFetches.WithLabelValues("parse_error").Inc()
		return nil, fmt.Errorf("%w: status=%d: %v", ErrParse, resp.StatusCode, jsonErr)
	}
	if out.Error == "Not Found" || resp.StatusCode == http.StatusNotFound {
		metrics.TelemetryFetches.WithLabelValues("not_found").Inc()
		log.Printf("thingspeak: channel %s not found", channelID)
		return nil, ErrNotFound
	}
	if out.Error != "" {
		metrics.TelemetryFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thingspeak error: %s", out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.TelemetryFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thingspeak request failed: status=%d", resp.StatusCode)
	}
	if len(out.Feeds) == 0 {
		metrics.TelemetryFetches.WithLabelValues("empty").Inc()
		return nil, ErrNotFound
	}

	feed, err := buildFeed(out.Feeds)
	if err != nil {
		metrics.TelemetryFetches.WithLabelValues("parse_error").Inc()
		return nil, err
	}
	metrics.TelemetryFetches.WithLabelValues("success").Inc()
	return feed, nil
}

// redact drops the request URL, which carries the read key, from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s feed: %w", uerr.Op, uerr.Err)
	}
	return err
}

func buildFeed(entries []models.FeedEntry) (*models.Feed, error) {
	raw := make([]string, len(entries))
	feed := &models.Feed{}
	for i := range feed.Fields {
		feed.Fields[i] = make([]*string, len(entries))
	}
	for i, e := range entries {
		raw[i] = e.CreatedAt
		feed.Fields[0][i] = e.Field1
		feed.Fields[1][i] = e.Field2
		feed.Fields[2][i] = e.Field3
		feed.Fields[3][i] = e.Field4
		feed.Fields[4][i] = e.Field5
	}
	times, err := LocalizeTimestamps(raw)
	if err != nil {
		return nil, err
	}
	feed.Times = times
	return feed, nil
}

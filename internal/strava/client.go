package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// APIError is a non-200 response from Strava.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava API error %d: %s", e.Status, e.Body)
}

// Client is a Strava API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a client authorized by tokenSource
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return NewClientWithHTTP(oauth2.NewClient(context.Background(), tokenSource), BaseURL)
}

// NewClientWithHTTP creates a client against baseURL using httpClient as is.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		rateLimiter: NewRateLimiter(),
	}
}

// Window bounds an activity listing. Zero times are open ends.
type Window struct {
	After  time.Time
	Before time.Time
}

// ListActivities fetches one page of activities.
func (c *Client) ListActivities(ctx context.Context, w Window, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !w.After.IsZero() {
		params.Set("after", strconv.FormatInt(w.After.Unix(), 10))
	}
	if !w.Before.IsZero() {
		params.Set("before", strconv.FormatInt(w.Before.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.getJSON(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, fmt.Errorf("listing activities page %d: %w", page, err)
	}
	return activities, nil
}

// FetchActivities walks pages until a short page or maxPages is reached.
// On error it returns what was fetched so far alongside the error.
func (c *Client) FetchActivities(ctx context.Context, w Window, maxPages, perPage int, onProgress func(fetched int)) ([]Activity, error) {
	var all []Activity
	for page := 1; page <= maxPages; page++ {
		batch, err := c.ListActivities(ctx, w, page, perPage)
		if err != nil {
			return all, err
		}
		all = append(all, batch...)
		if onProgress != nil {
			onProgress(len(all))
		}
		if len(batch) < perPage {
			return all, nil
		}
	}

	log.WithFields(log.Fields{"pages": maxPages, "fetched": len(all)}).Warn("activity page ceiling reached")
	return all, nil
}

// GetActivityStreams fetches the time-aligned streams of one activity.
func (c *Client) GetActivityStreams(ctx context.Context, activityID int64) (*Streams, error) {
	params := url.Values{}
	params.Set("keys", "time,latlng,distance,altitude,velocity_smooth,heartrate,cadence")
	params.Set("key_by_type", "true")

	var streams Streams
	if err := c.getJSON(ctx, fmt.Sprintf("/activities/%d/streams", activityID), params, &streams); err != nil {
		return nil, fmt.Errorf("fetching streams for %d: %w", activityID, err)
	}
	return &streams, nil
}

// RateLimitStatus returns the remaining short and daily quota
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Remaining()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

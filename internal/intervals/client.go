package intervals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"runcoach/internal/analysis"
)

const BaseURL = "https://intervals.icu/api/v1"

// ErrNotFound is returned when the API has no such resource
var ErrNotFound = errors.New("not found")

// streamTypes are the stream keys requested for every activity
var streamTypes = []string{"time", "velocity_smooth", "heartrate", "cadence", "grade_smooth", "distance"}

// Client is an intervals.icu API client
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	baseURL     string
	athleteID   string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimiter replaces the default rate limiter
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) { c.rateLimiter = r }
}

// NewClient creates a client that authenticates with a bearer access token.
// athleteID "0" means the athlete owning the token.
func NewClient(accessToken, athleteID string, opts ...Option) *Client {
	if athleteID == "" {
		athleteID = "0"
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	c := &Client{
		httpClient:  oauth2.NewClient(context.Background(), ts),
		rateLimiter: NewRateLimiter(),
		baseURL:     BaseURL,
		athleteID:   athleteID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetActivities fetches activities whose local start date is in [oldest, newest]
func (c *Client) GetActivities(ctx context.Context, oldest, newest time.Time) ([]Activity, error) {
	params := url.Values{}
	params.Set("oldest", oldest.Format("2006-01-02"))
	params.Set("newest", newest.Format("2006-01-02"))

	var activities []Activity
	path := fmt.Sprintf("/athlete/%s/activities", c.athleteID)
	if err := c.getJSON(ctx, path, params, &activities); err != nil {
		return nil, fmt.Errorf("fetching activities: %w", err)
	}
	return activities, nil
}

// GetActivityIntervals fetches the analysed intervals of an activity
func (c *Client) GetActivityIntervals(ctx context.Context, activityID string) ([]analysis.ICUInterval, error) {
	var body ActivityIntervals
	path := fmt.Sprintf("/activity/%s/intervals", url.PathEscape(activityID))
	if err := c.getJSON(ctx, path, nil, &body); err != nil {
		return nil, fmt.Errorf("fetching intervals for %s: %w", activityID, err)
	}
	return body.ICUIntervals, nil
}

// GetActivityStreams fetches raw stream data for an activity
func (c *Client) GetActivityStreams(ctx context.Context, activityID string) (Streams, error) {
	params := url.Values{}
	params.Set("types", strings.Join(streamTypes, ","))

	var streams Streams
	path := fmt.Sprintf("/activity/%s/streams", url.PathEscape(activityID))
	if err := c.getJSON(ctx, path, params, &streams); err != nil {
		return nil, fmt.Errorf("fetching streams for %s: %w", activityID, err)
	}
	return streams, nil
}

// GetWellness fetches daily wellness entries in [oldest, newest]
func (c *Client) GetWellness(ctx context.Context, oldest, newest time.Time) ([]Wellness, error) {
	params := url.Values{}
	params.Set("oldest", oldest.Format("2006-01-02"))
	params.Set("newest", newest.Format("2006-01-02"))

	var days []Wellness
	path := fmt.Sprintf("/athlete/%s/wellness", c.athleteID)
	if err := c.getJSON(ctx, path, params, &days); err != nil {
		return nil, fmt.Errorf("fetching wellness: %w", err)
	}
	return days, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	resp, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.rateLimiter.UpdateFromResponse(resp.StatusCode, resp.Header)

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, apiError{}.message(body))
	}

	return resp, nil
}

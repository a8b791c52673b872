package ayrshare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://app.ayrshare.com/api"
	defaultTimeout = 30 * time.Second
)

// PlatformLinkedIn is the aggregator's identifier for LinkedIn
const PlatformLinkedIn = "linkedin"

// Client is an Ayrshare social publishing API client.
// The API key is supplied per call because every user brings their own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// New creates a new Ayrshare API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-success answer from the Ayrshare API
type APIError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

// Error returns the vendor's message so it can be shown to the user as is
func (e *APIError) Error() string {
	return e.Message
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (r errorResponse) message() string {
	if r.Message != "" {
		return r.Message
	}
	for _, e := range r.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	return ""
}

// Targeting narrows the audience of a LinkedIn company page post
type Targeting struct {
	Countries        []string `json:"countries,omitempty"`
	Seniorities      []string `json:"seniorities,omitempty"`
	Industries       []string `json:"industries,omitempty"`
	Degrees          []string `json:"degrees,omitempty"`
	FieldsOfStudy    []string `json:"fieldsOfStudy,omitempty"`
	JobFunctions     []string `json:"jobFunctions,omitempty"`
	StaffCountRanges []string `json:"staffCountRanges,omitempty"`
}

// LinkedInOptions are the LinkedIn specific fields of a post request
type LinkedInOptions struct {
	Visibility   string     `json:"visibility,omitempty"`
	DisableShare bool       `json:"disableShare,omitempty"`
	Title        string     `json:"title,omitempty"`
	AltText      []string   `json:"altText,omitempty"`
	ThumbNail    string     `json:"thumbNail,omitempty"`
	Targeting    *Targeting `json:"targeting,omitempty"`
}

// PostInput represents input for creating or scheduling a post
type PostInput struct {
	Post            string           `json:"post"`
	Platforms       []string         `json:"platforms"`
	MediaURLs       []string         `json:"mediaUrls,omitempty"`
	ScheduleDate    string           `json:"scheduleDate,omitempty"` // RFC 3339, UTC
	LinkedInOptions *LinkedInOptions `json:"linkedInOptions,omitempty"`
}

// PostID is the per-network entry of a post response
type PostID struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	PostURL  string `json:"postUrl,omitempty"`
}

// PostOutput represents the response to a post request
type PostOutput struct {
	Status  string   `json:"status"`
	ID      string   `json:"id"`
	RefID   string   `json:"refId"`
	PostIDs []PostID `json:"postIds"`
}

// Post publishes a post immediately, or schedules it when ScheduleDate is set
func (c *Client) Post(ctx context.Context, apiKey string, in PostInput) (*PostOutput, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/post", apiKey, in, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("decoding response: empty body")
	}

	var out PostOutput
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if out.Status == "error" {
		apiErr := &APIError{StatusCode: http.StatusOK, Body: trimmed}
		var errResp errorResponse
		if json.Unmarshal(trimmed, &errResp) == nil {
			apiErr.Message = errResp.message()
		}
		if apiErr.Message == "" {
			apiErr.Message = "post rejected by aggregator"
		}
		return nil, apiErr
	}
	if out.ID == "" && len(out.PostIDs) == 0 {
		return nil, fmt.Errorf("decoding response: no post id")
	}
	return &out, nil
}

// DeletePost removes a published or scheduled post and returns the raw response
func (c *Client) DeletePost(ctx context.Context, apiKey, id string) (json.RawMessage, error) {
	var out json.RawMessage
	body := map[string]string{"id": id}
	if err := c.call(ctx, http.MethodDelete, "/post", apiKey, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats is the per-network counter set of an analytics response.
// Nil fields were absent from the payload.
type Stats struct {
	Impressions *float64 `json:"impressions"`
	Views       *float64 `json:"views"`
	Likes       *float64 `json:"likes"`
	Reactions   *float64 `json:"reactions"`
	Comments    *float64 `json:"comments"`
	Shares      *float64 `json:"shares"`
}

// AnalyticsOutput represents the response of a post analytics request
type AnalyticsOutput struct {
	Status   string `json:"status"`
	LinkedIn *Stats `json:"linkedin"`
	Series   *struct {
		LinkedIn *Stats `json:"linkedin"`
	} `json:"series"`
}

// LinkedInStats returns the LinkedIn counters wherever the payload put them
func (o *AnalyticsOutput) LinkedInStats() Stats {
	if o.LinkedIn != nil {
		return *o.LinkedIn
	}
	if o.Series != nil && o.Series.LinkedIn != nil {
		return *o.Series.LinkedIn
	}
	return Stats{}
}

// PostAnalytics fetches engagement counters for a post
func (c *Client) PostAnalytics(ctx context.Context, apiKey, id string, platforms []string) (*AnalyticsOutput, error) {
	body := struct {
		ID        string   `json:"id"`
		Platforms []string `json:"platforms"`
	}{ID: id, Platforms: platforms}

	var out AnalyticsOutput
	if err := c.call(ctx, http.MethodPost, "/analytics/post", apiKey, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path, apiKey string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Valid(body) {
			apiErr.Body = body
		}
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Message = errResp.message()
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("API Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return apiErr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

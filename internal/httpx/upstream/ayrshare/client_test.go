package ayrshare

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, body string, got *capturedRequest) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.Method = r.Method
			got.Path = r.URL.Path
			got.Auth = r.Header.Get("Authorization")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &got.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL + "/"))
}

func TestClientPost(t *testing.T) {
	var got capturedRequest
	c := newTestServer(t, http.StatusOK, `{"status":"success","id":"li-1","refId":"ay-1","postIds":[{"id":"urn:li:1","platform":"linkedin","status":"success"}]}`, &got)

	out, err := c.Post(context.Background(), "key-1", PostInput{
		Post:      "Hello world",
		Platforms: []string{PlatformLinkedIn},
		LinkedInOptions: &LinkedInOptions{
			Visibility: "public",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "li-1", out.ID)
	assert.Equal(t, "ay-1", out.RefID)
	require.Len(t, out.PostIDs, 1)
	assert.Equal(t, "urn:li:1", out.PostIDs[0].ID)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/post", got.Path)
	assert.Equal(t, "Bearer key-1", got.Auth)
	assert.Equal(t, "Hello world", got.Body["post"])
	assert.Equal(t, []any{"linkedin"}, got.Body["platforms"])
	assert.NotContains(t, got.Body, "mediaUrls")
	assert.NotContains(t, got.Body, "scheduleDate")
}

func TestClientErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"vendor message", http.StatusBadRequest, `{"status":"error","message":"Duplicate post"}`, "Duplicate post"},
		{"nested errors", http.StatusBadRequest, `{"status":"error","errors":[{"message":"LinkedIn token expired"}]}`, "LinkedIn token expired"},
		{"no message", http.StatusForbidden, `{"status":"error"}`, "API Error: 403 Forbidden"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "API Error: 502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.status, tt.body, nil)

			_, err := c.Post(context.Background(), "key", PostInput{Post: "x"})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestClientPost_StatusErrorInSuccessBody(t *testing.T) {
	c := newTestServer(t, http.StatusOK, `{"status":"error"}`, nil)

	_, err := c.Post(context.Background(), "key", PostInput{Post: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestClientPost_StatusErrorKeepsVendorMessage(t *testing.T) {
	c := newTestServer(t, http.StatusOK, `{"status":"error","errors":[{"message":"Duplicate post"}]}`, nil)

	_, err := c.Post(context.Background(), "key", PostInput{Post: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Duplicate post", apiErr.Error())
}

func TestClientPost_MalformedSuccessBody(t *testing.T) {
	for _, body := range []string{``, `null`, `{}`, `{"status":"success"}`, `not json`} {
		c := newTestServer(t, http.StatusOK, body, nil)

		out, err := c.Post(context.Background(), "key", PostInput{Post: "x"})
		assert.Error(t, err, "body %q", body)
		assert.Nil(t, out)
	}
}

func TestWithTimeout_LeavesCallerClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: 5 * time.Second}
	c := New(WithHTTPClient(shared), WithTimeout(time.Minute))

	assert.Equal(t, 5*time.Second, shared.Timeout)
	assert.Equal(t, time.Minute, c.httpClient.Timeout)
}

func TestClientDeletePost(t *testing.T) {
	var got capturedRequest
	c := newTestServer(t, http.StatusOK, `{"status":"success","id":"ay-1"}`, &got)

	raw, err := c.DeletePost(context.Background(), "key-1", "ay-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","id":"ay-1"}`, string(raw))
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/post", got.Path)
	assert.Equal(t, "ay-1", got.Body["id"])
}

func TestClientPostAnalytics(t *testing.T) {
	var got capturedRequest
	c := newTestServer(t, http.StatusOK, `{"status":"success","series":{"linkedin":{"views":12,"reactions":3}}}`, &got)

	out, err := c.PostAnalytics(context.Background(), "key-1", "ay-1", []string{PlatformLinkedIn})
	require.NoError(t, err)

	stats := out.LinkedInStats()
	require.NotNil(t, stats.Views)
	assert.Equal(t, 12.0, *stats.Views)
	assert.Nil(t, stats.Impressions)
	assert.Equal(t, "/analytics/post", got.Path)
	assert.Equal(t, "ay-1", got.Body["id"])
}

package ayrshare

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
)

func TestPublisherPublish(t *testing.T) {
	var got capturedRequest
	c := newTestServer(t, http.StatusOK, `{"status":"success","id":"li-1","refId":"ay-1"}`, &got)
	p := NewPublisher(c)

	receipt, err := p.Publish(context.Background(), "key-1", entity.PublishRequest{
		Content:   "Hello world",
		MediaURLs: []string{"https://cdn.example.com/a.png"},
		Options: entity.LinkedInOptions{
			DisableShare: true,
			Targeting:    &entity.Targeting{Countries: []string{"US"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "li-1", receipt.PrimaryID())
	assert.Equal(t, "ay-1", receipt.RefID)

	opts, ok := got.Body["linkedInOptions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "public", opts["visibility"])
	assert.Equal(t, true, opts["disableShare"])
	assert.Equal(t, map[string]any{"countries": []any{"US"}}, opts["targeting"])
	assert.Equal(t, []any{"https://cdn.example.com/a.png"}, got.Body["mediaUrls"])
}

func TestPublisherSchedule(t *testing.T) {
	var got capturedRequest
	c := newTestServer(t, http.StatusOK, `{"status":"scheduled","postIds":[{"id":"sched-9","platform":"linkedin"}]}`, &got)
	p := NewPublisher(c)

	at := time.Date(2030, 1, 2, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	receipt, err := p.Publish(context.Background(), "key-1", entity.PublishRequest{
		Content:      "Later",
		ScheduleDate: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, "sched-9", receipt.PrimaryID())
	assert.Equal(t, "2030-01-02T08:30:00Z", got.Body["scheduleDate"])
}

func TestPublisherPublish_RejectedResponses(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", ``, "decoding response: empty body"},
		{"no post id", `{"status":"success"}`, "decoding response: no post id"},
		{"status error", `{"status":"error","errors":[{"message":"Duplicate post"}]}`, "Duplicate post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(newTestServer(t, http.StatusOK, tt.body, nil))

			receipt, err := p.Publish(context.Background(), "key-1", entity.PublishRequest{Content: "Hello"})
			require.Error(t, err)
			assert.Nil(t, receipt)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestPublisherFetchMetrics(t *testing.T) {
	tests := []struct {
		name string
		body string
		want entity.MetricsUpdate
	}{
		{
			name: "impressions win over views",
			body: `{"linkedin":{"impressions":40,"views":10,"likes":5,"reactions":7,"comments":2,"shares":1}}`,
			want: entity.MetricsUpdate{Views: intp(40), Likes: intp(5), Comments: intp(2), Shares: intp(1)},
		},
		{
			name: "series fallback and reactions",
			body: `{"series":{"linkedin":{"views":10,"reactions":7}}}`,
			want: entity.MetricsUpdate{Views: intp(10), Likes: intp(7)},
		},
		{
			name: "explicit zero is present",
			body: `{"linkedin":{"comments":0}}`,
			want: entity.MetricsUpdate{Comments: intp(0)},
		},
		{
			name: "no stats",
			body: `{"status":"success"}`,
			want: entity.MetricsUpdate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(newTestServer(t, http.StatusOK, tt.body, nil))

			got, err := p.FetchMetrics(context.Background(), "key", "ay-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestPublisherFetchMetrics_StatusError(t *testing.T) {
	p := NewPublisher(newTestServer(t, http.StatusOK, `{"status":"error"}`, nil))

	_, err := p.FetchMetrics(context.Background(), "key", "ay-1")
	assert.True(t, errors.Is(err, ErrAnalyticsUnavailable))
}

func TestPublisherDelete_VendorError(t *testing.T) {
	p := NewPublisher(newTestServer(t, http.StatusNotFound, `{"status":"error","message":"Post not found"}`, nil))

	_, err := p.Delete(context.Background(), "key", "ay-1")
	require.Error(t, err)
	assert.Equal(t, "Post not found", err.Error())
}

func intp(v int) *int { return &v }

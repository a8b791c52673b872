package ayrshare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/observability"
)

const vendor = "ayrshare"

// ErrAnalyticsUnavailable is returned when the aggregator answers an analytics request with status error
var ErrAnalyticsUnavailable = errors.New("analytics not available for post")

// Publisher maps post workflow requests onto the Ayrshare API
type Publisher struct {
	client *Client
}

// NewPublisher creates a new Ayrshare publisher
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish delivers the post to LinkedIn, or schedules it when req.ScheduleDate is set
func (p *Publisher) Publish(ctx context.Context, apiKey string, req entity.PublishRequest) (*entity.PublishReceipt, error) {
	op := "publish"
	if req.ScheduleDate != nil {
		op = "schedule"
	}
	defer observability.TrackUpstream(vendor, op)()

	in := PostInput{
		Post:            req.Content,
		Platforms:       []string{PlatformLinkedIn},
		LinkedInOptions: linkedInOptions(req.Options.WithDefaults()),
	}
	if len(req.MediaURLs) > 0 {
		in.MediaURLs = req.MediaURLs
	}
	if req.ScheduleDate != nil {
		in.ScheduleDate = req.ScheduleDate.UTC().Format(time.RFC3339)
	}

	out, err := p.client.Post(ctx, apiKey, in)
	if err != nil {
		return nil, err
	}

	receipt := &entity.PublishReceipt{ID: out.ID, RefID: out.RefID}
	if len(out.PostIDs) > 0 {
		receipt.FirstPostID = out.PostIDs[0].ID
	}
	return receipt, nil
}

// Delete removes the aggregator's copy of a post
func (p *Publisher) Delete(ctx context.Context, apiKey, externalID string) (*entity.DeleteReceipt, error) {
	defer observability.TrackUpstream(vendor, "delete")()

	raw, err := p.client.DeletePost(ctx, apiKey, externalID)
	if err != nil {
		return nil, err
	}
	return &entity.DeleteReceipt{Response: raw}, nil
}

// FetchMetrics reads the LinkedIn counters of a post.
// Impressions win over views and likes over reactions when both are present.
func (p *Publisher) FetchMetrics(ctx context.Context, apiKey, externalID string) (*entity.MetricsUpdate, error) {
	defer observability.TrackUpstream(vendor, "analytics")()

	out, err := p.client.PostAnalytics(ctx, apiKey, externalID, []string{PlatformLinkedIn})
	if err != nil {
		return nil, err
	}
	if out.Status == "error" {
		return nil, fmt.Errorf("%w: %s", ErrAnalyticsUnavailable, externalID)
	}

	stats := out.LinkedInStats()
	return &entity.MetricsUpdate{
		Views:    firstCount(stats.Impressions, stats.Views),
		Likes:    firstCount(stats.Likes, stats.Reactions),
		Comments: firstCount(stats.Comments),
		Shares:   firstCount(stats.Shares),
	}, nil
}

func firstCount(values ...*float64) *int {
	for _, v := range values {
		if v != nil {
			n := int(math.Round(*v))
			return &n
		}
	}
	return nil
}

func linkedInOptions(o entity.LinkedInOptions) *LinkedInOptions {
	out := &LinkedInOptions{
		Visibility:   string(o.Visibility),
		DisableShare: o.DisableShare,
		Title:        o.Title,
		AltText:      o.AltText,
		ThumbNail:    o.ThumbNail,
	}
	if t := o.Targeting; !t.IsEmpty() {
		out.Targeting = &Targeting{
			Countries:        t.Countries,
			Seniorities:      t.Seniorities,
			Industries:       t.Industries,
			Degrees:          t.Degrees,
			FieldsOfStudy:    t.FieldsOfStudy,
			JobFunctions:     t.JobFunctions,
			StaffCountRanges: t.StaffCountRanges,
		}
	}
	return out
}

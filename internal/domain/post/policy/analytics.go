package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/observability"
)

// SyncOutcome classifies a batch analytics sync
type SyncOutcome string

const (
	SyncNothingToSync SyncOutcome = "nothing_to_sync"
	SyncAllFailed     SyncOutcome = "all_failed"
	SyncPartial       SyncOutcome = "partial"
	SyncOK            SyncOutcome = "ok"
)

// SyncSummary aggregates a batch analytics sync
type SyncSummary struct {
	Candidates int         `json:"candidates"`
	Synced     int         `json:"synced"`
	Failed     int         `json:"failed"`
	Outcome    SyncOutcome `json:"outcome"`
}

// Message renders the summary for a notification
func (s SyncSummary) Message() string {
	switch s.Outcome {
	case SyncNothingToSync:
		return "No published posts to sync"
	case SyncAllFailed:
		return fmt.Sprintf("Could not sync analytics for any of %d posts", s.Candidates)
	case SyncPartial:
		return fmt.Sprintf("Synced analytics for %d of %d posts", s.Synced, s.Candidates)
	default:
		return fmt.Sprintf("Synced analytics for %d posts", s.Synced)
	}
}

// SyncOne refreshes a post's engagement metrics and reports whether it succeeded.
// A post without an external id or a missing key returns false without any call or write.
func (p *Policy) SyncOne(ctx context.Context, post *entity.Post, apiKey string) bool {
	externalID := post.ExternalID()
	if externalID == "" || strings.TrimSpace(apiKey) == "" {
		return false
	}

	update, err := p.publisher.FetchMetrics(ctx, apiKey, externalID)
	if err != nil {
		observability.RecordSync(false)
		p.logger.Warn("analytics fetch failed", "post_id", post.ID, "error", err)
		return false
	}

	merged := post.Metrics.Merge(*update)
	if err := p.store.UpdateMetrics(ctx, post.ID, merged); err != nil {
		observability.RecordSync(false)
		p.logger.Error("saving metrics failed", "post_id", post.ID, "error", err)
		return false
	}

	post.Metrics = merged
	observability.RecordSync(true)
	return true
}

// SyncMany refreshes every eligible post one at a time
func (p *Policy) SyncMany(ctx context.Context, posts []entity.Post, apiKey string) SyncSummary {
	var summary SyncSummary

	for i := range posts {
		if !posts[i].CanSyncAnalytics() {
			continue
		}
		summary.Candidates++

		if ctx.Err() != nil {
			summary.Failed++
			continue
		}
		if p.SyncOne(ctx, &posts[i], apiKey) {
			summary.Synced++
		} else {
			summary.Failed++
		}
	}

	switch {
	case summary.Candidates == 0:
		summary.Outcome = SyncNothingToSync
	case summary.Synced == 0:
		summary.Outcome = SyncAllFailed
	case summary.Failed > 0:
		summary.Outcome = SyncPartial
	default:
		summary.Outcome = SyncOK
	}

	return summary
}

// SyncUser refreshes all of a user's published posts with the stored key
func (p *Policy) SyncUser(ctx context.Context, userID string) (*SyncSummary, error) {
	apiKey, err := p.userKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := p.store.ListSyncCandidates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sync candidates: %w", err)
	}

	summary := p.SyncMany(ctx, posts, apiKey)
	p.logger.Info("analytics sync finished", "user_id", userID,
		"candidates", summary.Candidates, "synced", summary.Synced, "outcome", summary.Outcome)

	return &summary, nil
}

// SyncPost refreshes a single post of the user with the stored key
func (p *Policy) SyncPost(ctx context.Context, userID, postID string) (*entity.Post, bool, error) {
	post, err := p.store.GetByID(ctx, postID)
	if err != nil {
		return nil, false, fmt.Errorf("loading post: %w", err)
	}
	if post == nil {
		return nil, false, entity.ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, false, entity.ErrPostNotOwned
	}

	apiKey, err := p.userKey(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	return post, p.SyncOne(ctx, post, apiKey), nil
}

func (p *Policy) userKey(ctx context.Context, userID string) (string, error) {
	apiKey, err := p.keys.AyrshareKey(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading api key: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", entity.ErrMissingAPIKey
	}
	return apiKey, nil
}

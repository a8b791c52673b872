package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/observability"
)

// Store defines the post persistence the workflow needs
type Store interface {
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	Upsert(ctx context.Context, post *entity.Post) error
	UpdateStatus(ctx context.Context, id string, status entity.Status, errorLog string) error
	SetPublished(ctx context.Context, id, linkedInPostID, ayrshareID string, at time.Time) error
	SetTrackingID(ctx context.Context, id, ayrshareID string) error
	UpdateMetrics(ctx context.Context, id string, metrics entity.Metrics) error
	Delete(ctx context.Context, id string) error
	ListSyncCandidates(ctx context.Context, userID string) ([]entity.Post, error)
	ListStuck(ctx context.Context, before time.Time) ([]entity.Post, error)
}

// Publisher defines the aggregator operations the workflow needs.
// This interface is defined here (consumer) not in the upstream package (provider)
type Publisher interface {
	Publish(ctx context.Context, apiKey string, req entity.PublishRequest) (*entity.PublishReceipt, error)
	Delete(ctx context.Context, apiKey, externalID string) (*entity.DeleteReceipt, error)
	FetchMetrics(ctx context.Context, apiKey, externalID string) (*entity.MetricsUpdate, error)
}

// KeyProvider resolves a user's aggregator API key
type KeyProvider interface {
	AyrshareKey(ctx context.Context, userID string) (string, error)
}

// Policy orchestrates the publish, schedule, delete and analytics use-cases.
// Delivery is at-least-once: the caller-supplied post id is the idempotency key.
type Policy struct {
	store     Store
	publisher Publisher
	keys      KeyProvider
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Policy
type Option func(*Policy)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// New creates a new post workflow policy
func New(store Store, publisher Publisher, keys KeyProvider, logger *slog.Logger, opts ...Option) *Policy {
	p := &Policy{
		store:     store,
		publisher: publisher,
		keys:      keys,
		logger:    logger.With("component", "post_workflow"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of a workflow operation.
// Err holds the cause of a failure for callers that classify it.
type Result struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Post    *entity.Post `json:"post,omitempty"`
	Err     error        `json:"-"`
}

// PublishInput represents input for publishing a post right away
type PublishInput struct {
	PostID    string // idempotency key, required
	UserID    string
	Title     string
	Content   string
	APIKey    string
	MediaURLs []string
	Hashtags  []string
	Options   entity.LinkedInOptions
	Variants  []entity.Variant
}

// ScheduleInput represents input for scheduling a post
type ScheduleInput struct {
	PublishInput
	ScheduledTime time.Time
}

const (
	opPublish  = "publish"
	opSchedule = "schedule"
	opDelete   = "delete"
)

// PublishNow drives a post through publishing to published or failed
func (p *Policy) PublishNow(ctx context.Context, in PublishInput) Result {
	if err := p.validate(in); err != nil {
		return p.reject(opPublish, err)
	}

	return p.run(ctx, opPublish, in, nil)
}

// Schedule hands a post to the aggregator for delivery at the given time
func (p *Policy) Schedule(ctx context.Context, in ScheduleInput) Result {
	if err := p.validate(in.PublishInput); err != nil {
		return p.reject(opSchedule, err)
	}
	if in.ScheduledTime.IsZero() {
		return p.reject(opSchedule, entity.ErrScheduledTimeRequired)
	}
	if !in.ScheduledTime.After(p.now()) {
		return p.reject(opSchedule, entity.ErrScheduledTimeInPast)
	}

	at := in.ScheduledTime.UTC()
	return p.run(ctx, opSchedule, in.PublishInput, &at)
}

func (p *Policy) validate(in PublishInput) error {
	if in.PostID == "" {
		return entity.ErrMissingIdempotencyKey
	}
	if _, err := uuid.Parse(in.PostID); err != nil {
		return entity.ErrInvalidIdempotencyKey
	}
	if in.UserID == "" {
		return entity.ErrEmptyUserID
	}
	if strings.TrimSpace(in.APIKey) == "" {
		return entity.ErrMissingAPIKey
	}
	if strings.TrimSpace(in.Content) == "" {
		return entity.ErrEmptyContent
	}
	return in.Options.Validate()
}

func (p *Policy) reject(op string, err error) Result {
	observability.RecordWorkflow(op, observability.ResultRejected)
	return Result{Success: false, Message: err.Error(), Err: err}
}

// run persists the in-flight status, calls the aggregator once and resolves the row.
// The external call is not cancelled when the caller goes away.
func (p *Policy) run(ctx context.Context, op string, in PublishInput, scheduledAt *time.Time) Result {
	ctx = context.WithoutCancel(ctx)

	existing, err := p.store.GetByID(ctx, in.PostID)
	if err != nil {
		return p.reject(op, fmt.Errorf("could not load post: %w", err))
	}

	post := &entity.Post{ID: in.PostID, UserID: in.UserID}
	if existing != nil {
		if existing.UserID != in.UserID {
			return p.reject(op, entity.ErrPostNotOwned)
		}
		if replay, ok := p.replay(op, existing); ok {
			return replay
		}
		post = existing
	}

	post.Title = in.Title
	if strings.TrimSpace(post.Title) == "" {
		post.Title = entity.DefaultPostTitle
	}
	post.Content = in.Content
	post.MediaURLs = in.MediaURLs
	if in.Hashtags != nil {
		post.Hashtags = in.Hashtags
	}
	if in.Variants != nil {
		post.GeneratedVariants = in.Variants
	}
	post.Status = entity.StatusPublishing
	if scheduledAt != nil {
		post.Status = entity.StatusScheduled
		post.ScheduledTime = scheduledAt
	}

	if err := p.store.Upsert(ctx, post); err != nil {
		return p.reject(op, fmt.Errorf("could not save post: %w", err))
	}
	p.logger.Info("post status changed", "post_id", post.ID, "status", post.Status, "operation", op)

	receipt, err := p.publisher.Publish(ctx, in.APIKey, entity.PublishRequest{
		Content:      post.Content,
		MediaURLs:    post.MediaURLs,
		ScheduleDate: scheduledAt,
		Options:      in.Options.WithDefaults(),
	})
	if err != nil {
		return p.fail(ctx, op, post, err)
	}

	if scheduledAt != nil {
		return p.confirmSchedule(ctx, post, receipt)
	}
	return p.confirmPublish(ctx, post, receipt)
}

// replay answers a repeated request for a post the aggregator already holds
func (p *Policy) replay(op string, existing *entity.Post) (Result, bool) {
	switch {
	case op == opPublish && existing.Status == entity.StatusPublished:
		observability.RecordWorkflow(op, observability.ResultSuccess)
		return Result{Success: true, Message: "Post was already published", Post: existing}, true
	case op == opSchedule && existing.Status == entity.StatusScheduled && existing.AyrshareID != "":
		observability.RecordWorkflow(op, observability.ResultSuccess)
		return Result{Success: true, Message: "Post was already scheduled", Post: existing}, true
	case existing.HasExternalCopy():
		return p.reject(op, entity.ErrPostNotEditable), true
	default:
		return Result{}, false
	}
}

func (p *Policy) fail(ctx context.Context, op string, post *entity.Post, cause error) Result {
	message := cause.Error()
	if message == "" {
		message = "publishing failed"
	}

	post.Status = entity.StatusFailed
	post.ErrorLog = message
	observability.RecordWorkflow(op, observability.ResultFailed)

	if err := p.store.UpdateStatus(ctx, post.ID, entity.StatusFailed, message); err != nil {
		p.logger.Error("failed to record publishing failure",
			"post_id", post.ID, "status", entity.StatusFailed, "error", err)
		return Result{Success: false, Message: message + " (the failure could not be saved)", Post: post, Err: cause}
	}

	p.logger.Info("post status changed", "post_id", post.ID, "status", post.Status, "operation", op, "error", message)
	return Result{Success: false, Message: message, Post: post, Err: cause}
}

func (p *Policy) confirmPublish(ctx context.Context, post *entity.Post, receipt *entity.PublishReceipt) Result {
	at := p.now().UTC()
	post.Status = entity.StatusPublished
	post.PublishedTime = &at
	post.LinkedInPostID = receipt.PrimaryID()
	post.AyrshareID = receipt.RefID
	post.ErrorLog = ""

	if err := p.store.SetPublished(ctx, post.ID, post.LinkedInPostID, post.AyrshareID, at); err != nil {
		return p.confirmFailed(opPublish, post, "Published to LinkedIn, but saving the result failed", err)
	}

	observability.RecordWorkflow(opPublish, observability.ResultSuccess)
	p.logger.Info("post status changed", "post_id", post.ID, "status", post.Status,
		"linkedin_post_id", post.LinkedInPostID, "ayrshare_id", post.AyrshareID)
	return Result{Success: true, Message: "Published to LinkedIn", Post: post}
}

func (p *Policy) confirmSchedule(ctx context.Context, post *entity.Post, receipt *entity.PublishReceipt) Result {
	post.AyrshareID = receipt.PrimaryID()

	if err := p.store.SetTrackingID(ctx, post.ID, post.AyrshareID); err != nil {
		return p.confirmFailed(opSchedule, post, "Scheduled on LinkedIn, but saving the result failed", err)
	}

	observability.RecordWorkflow(opSchedule, observability.ResultSuccess)
	p.logger.Info("post scheduled", "post_id", post.ID, "status", post.Status,
		"scheduled_time", post.ScheduledTime, "ayrshare_id", post.AyrshareID)
	return Result{Success: true, Message: "Scheduled on LinkedIn", Post: post}
}

// confirmFailed reports success: the external action already took effect.
// The row stays in flight until DetectStuck reports it.
func (p *Policy) confirmFailed(op string, post *entity.Post, message string, err error) Result {
	observability.RecordWorkflow(op, observability.ResultConfirmFailed)
	p.logger.Error("confirmation write failed after aggregator success",
		"post_id", post.ID, "status", post.Status, "error", err)
	return Result{Success: true, Message: message + ": " + err.Error(), Post: post}
}

// DeleteInput represents input for deleting a post
type DeleteInput struct {
	UserID string
	PostID string
	APIKey string
}

// DeleteResult is the outcome of a delete. Warning is set when the external copy may remain.
type DeleteResult struct {
	Success  bool            `json:"success"`
	Warning  string          `json:"warning,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// DeletePost removes a post locally, first trying to remove its external copy.
// External failures become a warning and never block the local delete.
func (p *Policy) DeletePost(ctx context.Context, in DeleteInput) (*DeleteResult, error) {
	post, err := p.store.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}
	if post.UserID != in.UserID {
		return nil, entity.ErrPostNotOwned
	}

	result := &DeleteResult{Success: true}
	if post.HasExternalCopy() {
		ext := p.DeleteExternal(ctx, in.APIKey, post.DeleteTargetID())
		if ext.Success {
			result.Response = ext.Response
		} else {
			result.Warning = "Post was deleted here but may remain on LinkedIn: " + ext.Error
			observability.RecordWorkflow(opDelete, observability.ResultExternalSkipped)
			p.logger.Warn("external delete failed", "post_id", post.ID, "error", ext.Error)
		}
	}

	if err := p.store.Delete(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("deleting post: %w", err)
	}

	observability.RecordWorkflow(opDelete, observability.ResultSuccess)
	return result, nil
}

// ExternalDeleteResult is the outcome of a best-effort aggregator delete
type ExternalDeleteResult struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// DeleteExternal asks the aggregator to remove a previously submitted post
func (p *Policy) DeleteExternal(ctx context.Context, apiKey, externalID string) ExternalDeleteResult {
	if strings.TrimSpace(apiKey) == "" {
		return ExternalDeleteResult{Error: entity.ErrMissingAPIKey.Error()}
	}
	if externalID == "" {
		return ExternalDeleteResult{Error: "post has no external id"}
	}

	receipt, err := p.publisher.Delete(ctx, apiKey, externalID)
	if err != nil {
		return ExternalDeleteResult{Error: err.Error()}
	}

	return ExternalDeleteResult{Success: true, Response: receipt.Response}
}

// DetectStuck reports posts left in flight longer than olderThan.
// Nothing is repaired: a stuck row may already be live on the network.
func (p *Policy) DetectStuck(ctx context.Context, olderThan time.Duration) ([]entity.Post, error) {
	stuck, err := p.store.ListStuck(ctx, p.now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("listing stuck posts: %w", err)
	}

	observability.StuckPosts.Set(float64(len(stuck)))
	for _, post := range stuck {
		p.logger.Warn("post stuck in flight",
			"post_id", post.ID, "user_id", post.UserID, "status", post.Status, "updated_at", post.UpdatedAt)
	}

	return stuck, nil
}

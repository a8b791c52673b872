package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/domain/post/policy"
	"github.com/vadim/linkbrand/internal/domain/post/service"
	"github.com/vadim/linkbrand/internal/httpx/middleware"
	"github.com/vadim/linkbrand/internal/httpx/response"
)

// PostService defines draft persistence operations.
// Interface is defined by consumer (handler), not provider (service)
type PostService interface {
	SaveDraft(ctx context.Context, in service.DraftInput) (*entity.Post, error)
	GetPost(ctx context.Context, userID, id string) (*entity.Post, error)
	ListPosts(ctx context.Context, in service.ListInput) ([]entity.Post, error)
	UpdatePost(ctx context.Context, in service.UpdateInput) (*entity.Post, error)
}

// DraftAutosaver debounces editor saves
type DraftAutosaver interface {
	Touch(in service.DraftInput) error
	Flush(ctx context.Context, userID, id string) (*entity.Post, error)
	Cancel(id string)
	Pending(userID, id string) bool
}

// PostWorkflow defines the publish, schedule, delete and analytics operations
type PostWorkflow interface {
	PublishNow(ctx context.Context, in policy.PublishInput) policy.Result
	Schedule(ctx context.Context, in policy.ScheduleInput) policy.Result
	DeletePost(ctx context.Context, in policy.DeleteInput) (*policy.DeleteResult, error)
	SyncUser(ctx context.Context, userID string) (*policy.SyncSummary, error)
	SyncPost(ctx context.Context, userID, postID string) (*entity.Post, bool, error)
}

// AyrshareKeyProvider returns the publishing key stored for a user
type AyrshareKeyProvider interface {
	AyrshareKey(ctx context.Context, userID string) (string, error)
}

// PostHandler handles HTTP requests for posts
type PostHandler struct {
	posts     PostService
	autosaver DraftAutosaver
	workflow  PostWorkflow
	keys      AyrshareKeyProvider
	logger    *slog.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(posts PostService, autosaver DraftAutosaver, workflow PostWorkflow, keys AyrshareKeyProvider, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:     posts,
		autosaver: autosaver,
		workflow:  workflow,
		keys:      keys,
		logger:    logger,
	}
}

// RegisterRoutes registers post routes
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Create())
		r.Get("/{id}", h.Get())
		r.Patch("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
		r.Put("/{id}/draft", h.SaveDraft())
		r.Get("/{id}/autosave", h.AutosaveStatus())
		r.Post("/{id}/autosave", h.Autosave())
		r.Post("/{id}/autosave/flush", h.FlushAutosave())
		r.Post("/{id}/publish", h.Publish())
		r.Post("/{id}/schedule", h.Schedule())
		r.Post("/{id}/analytics/sync", h.SyncPost())
	})
	r.Post("/analytics/sync", h.SyncAll())
}

// DraftRequest represents the editable fields of a draft
type DraftRequest struct {
	ID        string           `json:"id,omitempty"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Variants  []entity.Variant `json:"generated_variants,omitempty"`
	MediaURLs []string         `json:"media_urls,omitempty"`
	Hashtags  []string         `json:"hashtags,omitempty"`
}

func (req DraftRequest) input(id, userID string) service.DraftInput {
	return service.DraftInput{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Variants:  req.Variants,
		MediaURLs: req.MediaURLs,
		Hashtags:  req.Hashtags,
	}
}

// Create handles POST /posts
func (h *PostHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		post, err := h.posts.SaveDraft(r.Context(), req.input(req.ID, user.ID))
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.Created(w, post)
	}
}

// SaveDraft handles PUT /posts/{id}/draft, an immediate save that supersedes any pending autosave
func (h *PostHandler) SaveDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}
		id := chi.URLParam(r, "id")

		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		h.autosaver.Cancel(id)
		post, err := h.posts.SaveDraft(r.Context(), req.input(id, user.ID))
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// AutosaveResponse acknowledges a debounced edit
type AutosaveResponse struct {
	ID      string `json:"id"`
	Pending bool   `json:"pending"`
}

// Autosave handles POST /posts/{id}/autosave
func (h *PostHandler) Autosave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}
		id := chi.URLParam(r, "id")

		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if err := h.autosaver.Touch(req.input(id, user.ID)); err != nil {
			if errors.Is(err, service.ErrAutosaverStopped) {
				response.Error(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			h.handlePostError(w, err)
			return
		}

		response.Accepted(w, AutosaveResponse{ID: id, Pending: true})
	}
}

// AutosaveStatus handles GET /posts/{id}/autosave
func (h *PostHandler) AutosaveStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}
		id := chi.URLParam(r, "id")

		response.OK(w, AutosaveResponse{ID: id, Pending: h.autosaver.Pending(user.ID, id)})
	}
}

// FlushResponse reports whether a pending edit was written and the resulting post
type FlushResponse struct {
	Saved bool         `json:"saved"`
	Post  *entity.Post `json:"post"`
}

// FlushAutosave handles POST /posts/{id}/autosave/flush, writing the pending edit now.
// With nothing pending the stored post is returned unchanged.
func (h *PostHandler) FlushAutosave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}
		id := chi.URLParam(r, "id")

		post, err := h.autosaver.Flush(r.Context(), user.ID, id)
		if err != nil {
			h.handlePostError(w, err)
			return
		}
		if post != nil {
			response.OK(w, FlushResponse{Saved: true, Post: post})
			return
		}

		post, err = h.posts.GetPost(r.Context(), user.ID, id)
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, FlushResponse{Post: post})
	}
}

// Get handles GET /posts/{id}
func (h *PostHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		post, err := h.posts.GetPost(r.Context(), user.ID, chi.URLParam(r, "id"))
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// ListResponse represents the response for listing posts
type ListResponse struct {
	Posts  []entity.Post `json:"posts"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List handles GET /posts
func (h *PostHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}
		q := r.URL.Query()

		var status *entity.Status
		if s := q.Get("status"); s != "" {
			st, err := entity.ParseStatus(s)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			status = &st
		}

		limit := 100
		offset := 0
		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			limit = min(li, 200)
		}
		if o := q.Get("offset"); o != "" {
			oi, err := strconv.Atoi(o)
			if err != nil || oi < 0 {
				response.BadRequest(w, "invalid offset")
				return
			}
			offset = oi
		}

		posts, err := h.posts.ListPosts(r.Context(), service.ListInput{
			UserID: user.ID,
			Status: status,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, ListResponse{Posts: posts, Limit: limit, Offset: offset})
	}
}

// UpdateRequest represents the request body for a partial post edit
type UpdateRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Update handles PATCH /posts/{id}
func (h *PostHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		in := service.UpdateInput{
			UserID:  user.ID,
			ID:      chi.URLParam(r, "id"),
			Title:   req.Title,
			Content: req.Content,
		}
		if req.Status != nil {
			st, err := entity.ParseStatus(*req.Status)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			in.Status = &st
		}

		post, err := h.posts.UpdatePost(r.Context(), in)
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// Delete handles DELETE /posts/{id}.
// The aggregator copy is removed on a best-effort basis; failures come back as a warning.
func (h *PostHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}
		id := chi.URLParam(r, "id")

		apiKey, err := h.keys.AyrshareKey(r.Context(), user.ID)
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		h.autosaver.Cancel(id)
		out, err := h.workflow.DeletePost(r.Context(), policy.DeleteInput{
			UserID: user.ID,
			PostID: id,
			APIKey: apiKey,
		})
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, out)
	}
}

// PublishRequest represents the request body for publishing or scheduling
type PublishRequest struct {
	Title         string                 `json:"title"`
	Content       string                 `json:"content"`
	MediaURLs     []string               `json:"media_urls,omitempty"`
	Hashtags      []string               `json:"hashtags,omitempty"`
	Variants      []entity.Variant       `json:"generated_variants,omitempty"`
	Options       entity.LinkedInOptions `json:"linkedin_options"`
	ScheduledTime string                 `json:"scheduled_time,omitempty"` // RFC3339, schedule only
}

func (h *PostHandler) publishInput(r *http.Request, userID string, req PublishRequest) (policy.PublishInput, error) {
	apiKey, err := h.keys.AyrshareKey(r.Context(), userID)
	if err != nil {
		return policy.PublishInput{}, err
	}
	return policy.PublishInput{
		PostID:    chi.URLParam(r, "id"),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		APIKey:    apiKey,
		MediaURLs: req.MediaURLs,
		Hashtags:  req.Hashtags,
		Options:   req.Options,
		Variants:  req.Variants,
	}, nil
}

// Publish handles POST /posts/{id}/publish. The path id is the idempotency key.
func (h *PostHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req PublishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		in, err := h.publishInput(r, user.ID, req)
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		h.autosaver.Cancel(in.PostID)
		h.writeResult(w, h.workflow.PublishNow(r.Context(), in))
	}
}

// Schedule handles POST /posts/{id}/schedule
func (h *PostHandler) Schedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req PublishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		var scheduledAt time.Time
		if req.ScheduledTime != "" {
			t, err := time.Parse(time.RFC3339, req.ScheduledTime)
			if err != nil {
				response.BadRequest(w, "invalid scheduled_time format, use RFC3339")
				return
			}
			scheduledAt = t
		}

		in, err := h.publishInput(r, user.ID, req)
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		h.autosaver.Cancel(in.PostID)
		h.writeResult(w, h.workflow.Schedule(r.Context(), policy.ScheduleInput{
			PublishInput:  in,
			ScheduledTime: scheduledAt,
		}))
	}
}

// SyncPostResponse is the outcome of a single post analytics refresh
type SyncPostResponse struct {
	Synced bool         `json:"synced"`
	Post   *entity.Post `json:"post"`
}

// SyncPost handles POST /posts/{id}/analytics/sync
func (h *PostHandler) SyncPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		post, synced, err := h.workflow.SyncPost(r.Context(), user.ID, chi.URLParam(r, "id"))
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, SyncPostResponse{Synced: synced, Post: post})
	}
}

// SyncAllResponse summarizes a batch analytics refresh
type SyncAllResponse struct {
	*policy.SyncSummary
	Message string `json:"message"`
}

// SyncAll handles POST /analytics/sync
func (h *PostHandler) SyncAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		summary, err := h.workflow.SyncUser(r.Context(), user.ID)
		if err != nil {
			h.handlePostError(w, err)
			return
		}

		response.OK(w, SyncAllResponse{SyncSummary: summary, Message: summary.Message()})
	}
}

// writeResult maps a workflow outcome onto a status code. The body is always the result.
func (h *PostHandler) writeResult(w http.ResponseWriter, res policy.Result) {
	if res.Success {
		response.OK(w, res)
		return
	}
	response.JSON(w, resultStatus(res), res)
}

func resultStatus(res policy.Result) int {
	switch {
	case errors.Is(res.Err, entity.ErrMissingAPIKey):
		return http.StatusPreconditionFailed
	case errors.Is(res.Err, entity.ErrPostNotOwned), errors.Is(res.Err, entity.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(res.Err, entity.ErrPostNotEditable):
		return http.StatusConflict
	case isPostValidationError(res.Err):
		return http.StatusBadRequest
	case res.Post != nil:
		// the aggregator refused or could not be reached, the post is now failed
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isPostValidationError(err error) bool {
	for _, target := range []error{
		entity.ErrEmptyUserID, entity.ErrEmptyContent, entity.ErrInvalidStatus,
		entity.ErrInvalidVisibility, entity.ErrScheduledTimeRequired, entity.ErrScheduledTimeInPast,
		entity.ErrMissingIdempotencyKey, entity.ErrInvalidIdempotencyKey,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *PostHandler) handlePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrPostNotFound), errors.Is(err, entity.ErrPostNotOwned):
		response.NotFound(w, entity.ErrPostNotFound.Error())
	case errors.Is(err, entity.ErrPostNotEditable):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrMissingAPIKey):
		response.PreconditionFailed(w, err.Error())
	case isPostValidationError(err):
		response.BadRequest(w, err.Error())
	default:
		h.logger.Error("post request failed", "error", err)
		response.InternalError(w, "internal server error")
	}
}

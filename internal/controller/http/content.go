package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/linkbrand/internal/domain/content/entity"
	"github.com/vadim/linkbrand/internal/domain/content/service"
	postentity "github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/httpx/middleware"
	"github.com/vadim/linkbrand/internal/httpx/response"
	"github.com/vadim/linkbrand/internal/storage"
)

// ContentGenerator defines text generation operations
type ContentGenerator interface {
	Generate(ctx context.Context, req service.Request) ([]postentity.Variant, error)
	AuditProfile(ctx context.Context, headline, about string) (*entity.AuditResult, error)
}

// ImageRenderer produces one illustration for a topic
type ImageRenderer interface {
	Generate(ctx context.Context, topic string) (*entity.Image, error)
}

// DeepSeekKeyProvider returns the alternate generation key stored for a user
type DeepSeekKeyProvider interface {
	DeepSeekKey(ctx context.Context, userID string) (string, error)
}

// ImageStore persists generated images so they can be attached to a post
type ImageStore interface {
	UploadBytes(ctx context.Context, userID, contentType string, data []byte) (*storage.UploadOutput, error)
}

// ContentHandler handles AI assisted content requests
type ContentHandler struct {
	generator ContentGenerator
	images    ImageRenderer
	keys      DeepSeekKeyProvider
	store     ImageStore // nil disables uploads
	logger    *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(generator ContentGenerator, images ImageRenderer, keys DeepSeekKeyProvider, store ImageStore, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		generator: generator,
		images:    images,
		keys:      keys,
		store:     store,
		logger:    logger,
	}
}

// RegisterRoutes registers content routes
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Post("/variants", h.Variants())
		r.Post("/image", h.Image())
		r.Post("/audit", h.Audit())
	})
}

// VariantsRequest represents the request body for generating variants
type VariantsRequest struct {
	Topic        string `json:"topic"`
	Tone         string `json:"tone"`
	Length       string `json:"length"`
	Instructions string `json:"instructions"`
	Backend      string `json:"backend"` // gemini or deepseek
}

// VariantsResponse carries the generated candidates
type VariantsResponse struct {
	Variants []postentity.Variant `json:"variants"`
}

// Variants handles POST /content/variants
func (h *ContentHandler) Variants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req VariantsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		tone, err := entity.ParseTone(req.Tone)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		length, err := entity.ParseLength(req.Length)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		backend, err := entity.ParseBackend(req.Backend)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var apiKey string
		if backend == entity.BackendDeepSeek {
			if apiKey, err = h.keys.DeepSeekKey(r.Context(), user.ID); err != nil {
				h.handleContentError(w, err)
				return
			}
		}

		variants, err := h.generator.Generate(r.Context(), service.Request{
			Backend:      backend,
			APIKey:       apiKey,
			Topic:        req.Topic,
			Tone:         tone,
			Length:       length,
			Instructions: req.Instructions,
		})
		if err != nil {
			h.handleContentError(w, err)
			return
		}

		response.OK(w, VariantsResponse{Variants: variants})
	}
}

// ImageRequest represents the request body for generating an image
type ImageRequest struct {
	Topic    string `json:"topic"`
	Headline string `json:"headline"`
	Upload   bool   `json:"upload"` // also store the image and return its public URL
}

// ImageResponse carries the generated image
type ImageResponse struct {
	DataURI  string `json:"data_uri"`
	MIMEType string `json:"mime_type"`
	URL      string `json:"url,omitempty"`
}

// Image handles POST /content/image
func (h *ContentHandler) Image() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req ImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			topic = strings.TrimSpace(req.Headline)
		}

		img, err := h.images.Generate(r.Context(), topic)
		if err != nil {
			h.handleContentError(w, err)
			return
		}

		out := ImageResponse{DataURI: img.DataURI(), MIMEType: img.MIMEType}
		if req.Upload {
			if h.store == nil {
				response.PreconditionFailed(w, "media storage is not configured")
				return
			}
			stored, err := h.store.UploadBytes(r.Context(), user.ID, img.MIMEType, img.Data)
			if err != nil {
				h.handleContentError(w, err)
				return
			}
			out.URL = stored.URL
		}

		response.OK(w, out)
	}
}

// AuditRequest represents the request body for a profile audit
type AuditRequest struct {
	Headline string `json:"headline"`
	About    string `json:"about"`
}

// Audit handles POST /content/audit
func (h *ContentHandler) Audit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.UserFrom(r.Context()); !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req AuditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		result, err := h.generator.AuditProfile(r.Context(), req.Headline, req.About)
		if err != nil {
			h.handleContentError(w, err)
			return
		}

		response.OK(w, result)
	}
}

func (h *ContentHandler) handleContentError(w http.ResponseWriter, err error) {
	var genErr *entity.GenerationError
	switch {
	case errors.Is(err, entity.ErrEmptyTopic), errors.Is(err, entity.ErrEmptyProfile),
		errors.Is(err, entity.ErrInvalidTone), errors.Is(err, entity.ErrInvalidLength),
		errors.Is(err, entity.ErrInvalidBackend):
		response.BadRequest(w, err.Error())
	case errors.As(err, &genErr) && genErr.Kind == entity.KindMissingKey:
		response.PreconditionFailed(w, err.Error())
	case errors.As(err, &genErr):
		h.logger.Warn("generation failed", "backend", genErr.Backend, "kind", genErr.Kind, "error", err)
		response.BadGateway(w, err.Error())
	case errors.Is(err, entity.ErrImageGeneration):
		h.logger.Warn("image generation failed", "error", err)
		response.BadGateway(w, entity.ErrImageGeneration.Error())
	default:
		h.logger.Error("content request failed", "error", err)
		response.InternalError(w, "internal server error")
	}
}

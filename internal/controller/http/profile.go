package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/linkbrand/internal/domain/profile/entity"
	"github.com/vadim/linkbrand/internal/domain/profile/service"
	"github.com/vadim/linkbrand/internal/httpx/middleware"
	"github.com/vadim/linkbrand/internal/httpx/response"
)

// ProfileService defines profile operations
type ProfileService interface {
	Get(ctx context.Context, userID, email string) (*entity.Profile, error)
	UpdateProfileData(ctx context.Context, userID, email string, in service.ProfileDataInput) (*entity.Profile, error)
	UpdateKeys(ctx context.Context, userID, email string, in service.KeysInput) (*entity.Profile, error)
}

// ProfileHandler handles HTTP requests for the caller's profile
type ProfileHandler struct {
	profiles ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// RegisterRoutes registers profile routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", h.Get())
		r.Put("/", h.Update())
		r.Put("/keys", h.UpdateKeys())
	})
}

// Get handles GET /profile, creating the default profile on first access
func (h *ProfileHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		p, err := h.profiles.Get(r.Context(), user.ID, user.Email)
		if err != nil {
			h.handleProfileError(w, err)
			return
		}

		response.OK(w, p.ToView())
	}
}

// ProfileRequest represents a partial edit of the display data
type ProfileRequest struct {
	Name        *string `json:"name,omitempty"`
	Headline    *string `json:"headline,omitempty"`
	Connections *int    `json:"connections,omitempty"`
}

// Update handles PUT /profile
func (h *ProfileHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		p, err := h.profiles.UpdateProfileData(r.Context(), user.ID, user.Email, service.ProfileDataInput{
			Name:        req.Name,
			Headline:    req.Headline,
			Connections: req.Connections,
		})
		if err != nil {
			h.handleProfileError(w, err)
			return
		}

		response.OK(w, p.ToView())
	}
}

// KeysRequest carries integration keys. Omitted keeps the stored key, empty clears it.
type KeysRequest struct {
	AyrshareKey *string `json:"ayrshare_key,omitempty"`
	DeepSeekKey *string `json:"deepseek_key,omitempty"`
}

// UpdateKeys handles PUT /profile/keys. Keys are write-only and never echoed back.
func (h *ProfileHandler) UpdateKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		var req KeysRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		p, err := h.profiles.UpdateKeys(r.Context(), user.ID, user.Email, service.KeysInput{
			AyrshareKey: req.AyrshareKey,
			DeepSeekKey: req.DeepSeekKey,
		})
		if err != nil {
			h.handleProfileError(w, err)
			return
		}

		response.OK(w, p.ToView())
	}
}

func (h *ProfileHandler) handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyUserID), errors.Is(err, entity.ErrEmptyName):
		response.BadRequest(w, err.Error())
	default:
		h.logger.Error("profile request failed", "error", err)
		response.InternalError(w, "internal server error")
	}
}

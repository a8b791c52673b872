package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/linkbrand/internal/domain/inspiration/entity"
	"github.com/vadim/linkbrand/internal/httpx/response"
)

// InspirationLister lists library posts
type InspirationLister interface {
	List(ctx context.Context, category string) []entity.Post
}

// InspirationHandler handles HTTP requests for the inspiration library
type InspirationHandler struct {
	lister InspirationLister
}

// NewInspirationHandler creates a new inspiration handler
func NewInspirationHandler(lister InspirationLister) *InspirationHandler {
	return &InspirationHandler{lister: lister}
}

// RegisterRoutes registers inspiration routes
func (h *InspirationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/inspiration", h.List())
}

// InspirationResponse represents the response for listing library posts
type InspirationResponse struct {
	Posts []entity.Post `json:"posts"`
}

// List handles GET /inspiration
func (h *InspirationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts := h.lister.List(r.Context(), r.URL.Query().Get("category"))
		response.OK(w, InspirationResponse{Posts: posts})
	}
}

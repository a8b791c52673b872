package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/h2non/filetype"

	"github.com/vadim/linkbrand/internal/domain/content/entity"
	"github.com/vadim/linkbrand/internal/httpx/middleware"
	"github.com/vadim/linkbrand/internal/httpx/response"
	"github.com/vadim/linkbrand/internal/storage"
)

// MaxUploadSize is the maximum allowed upload size (50MB)
const MaxUploadSize = 50 << 20

// sniffLen is how many leading bytes are inspected to detect the file type
const sniffLen = 261

var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"application/pdf": true, // LinkedIn document posts
}

// MediaUploader defines the interface for storing and removing media
type MediaUploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
	Delete(ctx context.Context, key string) error
}

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	uploader MediaUploader
	logger   *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(uploader MediaUploader, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{uploader: uploader, logger: logger}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/media/upload", h.Upload())
	r.Post("/media/data-uri", h.UploadDataURI())
	r.Delete("/media/*", h.Delete())
}

// Upload handles POST /media/upload.
// The stored content type comes from the file's magic bytes, not the client's header.
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		head := make([]byte, sniffLen)
		n, err := io.ReadFull(file, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "could not read file")
			return
		}
		head = head[:n]

		contentType, err := detectMediaType(head)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		result, err := h.uploader.Upload(r.Context(), storage.UploadInput{
			UserID:      user.ID,
			Reader:      io.MultiReader(bytes.NewReader(head), file),
			ContentType: contentType,
			Size:        header.Size,
			Filename:    header.Filename,
		})
		if err != nil {
			if errors.Is(err, storage.ErrEmptyObject) {
				response.BadRequest(w, "file is empty")
				return
			}
			h.logger.Error("media upload failed", "user_id", user.ID, "error", err)
			response.InternalError(w, "failed to upload file")
			return
		}

		response.Created(w, result)
	}
}

// DataURIRequest carries an image previously returned inline by the generator
type DataURIRequest struct {
	DataURI string `json:"data_uri"`
}

// UploadDataURI handles POST /media/data-uri, storing a generated image the user chose to keep.
// The declared MIME type is ignored in favour of the decoded bytes.
func (h *MediaHandler) UploadDataURI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		// base64 inflates the payload by a third
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize*4/3+1024)
		var req DataURIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON or payload too large")
			return
		}

		img, err := entity.ParseDataURI(req.DataURI)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		contentType, err := detectMediaType(img.Data[:min(len(img.Data), sniffLen)])
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		result, err := h.uploader.Upload(r.Context(), storage.UploadInput{
			UserID:      user.ID,
			Reader:      bytes.NewReader(img.Data),
			ContentType: contentType,
			Size:        int64(len(img.Data)),
		})
		if err != nil {
			h.logger.Error("data uri upload failed", "user_id", user.ID, "error", err)
			response.InternalError(w, "failed to upload file")
			return
		}

		response.Created(w, result)
	}
}

// Delete handles DELETE /media/{key}. Only keys under the caller's prefix can be removed.
func (h *MediaHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthenticated")
			return
		}

		key := chi.URLParam(r, "*")
		if !storage.OwnedBy(key, user.ID) {
			response.NotFound(w, "media not found")
			return
		}

		if err := h.uploader.Delete(r.Context(), key); err != nil {
			h.logger.Error("media delete failed", "user_id", user.ID, "key", key, "error", err)
			response.InternalError(w, "failed to delete file")
			return
		}

		response.NoContent(w)
	}
}

func detectMediaType(head []byte) (string, error) {
	if len(head) == 0 {
		return "", errors.New("file is empty")
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", errors.New("unsupported media type")
	}
	if !allowedMediaTypes[kind.MIME.Value] {
		return "", fmt.Errorf("unsupported media type: %s", kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}

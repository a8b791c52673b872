package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/linkbrand/internal/domain/content/entity"
	"github.com/vadim/linkbrand/internal/domain/content/service"
	postentity "github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/storage"
)

type fakeGenerator struct {
	requests []service.Request
	variants []postentity.Variant
	audit    *entity.AuditResult
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, req service.Request) ([]postentity.Variant, error) {
	f.requests = append(f.requests, req)
	return f.variants, f.err
}

func (f *fakeGenerator) AuditProfile(context.Context, string, string) (*entity.AuditResult, error) {
	return f.audit, f.err
}

type fakeRenderer struct {
	topics []string
	img    *entity.Image
	err    error
}

func (f *fakeRenderer) Generate(_ context.Context, topic string) (*entity.Image, error) {
	f.topics = append(f.topics, topic)
	return f.img, f.err
}

type deepSeekKey string

func (k deepSeekKey) DeepSeekKey(context.Context, string) (string, error) { return string(k), nil }

type fakeImageStore struct {
	uploads int
}

func (f *fakeImageStore) UploadBytes(_ context.Context, userID, contentType string, data []byte) (*storage.UploadOutput, error) {
	f.uploads++
	return &storage.UploadOutput{
		Key:         userID + "/img.png",
		URL:         "https://cdn.example.com/" + userID + "/img.png",
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func newContentRouter(gen *fakeGenerator, img *fakeRenderer, store ImageStore) http.Handler {
	return newTestRouter(testUserID, NewContentHandler(gen, img, deepSeekKey("ds-key"), store, testLogger()))
}

func TestContentHandler_Variants(t *testing.T) {
	gen := &fakeGenerator{variants: []postentity.Variant{{ID: "a", Content: "one"}, {ID: "b", Content: "two"}}}
	router := newContentRouter(gen, &fakeRenderer{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/content/variants", VariantsRequest{Topic: "Remote work"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[VariantsResponse](t, rec).Variants, 2)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, entity.BackendGemini, req.Backend)
	assert.Equal(t, entity.ToneProfessional, req.Tone)
	assert.Equal(t, entity.LengthMedium, req.Length)
	assert.Empty(t, req.APIKey)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/content/variants", VariantsRequest{Topic: "x", Backend: "deepseek"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ds-key", gen.requests[1].APIKey)
}

func TestContentHandler_VariantsErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   VariantsRequest
		err    error
		status int
	}{
		{"bad tone", VariantsRequest{Topic: "x", Tone: "angry"}, nil, http.StatusBadRequest},
		{"bad length", VariantsRequest{Topic: "x", Length: "epic"}, nil, http.StatusBadRequest},
		{"bad backend", VariantsRequest{Topic: "x", Backend: "gpt"}, nil, http.StatusBadRequest},
		{"empty topic", VariantsRequest{}, entity.ErrEmptyTopic, http.StatusBadRequest},
		{"missing key", VariantsRequest{Topic: "x"}, &entity.GenerationError{Kind: entity.KindMissingKey, Backend: entity.BackendGemini}, http.StatusPreconditionFailed},
		{"vendor", VariantsRequest{Topic: "x"}, &entity.GenerationError{Kind: entity.KindVendor, Backend: entity.BackendGemini, Err: errors.New("quota exceeded")}, http.StatusBadGateway},
		{"parse", VariantsRequest{Topic: "x"}, &entity.GenerationError{Kind: entity.KindParse, Backend: entity.BackendDeepSeek, Err: errors.New("bad json")}, http.StatusBadGateway},
		{"other", VariantsRequest{Topic: "x"}, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newContentRouter(&fakeGenerator{err: tt.err}, &fakeRenderer{}, nil)
			rec := doJSON(t, router, http.MethodPost, "/api/v1/content/variants", tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestContentHandler_Image(t *testing.T) {
	img := &fakeRenderer{img: &entity.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}}
	store := &fakeImageStore{}
	router := newContentRouter(&fakeGenerator{}, img, store)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/content/image", ImageRequest{Headline: "  Hiring engineers "})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[ImageResponse](t, rec)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, "data:image/png;base64,iVBORw==", out.DataURI)
	assert.Empty(t, out.URL)
	assert.Equal(t, []string{"Hiring engineers"}, img.topics)
	assert.Zero(t, store.uploads)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/content/image", ImageRequest{Topic: "Launch", Upload: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.example.com/user-1/img.png", decode[ImageResponse](t, rec).URL)
	assert.Equal(t, 1, store.uploads)
}

func TestContentHandler_ImageUploadWithoutStorage(t *testing.T) {
	img := &fakeRenderer{img: &entity.Image{MIMEType: "image/png", Data: []byte("png")}}
	router := newContentRouter(&fakeGenerator{}, img, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/content/image", ImageRequest{Topic: "Launch", Upload: true})
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestContentHandler_ImageFailure(t *testing.T) {
	img := &fakeRenderer{err: errors.Join(entity.ErrImageGeneration, errors.New("no image part"))}
	router := newContentRouter(&fakeGenerator{}, img, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/content/image", ImageRequest{Topic: "Launch"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "no image part")
}

func TestContentHandler_Audit(t *testing.T) {
	gen := &fakeGenerator{audit: &entity.AuditResult{Score: 72}}
	router := newContentRouter(gen, &fakeRenderer{}, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/content/audit", AuditRequest{Headline: "Engineer"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 72, decode[entity.AuditResult](t, rec).Score, 0.001)

	gen.err = entity.ErrEmptyProfile
	rec = doJSON(t, router, http.MethodPost, "/api/v1/content/audit", AuditRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

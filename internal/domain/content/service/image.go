package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"

	"github.com/vadim/linkbrand/internal/domain/content/entity"
	"github.com/vadim/linkbrand/internal/observability"
)

const (
	fallbackImageTopic = "Professional LinkedIn visual"
	imageAspectRatio   = "16:9"
	defaultImageMIME   = "image/png"
)

var errNotAnImage = errors.New("vendor returned non-image data")

// ImageModel is an image generation model
type ImageModel interface {
	GenerateImage(ctx context.Context, apiKey, model, prompt, aspectRatio string) ([]byte, string, error)
}

// ImageGenerator renders one illustration per call
type ImageGenerator struct {
	model  ImageModel
	apiKey string
	name   string
}

// NewImageGenerator creates a new image generator
func NewImageGenerator(model ImageModel, apiKey, modelName string) *ImageGenerator {
	if modelName == "" {
		modelName = "gemini-2.5-flash-image"
	}
	return &ImageGenerator{model: model, apiKey: apiKey, name: modelName}
}

// Generate returns one 16:9 illustration for the topic or headline.
// Every failure wraps entity.ErrImageGeneration.
func (g *ImageGenerator) Generate(ctx context.Context, topic string) (*entity.Image, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is missing", entity.ErrImageGeneration)
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = fallbackImageTopic
	}

	done := observability.TrackUpstream("gemini", "image")
	data, mime, err := g.model.GenerateImage(ctx, g.apiKey, g.name, imagePrompt(topic), imageAspectRatio)
	done()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageGeneration, err)
	}

	mime, err = detectImageMIME(data, mime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageGeneration, err)
	}
	return &entity.Image{MIMEType: mime, Data: data}, nil
}

// detectImageMIME trusts the bytes over the vendor's label
func detectImageMIME(data []byte, reported string) (string, error) {
	if len(data) == 0 {
		return "", errNotAnImage
	}
	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown {
		if !filetype.IsImage(data) {
			return "", errNotAnImage
		}
		return kind.MIME.Value, nil
	}
	if strings.HasPrefix(reported, "image/") {
		return reported, nil
	}
	return defaultImageMIME, nil
}

func imagePrompt(topic string) string {
	return "A professional, minimalist, high-quality flat illustration for a LinkedIn post about: " + topic + ".\n" +
		"Modern colors, corporate but artistic style, clean lines, no text."
}

package service

import (
	"context"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vadim/linkbrand/internal/domain/content/entity"
	postentity "github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/observability"
)

// JSONModel is a text model that answers in JSON constrained by a response schema
type JSONModel interface {
	GenerateJSON(ctx context.Context, apiKey, model, prompt string, schema map[string]any) (string, error)
}

// ChatModel is a chat completion model running in JSON mode
type ChatModel interface {
	CompleteJSON(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, error)
}

// Config holds generator settings
type Config struct {
	GeminiKey string // server level key, DeepSeek keys come with each request
	TextModel string
}

// Generator produces post variants and profile audits
type Generator struct {
	gemini   JSONModel
	deepseek ChatModel
	cfg      Config
	newID    func() (string, error)
}

// NewGenerator creates a new content generator
func NewGenerator(gemini JSONModel, deepseek ChatModel, cfg Config) *Generator {
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-3-flash-preview"
	}
	return &Generator{
		gemini:   gemini,
		deepseek: deepseek,
		cfg:      cfg,
		newID:    func() (string, error) { return gonanoid.New(10) },
	}
}

// Request describes one generation
type Request struct {
	Backend      entity.Backend
	APIKey       string // DeepSeek key, ignored by Gemini
	Topic        string
	Tone         entity.Tone
	Length       entity.Length
	Instructions string
}

// Generate returns up to three variants for the topic, each echoing tone and length
func (g *Generator) Generate(ctx context.Context, req Request) ([]postentity.Variant, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, entity.ErrEmptyTopic
	}
	if req.Backend == "" {
		req.Backend = entity.BackendGemini
	}
	if req.Tone == "" {
		req.Tone = entity.ToneProfessional
	}
	if req.Length == "" {
		req.Length = entity.LengthMedium
	}

	raw, err := g.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	parsed, err := parseVariants(raw)
	if err != nil {
		return nil, &entity.GenerationError{Kind: entity.KindParse, Backend: req.Backend, Err: err}
	}

	if len(parsed) > entity.VariantCount {
		parsed = parsed[:entity.VariantCount]
	}

	variants := make([]postentity.Variant, 0, len(parsed))
	for _, v := range parsed {
		id := v.ID
		if id == "" {
			if id, err = g.newID(); err != nil {
				return nil, fmt.Errorf("generating variant id: %w", err)
			}
		}
		variants = append(variants, postentity.Variant{
			ID:       id,
			Content:  v.Content,
			Headline: v.Headline,
			Tone:     string(req.Tone),
			Length:   string(req.Length),
		})
	}
	return variants, nil
}

func (g *Generator) complete(ctx context.Context, req Request) (string, error) {
	switch req.Backend {
	case entity.BackendDeepSeek:
		key := strings.TrimSpace(req.APIKey)
		if key == "" {
			return "", &entity.GenerationError{Kind: entity.KindMissingKey, Backend: req.Backend}
		}
		defer observability.TrackUpstream("deepseek", "generate")()

		raw, err := g.deepseek.CompleteJSON(ctx, key, deepSeekSystemPrompt, userPrompt(req))
		if err != nil {
			return "", &entity.GenerationError{Kind: entity.KindVendor, Backend: req.Backend, Err: err}
		}
		return raw, nil

	case entity.BackendGemini:
		if g.cfg.GeminiKey == "" {
			return "", &entity.GenerationError{Kind: entity.KindMissingKey, Backend: req.Backend}
		}
		defer observability.TrackUpstream("gemini", "generate")()

		raw, err := g.gemini.GenerateJSON(ctx, g.cfg.GeminiKey, g.cfg.TextModel, geminiPrompt(req), variantsSchema)
		if err != nil {
			return "", &entity.GenerationError{Kind: entity.KindVendor, Backend: req.Backend, Err: err}
		}
		return raw, nil

	default:
		return "", entity.ErrInvalidBackend
	}
}

const deepSeekSystemPrompt = `You are an expert LinkedIn ghostwriter.
You must output JSON only.
Create 3 distinct variants of a LinkedIn post.
Structure the response as a JSON object with a key "variants" containing an array of objects.
Each object must have:
- "id": string (unique id like "1", "2")
- "headline": string (A catchy 1-line summary/hook)
- "content": string (The full post content with emojis and hashtags)`

func userPrompt(req Request) string {
	return fmt.Sprintf(`Topic: %q
Tone: %s
Length: %s
Additional Instructions: %s

Make them engaging, use short paragraphs, and include 3-5 relevant hashtags.`,
		req.Topic, req.Tone, req.Length, req.Instructions)
}

func geminiPrompt(req Request) string {
	return fmt.Sprintf(`You are an expert LinkedIn ghostwriter. Write a LinkedIn post about: %q.
Tone: %s.
Length: %s.
Additional Instructions: %s.

Create %d distinct variants.
Make them engaging, use short paragraphs, and include 3-5 relevant hashtags.`,
		req.Topic, req.Tone, req.Length, req.Instructions, entity.VariantCount)
}

var variantsSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"variants": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"id":       map[string]any{"type": "STRING"},
					"headline": map[string]any{"type": "STRING"},
					"content":  map[string]any{"type": "STRING"},
				},
			},
		},
	},
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vadim/linkbrand/internal/domain/content/entity"
	"github.com/vadim/linkbrand/internal/observability"
)

var errMissingAnalysis = errors.New(`payload has no "analysis" object`)

type auditPayload struct {
	Score       *float64                `json:"score"`
	Analysis    *entity.AuditAnalysis   `json:"analysis"`
	Suggestions entity.AuditSuggestions `json:"suggestions"`
}

// AuditProfile reviews a LinkedIn headline and about section for personal branding impact
func (g *Generator) AuditProfile(ctx context.Context, headline, about string) (*entity.AuditResult, error) {
	headline = strings.TrimSpace(headline)
	about = strings.TrimSpace(about)
	if headline == "" && about == "" {
		return nil, entity.ErrEmptyProfile
	}
	if g.cfg.GeminiKey == "" {
		return nil, &entity.GenerationError{Kind: entity.KindMissingKey, Backend: entity.BackendGemini}
	}

	done := observability.TrackUpstream("gemini", "audit")
	raw, err := g.gemini.GenerateJSON(ctx, g.cfg.GeminiKey, g.cfg.TextModel, auditPrompt(headline, about), auditSchema)
	done()
	if err != nil {
		return nil, &entity.GenerationError{Kind: entity.KindVendor, Backend: entity.BackendGemini, Err: err}
	}

	result, err := parseAudit(raw)
	if err != nil {
		return nil, &entity.GenerationError{Kind: entity.KindParse, Backend: entity.BackendGemini, Err: err}
	}
	return result, nil
}

func parseAudit(raw string) (*entity.AuditResult, error) {
	var payload auditPayload
	if err := decodeStrict(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Analysis == nil {
		return nil, errMissingAnalysis
	}

	result := &entity.AuditResult{
		Analysis:    *payload.Analysis,
		Suggestions: payload.Suggestions,
	}
	if payload.Score != nil {
		result.Score = min(max(*payload.Score, 0), 100)
	}
	if result.Suggestions.Headlines == nil {
		result.Suggestions.Headlines = []string{}
	}
	return result, nil
}

func auditPrompt(headline, about string) string {
	return fmt.Sprintf(`Analyze this LinkedIn Personal Brand profile:
Headline: %q
About Section: %q

Evaluate it for personal branding impact. Be critical but constructive.
Score it from 0 to 100.`, headline, about)
}

var auditSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"score": map[string]any{"type": "NUMBER"},
		"analysis": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"clarity":  map[string]any{"type": "STRING"},
				"keywords": map[string]any{"type": "STRING"},
				"cta":      map[string]any{"type": "STRING"},
				"impact":   map[string]any{"type": "STRING"},
			},
			"required": []string{"clarity", "keywords", "cta", "impact"},
		},
		"suggestions": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"headlines":   map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
				"about_intro": map[string]any{"type": "STRING"},
			},
		},
	},
}

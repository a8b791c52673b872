package entity

import "strings"

// Tone is the voice a generated post is written in
type Tone string

const (
	ToneProfessional  Tone = "Professional"
	ToneCasual        Tone = "Casual"
	ToneInspirational Tone = "Inspirational"
	ToneControversial Tone = "Controversial"
	ToneEducational   Tone = "Educational"
)

// Tones lists every supported tone in display order
var Tones = []Tone{ToneProfessional, ToneCasual, ToneInspirational, ToneControversial, ToneEducational}

// ParseTone matches a tone name case-insensitively. Empty defaults to Professional.
func ParseTone(s string) (Tone, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ToneProfessional, nil
	}
	for _, t := range Tones {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", ErrInvalidTone
}

// Length is the rough size class of a generated post
type Length string

const (
	LengthShort  Length = "Short"
	LengthMedium Length = "Medium"
	LengthLong   Length = "Long"
)

// ParseLength matches a length class case-insensitively. Empty defaults to Medium.
func ParseLength(s string) (Length, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return LengthMedium, nil
	case "short":
		return LengthShort, nil
	case "medium":
		return LengthMedium, nil
	case "long":
		return LengthLong, nil
	default:
		return "", ErrInvalidLength
	}
}

// Backend selects the text generation vendor
type Backend string

const (
	BackendGemini   Backend = "gemini"
	BackendDeepSeek Backend = "deepseek"
)

// ParseBackend matches a backend name. Empty defaults to Gemini.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendGemini:
		return BackendGemini, nil
	case BackendDeepSeek:
		return BackendDeepSeek, nil
	default:
		return "", ErrInvalidBackend
	}
}

// VariantCount is how many candidates one generation asks for
const VariantCount = 3

// AuditAnalysis is the per-dimension critique of a profile
type AuditAnalysis struct {
	Clarity  string `json:"clarity"`
	Keywords string `json:"keywords"`
	CTA      string `json:"cta"`
	Impact   string `json:"impact"`
}

// AuditSuggestions holds rewrite proposals for a profile
type AuditSuggestions struct {
	Headlines  []string `json:"headlines"`
	AboutIntro string   `json:"about_intro"`
}

// AuditResult is the personal branding review of a LinkedIn profile
type AuditResult struct {
	Score       float64          `json:"score"`
	Analysis    AuditAnalysis    `json:"analysis"`
	Suggestions AuditSuggestions `json:"suggestions"`
}

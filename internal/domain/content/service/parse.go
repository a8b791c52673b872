package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

var (
	errMissingVariants = errors.New(`payload has no "variants" array`)
	errNoUsableVariant = errors.New("payload has no variant with content")
	errTrailingData    = errors.New("unexpected data after JSON document")
)

// sanitize strips markdown code fences some models wrap JSON answers in
func sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

type variantPayload struct {
	ID       string `json:"id"`
	Headline string `json:"headline"`
	Content  string `json:"content"`
}

type variantsPayload struct {
	Variants *[]variantPayload `json:"variants"`
}

// decodeStrict decodes exactly one JSON document from the sanitized payload
func decodeStrict(raw string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(sanitize(raw))))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

// parseVariants returns the variants carrying content, in vendor order
func parseVariants(raw string) ([]variantPayload, error) {
	var payload variantsPayload
	if err := decodeStrict(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Variants == nil {
		return nil, errMissingVariants
	}

	out := make([]variantPayload, 0, len(*payload.Variants))
	for _, v := range *payload.Variants {
		v.Content = strings.TrimSpace(v.Content)
		if v.Content == "" {
			continue
		}
		v.ID = strings.TrimSpace(v.ID)
		v.Headline = strings.TrimSpace(v.Headline)
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errNoUsableVariant
	}
	return out, nil
}

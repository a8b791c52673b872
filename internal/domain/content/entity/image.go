package entity

import (
	"encoding/base64"
	"strings"
)

// Image is a generated picture held in memory
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as a self-contained data URI
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseDataURI decodes a base64 data URI produced by DataURI
func ParseDataURI(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return nil, ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidDataURI
	}
	return &Image{MIMEType: mime, Data: data}, nil
}

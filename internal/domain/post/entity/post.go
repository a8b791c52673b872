package entity

import (
	"time"
)

// Status represents the lifecycle status of a post
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPublishing Status = "publishing"
	StatusScheduled  Status = "scheduled"
	StatusPublished  Status = "published"
	StatusFailed     Status = "failed"
)

// ParseStatus converts a raw value to a Status, rejecting anything outside the lifecycle
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPublishing, StatusScheduled, StatusPublished, StatusFailed:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// PlatformLinkedIn is the only network posts target
const PlatformLinkedIn = "linkedin"

const (
	DefaultPostTitle  = "Untitled Post"
	DefaultDraftTitle = "Untitled Draft"
)

// Variant is one AI-generated candidate rendering of a post.
// ID is scoped to the generation batch, not globally unique.
type Variant struct {
	ID       string `json:"variant_id"`
	Content  string `json:"content"`
	Headline string `json:"headline,omitempty"`
	Tone     string `json:"tone"`
	Length   string `json:"length"`
}

// Post is a unit of content intended for LinkedIn
type Post struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	GeneratedVariants []Variant  `json:"generated_variants"`
	Status            Status     `json:"status"`
	ScheduledTime     *time.Time `json:"scheduled_time,omitempty"`
	PublishedTime     *time.Time `json:"published_time,omitempty"`
	LinkedInPostID    string     `json:"linkedin_post_id,omitempty"`
	AyrshareID        string     `json:"ayrshare_id,omitempty"` // aggregator tracking id
	ErrorLog          string     `json:"error_log,omitempty"`
	Platform          string     `json:"platform"`
	MediaURLs         []string   `json:"media_urls"`
	Hashtags          []string   `json:"hashtags"`
	Metrics           Metrics    `json:"metrics"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ExternalID returns the identifier used against the aggregator:
// the tracking id when known, otherwise the network post id.
func (p *Post) ExternalID() string {
	if p.AyrshareID != "" {
		return p.AyrshareID
	}
	return p.LinkedInPostID
}

// CanSyncAnalytics returns true if engagement metrics can be fetched for the post
func (p *Post) CanSyncAnalytics() bool {
	return p.Status == StatusPublished && p.ExternalID() != ""
}

// IsDraftEditable returns true if a draft save may overwrite the post.
// Rows handed to the aggregator are owned by the workflow until they settle.
func (p *Post) IsDraftEditable() bool {
	return p.Status == StatusDraft || p.Status == StatusFailed
}

// DeleteTargetID returns the id the aggregator deletes by: the network post id
// once published, the tracking id while scheduled.
func (p *Post) DeleteTargetID() string {
	switch p.Status {
	case StatusPublished:
		return p.LinkedInPostID
	case StatusScheduled:
		return p.AyrshareID
	default:
		return ""
	}
}

// HasExternalCopy returns true if the aggregator may hold a copy of the post
func (p *Post) HasExternalCopy() bool {
	return p.DeleteTargetID() != ""
}

// Normalize fills defaults so a post read back or built in memory never carries nil slices
func (p *Post) Normalize() {
	if p.Platform == "" {
		p.Platform = PlatformLinkedIn
	}
	if p.GeneratedVariants == nil {
		p.GeneratedVariants = []Variant{}
	}
	if p.MediaURLs == nil {
		p.MediaURLs = []string{}
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.Status != StatusFailed {
		p.ErrorLog = ""
	}
}

package entity

import (
	"encoding/json"
	"time"
)

// PublishRequest is what the aggregator needs to deliver or schedule a post
type PublishRequest struct {
	Content      string
	MediaURLs    []string
	ScheduleDate *time.Time // nil publishes immediately
	Options      LinkedInOptions
}

// PublishReceipt carries the identifiers the aggregator returned
type PublishReceipt struct {
	ID          string // top-level id
	RefID       string // aggregator reference id
	FirstPostID string // id of the first per-network entry
}

// PrimaryID is the top-level id, falling back to the first per-network entry.
// It is the network post id of an immediate publish and the tracking id of a scheduled one.
func (r PublishReceipt) PrimaryID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.FirstPostID
}

// DeleteReceipt is the aggregator's raw answer to a deletion
type DeleteReceipt struct {
	Response json.RawMessage
}

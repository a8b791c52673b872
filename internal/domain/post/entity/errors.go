package entity

import "errors"

// Domain errors for posts
var (
	// Validation errors
	ErrEmptyUserID           = errors.New("user ID is required")
	ErrEmptyContent          = errors.New("post content is required")
	ErrInvalidStatus         = errors.New("invalid post status")
	ErrInvalidVisibility     = errors.New("invalid visibility, use public, connections or loggedin")
	ErrScheduledTimeRequired = errors.New("scheduled time is required")
	ErrScheduledTimeInPast   = errors.New("scheduled time must be in the future")
	ErrMissingIdempotencyKey = errors.New("post ID is required as the idempotency key")
	ErrInvalidIdempotencyKey = errors.New("post ID must be a UUID")

	// Business logic errors
	ErrPostNotFound    = errors.New("post not found")
	ErrPostNotEditable = errors.New("post cannot be edited in current status")
	ErrPostNotOwned    = errors.New("post belongs to another user")

	// Configuration errors
	ErrMissingAPIKey = errors.New("ayrshare API key is missing, add it in settings")
)

package entity

import "errors"

// Domain errors for profiles
var (
	ErrEmptyUserID = errors.New("user ID is required")
	ErrEmptyName   = errors.New("name is required")
)

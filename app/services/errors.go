package services

import "errors"

// Boundaries map these with errors.Is. Anything else is a generic failure.
var (
	ErrValidation      = errors.New("validation failed")
	ErrAuth            = errors.New("unauthorized")
	ErrPersistence     = errors.New("failed to save post")
	ErrNotification    = errors.New("failed to notify channel")
	ErrAlreadyNotified = errors.New("post was already sent to the channel")
)

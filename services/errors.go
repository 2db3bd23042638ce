package services

import "errors"

var (
	ErrWorkspaceFinished = errors.New("workspace is finished; progress can no longer change")

	// ErrUsageLimit carries the message shown to users when the AI quota is exhausted.
	ErrUsageLimit    = errors.New("AI Usage Limit Exceeded. Please try again later or upgrade plan.")
	ErrEmptyResponse = errors.New("AI returned an empty response")
	ErrAIUnavailable = errors.New("AI service is not available")
	ErrAIFailed      = errors.New("AI request failed")
	ErrInvalidImage  = errors.New("image must be a non-empty JPEG or PNG")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email is already registered")

	ErrMailDisabled = errors.New("email delivery is not configured")
)

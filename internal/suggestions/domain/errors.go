package domain

import "errors"

var (
	ErrEmptyPrompt = errors.New("promptText is required")
	ErrRateLimited = errors.New("rate limit exceeded, try again later")
)

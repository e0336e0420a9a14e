package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound      = errors.New("resource not found") // General not found
	ErrStoryNotFound = errors.New("story not found")
	ErrJobNotFound   = errors.New("job not found")
	ErrNodeNotFound  = errors.New("story node not found")

	// Validation Errors
	ErrInvalidInput     = errors.New("invalid input data")
	ErrThemeEmpty       = errors.New("theme must not be empty")
	ErrThemeTooLong     = errors.New("theme exceeds maximum length")
	ErrOptionInvalid    = errors.New("option index is out of range")
	ErrNodeIsEnding     = errors.New("story node is an ending and has no options")
	ErrStoryTreeInvalid = errors.New("story tree violates structural invariants")

	// Generation Errors
	ErrGenerationFailed = errors.New("story generation failed")
	ErrMalformedOutput  = errors.New("provider returned malformed story output")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
)

package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Attempt lifecycle constraints
	MaxCycles          int
	MaxFeedbackRetries int

	// Content constraints
	MaxContentLength    int
	MaxSubjectLength    int
	MaxThemeTitleLength int
	MinThemeTitleLength int

	// Feedback constraints
	FeedbackSchemaVersion int
	MaxFeedbackErrors     int

	// Time constraints
	DraftAutosaveDelay time.Duration
	ModelCallTimeout   time.Duration

	// Validation settings
	AllowEmptyTheoryText bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Attempt lifecycle constraints
		MaxCycles:          5,
		MaxFeedbackRetries: 1,

		// Content constraints
		MaxContentLength:    10000,
		MaxSubjectLength:    200,
		MaxThemeTitleLength: 200,
		MinThemeTitleLength: 1,

		// Feedback constraints
		FeedbackSchemaVersion: 1,
		MaxFeedbackErrors:     20,

		// Time constraints
		DraftAutosaveDelay: 600 * time.Millisecond,
		ModelCallTimeout:   90 * time.Second,

		// Validation settings
		AllowEmptyTheoryText: true,
	}
}

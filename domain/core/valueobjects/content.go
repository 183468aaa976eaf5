package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"focusloop/domain/config"
	pkgerrors "focusloop/pkg/errors"
)

// AttemptContent is a value object for the text a learner submits during an
// attempt: the initial explanation and every exercise answer that follows.
type AttemptContent struct {
	text string
}

// NewAttemptContent creates content with validation using default configuration
func NewAttemptContent(text string) (AttemptContent, error) {
	return NewAttemptContentWithConfig(text, config.DefaultDomainConfig())
}

// NewAttemptContentWithConfig creates content with validation and configuration
func NewAttemptContentWithConfig(text string, cfg *config.DomainConfig) (AttemptContent, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	text = strings.TrimSpace(text)

	if text == "" {
		return AttemptContent{}, pkgerrors.NewGuardViolation(pkgerrors.CodeEmptyContent, "attempt content cannot be empty")
	}

	if utf8.RuneCountInString(text) > cfg.MaxContentLength {
		return AttemptContent{}, pkgerrors.NewGuardViolation(
			pkgerrors.CodeContentTooLong,
			fmt.Sprintf("attempt content exceeds maximum length of %d characters", cfg.MaxContentLength),
		)
	}

	return AttemptContent{text: text}, nil
}

// Text returns the content text
func (c AttemptContent) Text() string {
	return c.text
}

// IsZero checks if the content is the zero value
func (c AttemptContent) IsZero() bool {
	return c.text == ""
}

// Equals checks if two contents are equal
func (c AttemptContent) Equals(other AttemptContent) bool {
	return c.text == other.text
}

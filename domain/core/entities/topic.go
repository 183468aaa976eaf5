package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"focusloop/domain/config"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/events"
	pkgerrors "focusloop/pkg/errors"
)

// Theme is a sub-area of a topic that attempts are made against
type Theme struct {
	id        valueobjects.ThemeID
	title     string
	createdAt time.Time
	updatedAt time.Time
}

// ID returns the theme's unique identifier
func (t *Theme) ID() valueobjects.ThemeID {
	return t.id
}

// Title returns the theme title
func (t *Theme) Title() string {
	return t.title
}

// CreatedAt returns the creation timestamp
func (t *Theme) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt returns the last modification timestamp
func (t *Theme) UpdatedAt() time.Time {
	return t.updatedAt
}

// ReconstructTheme rebuilds a theme from persisted data
func ReconstructTheme(id valueobjects.ThemeID, title string, createdAt, updatedAt time.Time) *Theme {
	return &Theme{id: id, title: title, createdAt: createdAt, updatedAt: updatedAt}
}

// Topic is the aggregate owning a subject of study and its themes
type Topic struct {
	id        valueobjects.TopicID
	userID    string
	subject   string
	themes    []*Theme
	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewTopic creates a topic with a validated subject line
func NewTopic(userID, subject string) (*Topic, error) {
	return NewTopicWithConfig(userID, subject, config.DefaultDomainConfig())
}

// NewTopicWithConfig creates a topic with validation and configuration
func NewTopicWithConfig(userID, subject string, cfg *config.DomainConfig) (*Topic, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	subject, err := validSubject(subject, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	topic := &Topic{
		id:        valueobjects.NewTopicID(),
		userID:    userID,
		subject:   subject,
		themes:    []*Theme{},
		createdAt: now,
		updatedAt: now,
		events:    []events.DomainEvent{},
	}

	topic.addEvent(events.NewTopicUpserted(topic.id, subject, now))
	return topic, nil
}

// ReconstructTopic rebuilds a topic from persisted data with preserved
// timestamps. No events are raised.
func ReconstructTopic(
	id valueobjects.TopicID,
	userID string,
	subject string,
	themes []*Theme,
	createdAt, updatedAt time.Time,
) *Topic {
	if themes == nil {
		themes = []*Theme{}
	}
	return &Topic{
		id:        id,
		userID:    userID,
		subject:   subject,
		themes:    themes,
		createdAt: createdAt,
		updatedAt: updatedAt,
		events:    []events.DomainEvent{},
	}
}

// ID returns the topic's unique identifier
func (t *Topic) ID() valueobjects.TopicID {
	return t.id
}

// UserID returns the owning user's identifier
func (t *Topic) UserID() string {
	return t.userID
}

// Subject returns the subject line
func (t *Topic) Subject() string {
	return t.subject
}

// Themes returns the topic's themes in insertion order
func (t *Topic) Themes() []*Theme {
	themes := make([]*Theme, len(t.themes))
	copy(themes, t.themes)
	return themes
}

// Theme finds a theme by ID, or nil
func (t *Topic) Theme(themeID valueobjects.ThemeID) *Theme {
	for _, theme := range t.themes {
		if theme.id.Equals(themeID) {
			return theme
		}
	}
	return nil
}

// CreatedAt returns the creation timestamp
func (t *Topic) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt returns the last modification timestamp
func (t *Topic) UpdatedAt() time.Time {
	return t.updatedAt
}

// Rename changes the subject line
func (t *Topic) Rename(subject string) error {
	return t.RenameWithConfig(subject, config.DefaultDomainConfig())
}

// RenameWithConfig changes the subject line with configuration
func (t *Topic) RenameWithConfig(subject string, cfg *config.DomainConfig) error {
	subject, err := validSubject(subject, cfg)
	if err != nil {
		return err
	}

	t.subject = subject
	t.updatedAt = time.Now()

	t.addEvent(events.NewTopicUpserted(t.id, subject, t.updatedAt))
	return nil
}

// AddTheme appends a new theme with a validated title
func (t *Topic) AddTheme(title string) (*Theme, error) {
	return t.AddThemeWithConfig(title, config.DefaultDomainConfig())
}

// AddThemeWithConfig appends a new theme with validation and configuration
func (t *Topic) AddThemeWithConfig(title string, cfg *config.DomainConfig) (*Theme, error) {
	title, err := validThemeTitle(title, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	theme := &Theme{
		id:        valueobjects.NewThemeID(),
		title:     title,
		createdAt: now,
		updatedAt: now,
	}
	t.themes = append(t.themes, theme)
	t.updatedAt = now

	t.addEvent(events.NewThemeAdded(t.id, theme.id, title, now))
	return theme, nil
}

// UpdateThemeTitle renames an existing theme
func (t *Topic) UpdateThemeTitle(themeID valueobjects.ThemeID, title string) error {
	return t.UpdateThemeTitleWithConfig(themeID, title, config.DefaultDomainConfig())
}

// UpdateThemeTitleWithConfig renames an existing theme with configuration
func (t *Topic) UpdateThemeTitleWithConfig(themeID valueobjects.ThemeID, title string, cfg *config.DomainConfig) error {
	title, err := validThemeTitle(title, cfg)
	if err != nil {
		return err
	}

	theme := t.Theme(themeID)
	if theme == nil {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("theme %s not found in topic %s", themeID.String(), t.id.String()))
	}

	theme.title = title
	theme.updatedAt = time.Now()
	t.updatedAt = theme.updatedAt
	return nil
}

// RemoveTheme deletes a theme from the topic
func (t *Topic) RemoveTheme(themeID valueobjects.ThemeID) error {
	for i, theme := range t.themes {
		if theme.id.Equals(themeID) {
			t.themes = append(t.themes[:i], t.themes[i+1:]...)
			t.updatedAt = time.Now()

			t.addEvent(events.NewThemeRemoved(t.id, themeID, t.updatedAt))
			return nil
		}
	}
	return pkgerrors.NewNotFoundError(fmt.Sprintf("theme %s not found in topic %s", themeID.String(), t.id.String()))
}

// GetUncommittedEvents returns events raised since the last commit
func (t *Topic) GetUncommittedEvents() []events.DomainEvent {
	return t.events
}

// MarkEventsAsCommitted clears the event list after publishing
func (t *Topic) MarkEventsAsCommitted() {
	t.events = []events.DomainEvent{}
}

func (t *Topic) addEvent(event events.DomainEvent) {
	t.events = append(t.events, event)
}

func validSubject(subject string, cfg *config.DomainConfig) (string, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", pkgerrors.NewValidationError("subject cannot be empty")
	}
	if utf8.RuneCountInString(subject) > cfg.MaxSubjectLength {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("subject exceeds maximum length of %d characters", cfg.MaxSubjectLength))
	}
	return subject, nil
}

func validThemeTitle(title string, cfg *config.DomainConfig) (string, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	title = strings.TrimSpace(title)
	length := utf8.RuneCountInString(title)
	if length < cfg.MinThemeTitleLength {
		return "", pkgerrors.NewValidationError("theme title cannot be empty")
	}
	if length > cfg.MaxThemeTitleLength {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("theme title exceeds maximum length of %d characters", cfg.MaxThemeTitleLength))
	}
	return title, nil
}

// Package ports declares the interfaces the application layer depends on.
// Implementations live in infrastructure; the domain knows none of them.
package ports

import (
	"context"

	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/events"
	"focusloop/domain/versioning"
)

// EntityStore is the canonical in-memory state of topics, themes, attempts
// and drafts. Every mutation is atomic and total: it either fully applies
// or returns an error leaving state untouched. Returned entities are deep
// copies; callers never see interior pointers.
type EntityStore interface {
	// Topics
	UpsertTopic(ctx context.Context, userID string, topicID valueobjects.TopicID, subject string) (*entities.Topic, error)
	GetTopic(ctx context.Context, topicID valueobjects.TopicID) (*entities.Topic, error)
	ListTopics(ctx context.Context, userID string) ([]*entities.Topic, error)
	DeleteTopic(ctx context.Context, topicID valueobjects.TopicID) error

	// Themes
	AddTheme(ctx context.Context, topicID valueobjects.TopicID, title string) (*entities.Theme, error)
	UpdateThemeTitle(ctx context.Context, themeID valueobjects.ThemeID, title string) error
	// RemoveTheme deletes a theme with its attempts and returns the
	// owning topic's ID, which still resolves after the removal.
	RemoveTheme(ctx context.Context, themeID valueobjects.ThemeID) (valueobjects.TopicID, error)

	// Attempts
	CreateAttempt(ctx context.Context, topicID valueobjects.TopicID, themeID valueobjects.ThemeID, content valueobjects.AttemptContent) (*entities.Attempt, error)
	GetAttempt(ctx context.Context, attemptID valueobjects.AttemptID) (*entities.Attempt, error)

	// PushVersion appends a content version and returns the updated attempt,
	// so callers act on post-push state without a second read
	PushVersion(ctx context.Context, attemptID valueobjects.AttemptID, content valueobjects.AttemptContent, source entities.VersionSource, exerciseID valueobjects.ExerciseID) (*entities.Attempt, error)
	SetStatus(ctx context.Context, attemptID valueobjects.AttemptID, status entities.AttemptStatus) error
	IncrementCycle(ctx context.Context, attemptID valueobjects.AttemptID) error

	// AttachFeedback is a no-op when the attempt no longer exists, so
	// in-flight analysis results for deleted attempts are dropped silently
	AttachFeedback(ctx context.Context, attemptID valueobjects.AttemptID, feedback entities.AttemptFeedback) error
	SetPendingExercise(ctx context.Context, attemptID valueobjects.AttemptID, exercise *entities.ExercisePayload) error
	RecordAnswer(ctx context.Context, attemptID valueobjects.AttemptID) error

	// DrainEvents returns the uncommitted domain events recorded on an
	// aggregate and clears them. The aggregate ID may name a topic, a
	// theme (resolved to its owning topic) or an attempt. A missing
	// aggregate drains nothing.
	DrainEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// Export
	ExportTopic(ctx context.Context, topicID valueobjects.TopicID) (*versioning.TopicSnapshot, error)

	// Draft buffers
	SetDraftValue(ctx context.Context, key, value string) (*entities.Draft, error)
	SetDraftStatus(ctx context.Context, key string, status entities.DraftStatus) error
	ClearDraft(ctx context.Context, key string) error
	Draft(ctx context.Context, key string) (*entities.Draft, error)

	// Settings
	Settings(ctx context.Context) (*entities.Settings, error)
	SetSelectedModel(ctx context.Context, model string) error
	SetAvailableModels(ctx context.Context, models []entities.ModelInfo) error
	SetPropositionPrompt(ctx context.Context, kind entities.PropositionPromptKind, template string) error
}

// ModelRequest is one completion request to the language model provider
type ModelRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
	JSONResponse bool
}

// ModelClient talks to the external language model provider
type ModelClient interface {
	// Complete runs one completion and returns the raw response text
	Complete(ctx context.Context, req ModelRequest) (string, error)

	// ListModels fetches the provider's model catalog
	ListModels(ctx context.Context) ([]entities.ModelInfo, error)
}

// SnapshotStore persists exported topic snapshots
type SnapshotStore interface {
	// SaveSnapshot writes a snapshot, overwriting any previous export of
	// the same topic
	SaveSnapshot(ctx context.Context, snapshot *versioning.TopicSnapshot) error

	// GetSnapshot retrieves the stored snapshot, or nil when none exists
	GetSnapshot(ctx context.Context, userID, topicID string) (*versioning.TopicSnapshot, error)

	// ListSnapshots lists stored snapshots for a user
	ListSnapshots(ctx context.Context, userID string) ([]*versioning.TopicSnapshot, error)
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// DeleteEvents removes all events for an aggregate
	DeleteEvents(ctx context.Context, aggregateID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

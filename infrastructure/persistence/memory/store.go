// Package memory holds the canonical in-process state behind a single lock.
// The arena maps own every entity; index maps resolve ownership so a missing
// attempt or theme is an explicit branch, never a nil walk.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"focusloop/domain/config"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/events"
	"focusloop/domain/versioning"
	pkgerrors "focusloop/pkg/errors"
)

// Store is the in-memory EntityStore implementation
type Store struct {
	mu  sync.RWMutex
	cfg *config.DomainConfig
	log *zap.Logger

	// arenas
	topics   map[string]*entities.Topic
	attempts map[string]*entities.Attempt
	drafts   map[string]*entities.Draft
	settings *entities.Settings

	// indexes
	themeOwner   map[string]string   // themeID -> topicID
	attemptOwner map[string]string   // attemptID -> themeID
	themeAttempt map[string][]string // themeID -> attemptIDs, newest first
	userID       string
}

// NewStore creates an empty store
func NewStore(cfg *config.DomainConfig, logger *zap.Logger) *Store {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:          cfg,
		log:          logger,
		topics:       make(map[string]*entities.Topic),
		attempts:     make(map[string]*entities.Attempt),
		drafts:       make(map[string]*entities.Draft),
		settings:     entities.DefaultSettings(),
		themeOwner:   make(map[string]string),
		attemptOwner: make(map[string]string),
		themeAttempt: make(map[string][]string),
	}
}

// UpsertTopic creates a topic when topicID is zero, otherwise renames it
func (s *Store) UpsertTopic(ctx context.Context, userID string, topicID valueobjects.TopicID, subject string) (*entities.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if topicID.IsZero() {
		topic, err := entities.NewTopicWithConfig(userID, subject, s.cfg)
		if err != nil {
			return nil, err
		}
		s.topics[topic.ID().String()] = topic
		s.log.Debug("topic created", zap.String("topic_id", topic.ID().String()))
		return cloneTopic(topic), nil
	}

	topic, ok := s.topics[topicID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", topicID.String()))
	}
	if err := topic.RenameWithConfig(subject, s.cfg); err != nil {
		return nil, err
	}
	return cloneTopic(topic), nil
}

// GetTopic returns a copy of a topic
func (s *Store) GetTopic(ctx context.Context, topicID valueobjects.TopicID) (*entities.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topic, ok := s.topics[topicID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", topicID.String()))
	}
	return cloneTopic(topic), nil
}

// ListTopics returns copies of all topics owned by a user
func (s *Store) ListTopics(ctx context.Context, userID string) ([]*entities.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]*entities.Topic, 0, len(s.topics))
	for _, topic := range s.topics {
		if topic.UserID() == userID {
			topics = append(topics, cloneTopic(topic))
		}
	}
	return topics, nil
}

// DeleteTopic removes a topic with all its themes, attempts and indexes
func (s *Store) DeleteTopic(ctx context.Context, topicID valueobjects.TopicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, ok := s.topics[topicID.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", topicID.String()))
	}

	for _, theme := range topic.Themes() {
		s.dropThemeLocked(theme.ID().String())
	}
	delete(s.topics, topicID.String())
	s.log.Debug("topic deleted", zap.String("topic_id", topicID.String()))
	return nil
}

// AddTheme appends a theme to a topic
func (s *Store) AddTheme(ctx context.Context, topicID valueobjects.TopicID, title string) (*entities.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, ok := s.topics[topicID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", topicID.String()))
	}

	theme, err := topic.AddThemeWithConfig(title, s.cfg)
	if err != nil {
		return nil, err
	}
	s.themeOwner[theme.ID().String()] = topicID.String()
	return cloneTheme(theme), nil
}

// UpdateThemeTitle renames a theme
func (s *Store) UpdateThemeTitle(ctx context.Context, themeID valueobjects.ThemeID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, err := s.owningTopicLocked(themeID)
	if err != nil {
		return err
	}
	return topic.UpdateThemeTitleWithConfig(themeID, title, s.cfg)
}

// RemoveTheme deletes a theme and every attempt made against it. It
// returns the owning topic's ID since the theme index entry is gone
// after the call.
func (s *Store) RemoveTheme(ctx context.Context, themeID valueobjects.ThemeID) (valueobjects.TopicID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, err := s.owningTopicLocked(themeID)
	if err != nil {
		return valueobjects.TopicID{}, err
	}
	if err := topic.RemoveTheme(themeID); err != nil {
		return valueobjects.TopicID{}, err
	}
	s.dropThemeLocked(themeID.String())
	return topic.ID(), nil
}

// CreateAttempt opens an attempt with the initial content as version 1
func (s *Store) CreateAttempt(ctx context.Context, topicID valueobjects.TopicID, themeID valueobjects.ThemeID, content valueobjects.AttemptContent) (*entities.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.themeOwner[themeID.String()]
	if !ok || owner != topicID.String() {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("theme %s not found in topic %s", themeID.String(), topicID.String()))
	}

	attempt, err := entities.NewAttempt(topicID, themeID, content)
	if err != nil {
		return nil, err
	}

	id := attempt.ID().String()
	s.attempts[id] = attempt
	s.attemptOwner[id] = themeID.String()
	s.themeAttempt[themeID.String()] = append([]string{id}, s.themeAttempt[themeID.String()]...)
	s.log.Debug("attempt created", zap.String("attempt_id", id), zap.String("theme_id", themeID.String()))
	return cloneAttempt(attempt), nil
}

// GetAttempt returns a copy of an attempt
func (s *Store) GetAttempt(ctx context.Context, attemptID valueobjects.AttemptID) (*entities.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", attemptID.String()))
	}
	return cloneAttempt(attempt), nil
}

// PushVersion appends a content version and returns the updated attempt
func (s *Store) PushVersion(ctx context.Context, attemptID valueobjects.AttemptID, content valueobjects.AttemptContent, source entities.VersionSource, exerciseID valueobjects.ExerciseID) (*entities.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", attemptID.String()))
	}
	if _, err := attempt.PushVersion(content, source, exerciseID); err != nil {
		return nil, err
	}
	return cloneAttempt(attempt), nil
}

// SetStatus moves an attempt to a new lifecycle status
func (s *Store) SetStatus(ctx context.Context, attemptID valueobjects.AttemptID, status entities.AttemptStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", attemptID.String()))
	}
	return attempt.ChangeStatus(status)
}

// IncrementCycle counts a completed cycle, enforcing the ceiling
func (s *Store) IncrementCycle(ctx context.Context, attemptID valueobjects.AttemptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", attemptID.String()))
	}
	return attempt.IncrementCycle(s.cfg)
}

// AttachFeedback stores a validated critique. When the attempt was deleted
// while analysis was in flight the result is dropped without error.
func (s *Store) AttachFeedback(ctx context.Context, attemptID valueobjects.AttemptID, feedback entities.AttemptFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		s.log.Debug("feedback dropped for missing attempt", zap.String("attempt_id", attemptID.String()))
		return nil
	}
	return attempt.AttachFeedback(feedback)
}

// SetPendingExercise stores or clears the pending exercise slot
func (s *Store) SetPendingExercise(ctx context.Context, attemptID valueobjects.AttemptID, exercise *entities.ExercisePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", attemptID.String()))
	}
	return attempt.SetPendingExercise(exercise)
}

// RecordAnswer closes out an answered exercise: pending slot cleared,
// status back to submitted, cycle counted
func (s *Store) RecordAnswer(ctx context.Context, attemptID valueobjects.AttemptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[attemptID.String()]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", attemptID.String()))
	}
	return attempt.RecordAnswer(s.cfg)
}

// DrainEvents hands out and clears the uncommitted events of an attempt or
// topic. Theme IDs resolve to the owning topic. A missing aggregate drains
// nothing, so callers flushing after a delete see an empty batch.
func (s *Store) DrainEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt, ok := s.attempts[aggregateID]; ok {
		drained := attempt.GetUncommittedEvents()
		attempt.MarkEventsAsCommitted()
		return drained, nil
	}
	if owner, ok := s.themeOwner[aggregateID]; ok {
		aggregateID = owner
	}
	if topic, ok := s.topics[aggregateID]; ok {
		drained := topic.GetUncommittedEvents()
		topic.MarkEventsAsCommitted()
		return drained, nil
	}
	return nil, nil
}

// ExportTopic builds the depth-complete snapshot, or nil when the topic
// does not exist
func (s *Store) ExportTopic(ctx context.Context, topicID valueobjects.TopicID) (*versioning.TopicSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topic, ok := s.topics[topicID.String()]
	if !ok {
		return nil, nil
	}

	attemptsByTheme := make(map[string][]*entities.Attempt)
	for _, theme := range topic.Themes() {
		for _, attemptID := range s.themeAttempt[theme.ID().String()] {
			if attempt, ok := s.attempts[attemptID]; ok {
				attemptsByTheme[theme.ID().String()] = append(attemptsByTheme[theme.ID().String()], attempt)
			}
		}
	}

	return versioning.BuildTopicSnapshot(topic, attemptsByTheme), nil
}

// SetDraftValue writes a draft buffer and marks it saving
func (s *Store) SetDraftValue(ctx context.Context, key, value string) (*entities.Draft, error) {
	if key == "" {
		return nil, pkgerrors.NewValidationError("draft key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := &entities.Draft{
		Key:       key,
		Value:     value,
		Status:    entities.DraftStatusSaving,
		UpdatedAt: nowFunc(),
	}
	s.drafts[key] = draft
	out := *draft
	return &out, nil
}

// SetDraftStatus updates the autosave state of an existing draft
func (s *Store) SetDraftStatus(ctx context.Context, key string, status entities.DraftStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[key]
	if !ok {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("draft %s not found", key))
	}
	draft.Status = status
	draft.UpdatedAt = nowFunc()
	return nil
}

// ClearDraft removes a draft buffer
func (s *Store) ClearDraft(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, key)
	return nil
}

// Draft returns a copy of a draft buffer
func (s *Store) Draft(ctx context.Context, key string) (*entities.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[key]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("draft %s not found", key))
	}
	out := *draft
	return &out, nil
}

// Settings returns a copy of the runtime settings
func (s *Store) Settings(ctx context.Context) (*entities.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone(), nil
}

// SetSelectedModel changes the model completions are sent to
func (s *Store) SetSelectedModel(ctx context.Context, model string) error {
	if model == "" {
		return pkgerrors.NewValidationError("model cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.SelectedModel = model
	return nil
}

// SetAvailableModels replaces the cached model catalog
func (s *Store) SetAvailableModels(ctx context.Context, models []entities.ModelInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.AvailableModels = make([]entities.ModelInfo, len(models))
	copy(s.settings.AvailableModels, models)
	return nil
}

// SetPropositionPrompt replaces a chain template
func (s *Store) SetPropositionPrompt(ctx context.Context, kind entities.PropositionPromptKind, template string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.SetPrompt(kind, template)
}

// owningTopicLocked resolves a theme to its topic via the index
func (s *Store) owningTopicLocked(themeID valueobjects.ThemeID) (*entities.Topic, error) {
	topicID, ok := s.themeOwner[themeID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("theme %s not found", themeID.String()))
	}
	topic, ok := s.topics[topicID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", topicID))
	}
	return topic, nil
}

// dropThemeLocked removes a theme's attempts and index entries
func (s *Store) dropThemeLocked(themeID string) {
	for _, attemptID := range s.themeAttempt[themeID] {
		delete(s.attempts, attemptID)
		delete(s.attemptOwner, attemptID)
	}
	delete(s.themeAttempt, themeID)
	delete(s.themeOwner, themeID)
}

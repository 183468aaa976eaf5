package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"focusloop/application/commands"
	"focusloop/application/ports"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/events"
	pkgerrors "focusloop/pkg/errors"
)

// TopicHandler executes the topic and theme commands against the store
type TopicHandler struct {
	store  ports.EntityStore
	outbox ports.EventStore
	logger *zap.Logger
}

// NewTopicHandler creates the handler
func NewTopicHandler(store ports.EntityStore, outbox ports.EventStore, logger *zap.Logger) *TopicHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicHandler{store: store, outbox: outbox, logger: logger}
}

// UpsertTopic creates the topic when no ID is given, otherwise renames it
func (h *TopicHandler) UpsertTopic(ctx context.Context, cmd commands.UpsertTopicCommand) (*entities.Topic, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	var topicID valueobjects.TopicID
	if cmd.TopicID != "" {
		parsed, err := valueobjects.NewTopicIDFromString(cmd.TopicID)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		topicID = parsed
	}

	topic, err := h.store.UpsertTopic(ctx, cmd.UserID, topicID, cmd.Subject)
	if err != nil {
		return nil, err
	}

	h.flush(ctx, topic.ID().String())
	return topic, nil
}

// DeleteTopic removes the topic, its themes and their attempts
func (h *TopicHandler) DeleteTopic(ctx context.Context, cmd commands.DeleteTopicCommand) error {
	if err := cmd.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	topicID, err := valueobjects.NewTopicIDFromString(cmd.TopicID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	if err := h.store.DeleteTopic(ctx, topicID); err != nil {
		return err
	}

	h.logger.Info("topic deleted", zap.String("topic_id", cmd.TopicID))
	h.record(ctx, events.NewTopicDeleted(topicID, time.Now()))
	return nil
}

// AddTheme appends a theme to the topic
func (h *TopicHandler) AddTheme(ctx context.Context, cmd commands.AddThemeCommand) (*entities.Theme, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	topicID, err := valueobjects.NewTopicIDFromString(cmd.TopicID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	theme, err := h.store.AddTheme(ctx, topicID, cmd.Title)
	if err != nil {
		return nil, err
	}

	h.flush(ctx, topicID.String())
	return theme, nil
}

// UpdateThemeTitle renames a theme
func (h *TopicHandler) UpdateThemeTitle(ctx context.Context, cmd commands.UpdateThemeTitleCommand) error {
	if err := cmd.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	themeID, err := valueobjects.NewThemeIDFromString(cmd.ThemeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.store.UpdateThemeTitle(ctx, themeID, cmd.Title)
}

// RemoveTheme deletes a theme and all attempts under it
func (h *TopicHandler) RemoveTheme(ctx context.Context, cmd commands.RemoveThemeCommand) error {
	if err := cmd.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	themeID, err := valueobjects.NewThemeIDFromString(cmd.ThemeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	topicID, err := h.store.RemoveTheme(ctx, themeID)
	if err != nil {
		return err
	}

	h.logger.Info("theme removed", zap.String("theme_id", cmd.ThemeID))
	h.flush(ctx, topicID.String())
	return nil
}

// flush drains the aggregate's recorded events into the outbox, best
// effort; the relay publishes what was stored.
func (h *TopicHandler) flush(ctx context.Context, aggregateID string) {
	drained, err := h.store.DrainEvents(ctx, aggregateID)
	if err != nil || len(drained) == 0 {
		return
	}
	if h.outbox == nil {
		return
	}
	if err := h.outbox.SaveEvents(ctx, drained); err != nil {
		h.logger.Warn("outbox write failed",
			zap.String("aggregate_id", aggregateID),
			zap.Error(err),
		)
	}
}

// record writes an event for an aggregate that no longer exists, so the
// deletion itself still reaches the outbox.
func (h *TopicHandler) record(ctx context.Context, event events.DomainEvent) {
	if h.outbox == nil {
		return
	}
	if err := h.outbox.SaveEvents(ctx, []events.DomainEvent{event}); err != nil {
		h.logger.Warn("outbox write failed",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}

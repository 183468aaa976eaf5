// Package handlers contains the query handlers. They read through the
// entity store and map entities to transport-ready result DTOs.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"focusloop/application/ports"
	"focusloop/application/queries"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/versioning"
	pkgerrors "focusloop/pkg/errors"
	"focusloop/pkg/utils"
)

// TopicQueryHandler answers topic reads and exports
type TopicQueryHandler struct {
	store     ports.EntityStore
	snapshots ports.SnapshotStore
	logger    *zap.Logger
}

// NewTopicQueryHandler creates the handler. The snapshot store is optional;
// without one, exports are returned but not persisted.
func NewTopicQueryHandler(store ports.EntityStore, snapshots ports.SnapshotStore, logger *zap.Logger) *TopicQueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicQueryHandler{store: store, snapshots: snapshots, logger: logger}
}

// HandleGetTopic executes the topic read
func (h *TopicQueryHandler) HandleGetTopic(ctx context.Context, query queries.GetTopicQuery) (*queries.TopicResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	topicID, err := valueobjects.NewTopicIDFromString(query.TopicID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	topic, err := h.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.UserID() != query.UserID {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", query.TopicID))
	}

	result := topicResult(topic)
	return &result, nil
}

// HandleListTopics executes the topic list read
func (h *TopicQueryHandler) HandleListTopics(ctx context.Context, query queries.ListTopicsQuery) (*queries.ListTopicsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	topics, err := h.store.ListTopics(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	results := make([]queries.TopicResult, 0, len(topics))
	for _, topic := range topics {
		results = append(results, topicResult(topic))
	}
	return &queries.ListTopicsResult{Topics: results, Total: len(results)}, nil
}

// HandleExportTopic builds the snapshot and persists it when a snapshot
// store is wired
func (h *TopicQueryHandler) HandleExportTopic(ctx context.Context, query queries.ExportTopicQuery) (*versioning.TopicSnapshot, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	topicID, err := valueobjects.NewTopicIDFromString(query.TopicID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	topic, err := h.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.UserID() != query.UserID {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", query.TopicID))
	}

	snapshot, err := h.store.ExportTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("topic %s not found", query.TopicID))
	}

	if h.snapshots != nil {
		if err := h.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			h.logger.Warn("snapshot persistence failed",
				zap.String("topic_id", query.TopicID),
				zap.Error(err),
			)
		}
	}
	return snapshot, nil
}

func topicResult(topic *entities.Topic) queries.TopicResult {
	themes := make([]queries.ThemeResult, 0, len(topic.Themes()))
	for _, theme := range topic.Themes() {
		themes = append(themes, queries.ThemeResult{
			ID:        theme.ID().String(),
			Title:     theme.Title(),
			CreatedAt: utils.FormatRFC3339(theme.CreatedAt()),
			UpdatedAt: utils.FormatRFC3339(theme.UpdatedAt()),
		})
	}
	return queries.TopicResult{
		ID:        topic.ID().String(),
		UserID:    topic.UserID(),
		Subject:   topic.Subject(),
		Themes:    themes,
		CreatedAt: utils.FormatRFC3339(topic.CreatedAt()),
		UpdatedAt: utils.FormatRFC3339(topic.UpdatedAt()),
	}
}

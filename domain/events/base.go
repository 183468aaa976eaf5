package events

import (
	"time"

	"focusloop/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Attempt Events

// AttemptCreated is raised when a learner opens a new attempt on a theme
type AttemptCreated struct {
	BaseEvent
	AttemptID valueobjects.AttemptID `json:"attempt_id"`
	TopicID   valueobjects.TopicID   `json:"topic_id"`
	ThemeID   valueobjects.ThemeID   `json:"theme_id"`
}

// NewAttemptCreated creates an AttemptCreated event
func NewAttemptCreated(attemptID valueobjects.AttemptID, topicID valueobjects.TopicID, themeID valueobjects.ThemeID, timestamp time.Time) AttemptCreated {
	return AttemptCreated{
		BaseEvent: BaseEvent{
			AggregateID: attemptID.String(),
			EventType:   "attempt.created",
			Timestamp:   timestamp,
			Version:     1,
		},
		AttemptID: attemptID,
		TopicID:   topicID,
		ThemeID:   themeID,
	}
}

// VersionPushed is raised when a new content version is appended to an attempt
type VersionPushed struct {
	BaseEvent
	AttemptID     valueobjects.AttemptID `json:"attempt_id"`
	VersionNumber int                    `json:"version_number"`
	Source        string                 `json:"source"`
}

// NewVersionPushed creates a VersionPushed event
func NewVersionPushed(attemptID valueobjects.AttemptID, versionNumber int, source string, timestamp time.Time) VersionPushed {
	return VersionPushed{
		BaseEvent: BaseEvent{
			AggregateID: attemptID.String(),
			EventType:   "attempt.version_pushed",
			Timestamp:   timestamp,
			Version:     1,
		},
		AttemptID:     attemptID,
		VersionNumber: versionNumber,
		Source:        source,
	}
}

// StatusChanged is raised on every attempt status transition
type StatusChanged struct {
	BaseEvent
	AttemptID valueobjects.AttemptID `json:"attempt_id"`
	OldStatus string                 `json:"old_status"`
	NewStatus string                 `json:"new_status"`
}

// NewStatusChanged creates a StatusChanged event
func NewStatusChanged(attemptID valueobjects.AttemptID, oldStatus, newStatus string, timestamp time.Time) StatusChanged {
	return StatusChanged{
		BaseEvent: BaseEvent{
			AggregateID: attemptID.String(),
			EventType:   "attempt.status_changed",
			Timestamp:   timestamp,
			Version:     1,
		},
		AttemptID: attemptID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}
}

// FeedbackAttached is raised when validated feedback is stored on an attempt
type FeedbackAttached struct {
	BaseEvent
	AttemptID  valueobjects.AttemptID  `json:"attempt_id"`
	FeedbackID valueobjects.FeedbackID `json:"feedback_id"`
	ErrorCount int                     `json:"error_count"`
	Source     string                  `json:"source"`
}

// NewFeedbackAttached creates a FeedbackAttached event
func NewFeedbackAttached(attemptID valueobjects.AttemptID, feedbackID valueobjects.FeedbackID, errorCount int, source string, timestamp time.Time) FeedbackAttached {
	return FeedbackAttached{
		BaseEvent: BaseEvent{
			AggregateID: attemptID.String(),
			EventType:   "attempt.feedback_attached",
			Timestamp:   timestamp,
			Version:     1,
		},
		AttemptID:  attemptID,
		FeedbackID: feedbackID,
		ErrorCount: errorCount,
		Source:     source,
	}
}

// ExerciseGenerated is raised when a follow-up exercise is set as pending
type ExerciseGenerated struct {
	BaseEvent
	AttemptID    valueobjects.AttemptID  `json:"attempt_id"`
	ExerciseID   valueobjects.ExerciseID `json:"exercise_id"`
	ExerciseType string                  `json:"exercise_type"`
}

// NewExerciseGenerated creates an ExerciseGenerated event
func NewExerciseGenerated(attemptID valueobjects.AttemptID, exerciseID valueobjects.ExerciseID, exerciseType string, timestamp time.Time) ExerciseGenerated {
	return ExerciseGenerated{
		BaseEvent: BaseEvent{
			AggregateID: attemptID.String(),
			EventType:   "attempt.exercise_generated",
			Timestamp:   timestamp,
			Version:     1,
		},
		AttemptID:    attemptID,
		ExerciseID:   exerciseID,
		ExerciseType: exerciseType,
	}
}

// AnswerSubmitted is raised when a learner answers the pending exercise and
// a new cycle begins
type AnswerSubmitted struct {
	BaseEvent
	AttemptID valueobjects.AttemptID `json:"attempt_id"`
	Cycle     int                    `json:"cycle"`
}

// NewAnswerSubmitted creates an AnswerSubmitted event
func NewAnswerSubmitted(attemptID valueobjects.AttemptID, cycle int, timestamp time.Time) AnswerSubmitted {
	return AnswerSubmitted{
		BaseEvent: BaseEvent{
			AggregateID: attemptID.String(),
			EventType:   "attempt.answer_submitted",
			Timestamp:   timestamp,
			Version:     1,
		},
		AttemptID: attemptID,
		Cycle:     cycle,
	}
}

// Topic Events

// TopicUpserted is raised when a topic is created or its subject renamed
type TopicUpserted struct {
	BaseEvent
	TopicID valueobjects.TopicID `json:"topic_id"`
	Subject string               `json:"subject"`
}

// NewTopicUpserted creates a TopicUpserted event
func NewTopicUpserted(topicID valueobjects.TopicID, subject string, timestamp time.Time) TopicUpserted {
	return TopicUpserted{
		BaseEvent: BaseEvent{
			AggregateID: topicID.String(),
			EventType:   "topic.upserted",
			Timestamp:   timestamp,
			Version:     1,
		},
		TopicID: topicID,
		Subject: subject,
	}
}

// TopicDeleted is raised when a topic and all dependent records are removed
type TopicDeleted struct {
	BaseEvent
	TopicID valueobjects.TopicID `json:"topic_id"`
}

// NewTopicDeleted creates a TopicDeleted event
func NewTopicDeleted(topicID valueobjects.TopicID, timestamp time.Time) TopicDeleted {
	return TopicDeleted{
		BaseEvent: BaseEvent{
			AggregateID: topicID.String(),
			EventType:   "topic.deleted",
			Timestamp:   timestamp,
			Version:     1,
		},
		TopicID: topicID,
	}
}

// ThemeAdded is raised when a theme is added to a topic
type ThemeAdded struct {
	BaseEvent
	TopicID valueobjects.TopicID `json:"topic_id"`
	ThemeID valueobjects.ThemeID `json:"theme_id"`
	Title   string               `json:"title"`
}

// NewThemeAdded creates a ThemeAdded event
func NewThemeAdded(topicID valueobjects.TopicID, themeID valueobjects.ThemeID, title string, timestamp time.Time) ThemeAdded {
	return ThemeAdded{
		BaseEvent: BaseEvent{
			AggregateID: topicID.String(),
			EventType:   "topic.theme_added",
			Timestamp:   timestamp,
			Version:     1,
		},
		TopicID: topicID,
		ThemeID: themeID,
		Title:   title,
	}
}

// ThemeRemoved is raised when a theme and its attempts are removed
type ThemeRemoved struct {
	BaseEvent
	TopicID valueobjects.TopicID `json:"topic_id"`
	ThemeID valueobjects.ThemeID `json:"theme_id"`
}

// NewThemeRemoved creates a ThemeRemoved event
func NewThemeRemoved(topicID valueobjects.TopicID, themeID valueobjects.ThemeID, timestamp time.Time) ThemeRemoved {
	return ThemeRemoved{
		BaseEvent: BaseEvent{
			AggregateID: topicID.String(),
			EventType:   "topic.theme_removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		TopicID: topicID,
		ThemeID: themeID,
	}
}

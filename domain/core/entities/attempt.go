package entities

import (
	"fmt"
	"time"

	"focusloop/domain/config"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/events"
	pkgerrors "focusloop/pkg/errors"
)

// AttemptStatus represents where an attempt sits in the learning loop
type AttemptStatus string

const (
	StatusDraft             AttemptStatus = "draft"
	StatusSubmitted         AttemptStatus = "submitted"
	StatusAnalyzing         AttemptStatus = "analyzing"
	StatusReviewed          AttemptStatus = "reviewed"
	StatusExerciseGenerated AttemptStatus = "exercise_generated"
	StatusAnswered          AttemptStatus = "answered"
)

// knownStatuses guards against storing an invented status value
var knownStatuses = map[AttemptStatus]bool{
	StatusDraft:             true,
	StatusSubmitted:         true,
	StatusAnalyzing:         true,
	StatusReviewed:          true,
	StatusExerciseGenerated: true,
	StatusAnswered:          true,
}

// VersionSource records which step of the loop produced a content version
type VersionSource string

const (
	VersionSourceInitial  VersionSource = "initial"
	VersionSourceFeedback VersionSource = "feedback"
	VersionSourceExercise VersionSource = "exercise"
)

// AttemptVersion is one immutable snapshot of the learner's text.
// ExerciseID is set only for versions produced by answering an exercise.
type AttemptVersion struct {
	Number     int
	Content    valueobjects.AttemptContent
	Source     VersionSource
	ExerciseID valueobjects.ExerciseID
	CreatedAt  time.Time
}

// Attempt is the aggregate root of the learning loop: the learner's
// explanation, every revision of it, the critiques received and the
// exercise currently waiting for an answer.
type Attempt struct {
	id      valueobjects.AttemptID
	topicID valueobjects.TopicID
	themeID valueobjects.ThemeID
	status  AttemptStatus
	cycles  int

	// versions is ordered newest first; numbers are contiguous from 1
	versions        []AttemptVersion
	feedbackHistory []AttemptFeedback
	pendingExercise *ExercisePayload

	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewAttempt opens an attempt with the learner's initial explanation as
// version 1 and status submitted
func NewAttempt(topicID valueobjects.TopicID, themeID valueobjects.ThemeID, content valueobjects.AttemptContent) (*Attempt, error) {
	if topicID.IsZero() {
		return nil, pkgerrors.NewValidationError("topic ID cannot be empty")
	}
	if themeID.IsZero() {
		return nil, pkgerrors.NewValidationError("theme ID cannot be empty")
	}
	if content.IsZero() {
		return nil, pkgerrors.NewGuardViolation(pkgerrors.CodeEmptyContent, "attempt content cannot be empty")
	}

	now := time.Now()
	attempt := &Attempt{
		id:      valueobjects.NewAttemptID(),
		topicID: topicID,
		themeID: themeID,
		status:  StatusSubmitted,
		cycles:  0,
		versions: []AttemptVersion{{
			Number:    1,
			Content:   content,
			Source:    VersionSourceInitial,
			CreatedAt: now,
		}},
		feedbackHistory: []AttemptFeedback{},
		createdAt:       now,
		updatedAt:       now,
		events:          []events.DomainEvent{},
	}

	attempt.addEvent(events.NewAttemptCreated(attempt.id, topicID, themeID, now))
	attempt.addEvent(events.NewVersionPushed(attempt.id, 1, string(VersionSourceInitial), now))

	return attempt, nil
}

// ReconstructAttempt rebuilds an attempt from persisted data with preserved
// timestamps. No events are raised.
func ReconstructAttempt(
	id valueobjects.AttemptID,
	topicID valueobjects.TopicID,
	themeID valueobjects.ThemeID,
	status AttemptStatus,
	cycles int,
	versions []AttemptVersion,
	feedbackHistory []AttemptFeedback,
	pendingExercise *ExercisePayload,
	createdAt, updatedAt time.Time,
) *Attempt {
	return &Attempt{
		id:              id,
		topicID:         topicID,
		themeID:         themeID,
		status:          status,
		cycles:          cycles,
		versions:        versions,
		feedbackHistory: feedbackHistory,
		pendingExercise: pendingExercise,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		events:          []events.DomainEvent{},
	}
}

// ID returns the attempt's unique identifier
func (a *Attempt) ID() valueobjects.AttemptID {
	return a.id
}

// TopicID returns the owning topic's identifier
func (a *Attempt) TopicID() valueobjects.TopicID {
	return a.topicID
}

// ThemeID returns the owning theme's identifier
func (a *Attempt) ThemeID() valueobjects.ThemeID {
	return a.themeID
}

// Status returns the current lifecycle status
func (a *Attempt) Status() AttemptStatus {
	return a.status
}

// Cycles returns the number of completed feedback cycles
func (a *Attempt) Cycles() int {
	return a.cycles
}

// Versions returns a copy of the version history, newest first
func (a *Attempt) Versions() []AttemptVersion {
	versions := make([]AttemptVersion, len(a.versions))
	copy(versions, a.versions)
	return versions
}

// LatestVersion returns the most recent content version
func (a *Attempt) LatestVersion() AttemptVersion {
	return a.versions[0]
}

// LatestVersionNumber returns the highest version number
func (a *Attempt) LatestVersionNumber() int {
	return a.versions[0].Number
}

// FeedbackHistory returns a copy of all attached feedback, newest first
func (a *Attempt) FeedbackHistory() []AttemptFeedback {
	history := make([]AttemptFeedback, len(a.feedbackHistory))
	for i, fb := range a.feedbackHistory {
		errs := make([]FeedbackError, len(fb.Errors))
		copy(errs, fb.Errors)
		fb.Errors = errs
		history[i] = fb
	}
	return history
}

// LatestFeedback returns the most recently attached feedback, or nil
func (a *Attempt) LatestFeedback() *AttemptFeedback {
	if len(a.feedbackHistory) == 0 {
		return nil
	}
	fb := a.feedbackHistory[0]
	return &fb
}

// PendingExercise returns a copy of the exercise waiting for an answer, or nil
func (a *Attempt) PendingExercise() *ExercisePayload {
	if a.pendingExercise == nil {
		return nil
	}
	exercise := *a.pendingExercise
	return &exercise
}

// CreatedAt returns the creation timestamp
func (a *Attempt) CreatedAt() time.Time {
	return a.createdAt
}

// UpdatedAt returns the last modification timestamp
func (a *Attempt) UpdatedAt() time.Time {
	return a.updatedAt
}

// PushVersion appends a new content version numbered latest+1.
// The version list stays newest first.
func (a *Attempt) PushVersion(content valueobjects.AttemptContent, source VersionSource, exerciseID valueobjects.ExerciseID) (AttemptVersion, error) {
	if content.IsZero() {
		return AttemptVersion{}, pkgerrors.NewGuardViolation(pkgerrors.CodeEmptyContent, "version content cannot be empty")
	}
	if source == VersionSourceExercise && exerciseID.IsZero() {
		return AttemptVersion{}, pkgerrors.NewValidationError("exercise versions require an exercise ID")
	}

	now := time.Now()
	version := AttemptVersion{
		Number:     a.versions[0].Number + 1,
		Content:    content,
		Source:     source,
		ExerciseID: exerciseID,
		CreatedAt:  now,
	}
	a.versions = append([]AttemptVersion{version}, a.versions...)
	a.updatedAt = now

	a.addEvent(events.NewVersionPushed(a.id, version.Number, string(source), now))
	return version, nil
}

// ChangeStatus moves the attempt to a new lifecycle status
func (a *Attempt) ChangeStatus(status AttemptStatus) error {
	if !knownStatuses[status] {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown attempt status: %s", status))
	}
	if a.status == status {
		return nil
	}

	old := a.status
	a.status = status
	a.updatedAt = time.Now()

	a.addEvent(events.NewStatusChanged(a.id, string(old), string(status), a.updatedAt))
	return nil
}

// AtCycleLimit reports whether another cycle would exceed the ceiling
func (a *Attempt) AtCycleLimit(cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return a.cycles >= cfg.MaxCycles
}

// IncrementCycle counts a completed feedback cycle, enforcing the ceiling
func (a *Attempt) IncrementCycle(cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if a.cycles >= cfg.MaxCycles {
		return pkgerrors.NewGuardViolation(
			pkgerrors.CodeCycleLimit,
			fmt.Sprintf("attempt already reached the maximum of %d cycles", cfg.MaxCycles),
		)
	}
	a.cycles++
	a.updatedAt = time.Now()
	return nil
}

// AttachFeedback stores a validated critique and marks the attempt reviewed
func (a *Attempt) AttachFeedback(feedback AttemptFeedback) error {
	if feedback.FeedbackID.IsZero() {
		return pkgerrors.NewValidationError("feedback ID cannot be empty")
	}
	if !feedback.AttemptID.Equals(a.id) {
		return pkgerrors.NewResponseValidationError(
			pkgerrors.CodeAttemptMismatch,
			fmt.Sprintf("feedback targets attempt %s, not %s", feedback.AttemptID.String(), a.id.String()),
		)
	}

	a.feedbackHistory = append([]AttemptFeedback{feedback}, a.feedbackHistory...)
	a.status = StatusReviewed
	a.updatedAt = time.Now()

	a.addEvent(events.NewFeedbackAttached(a.id, feedback.FeedbackID, len(feedback.Errors), string(feedback.Source), a.updatedAt))
	return nil
}

// SetPendingExercise stores a generated exercise and marks the attempt
// exercise_generated. A nil exercise clears the slot without touching status.
func (a *Attempt) SetPendingExercise(exercise *ExercisePayload) error {
	now := time.Now()
	if exercise == nil {
		a.pendingExercise = nil
		a.updatedAt = now
		return nil
	}
	if exercise.ExerciseID.IsZero() {
		return pkgerrors.NewValidationError("exercise ID cannot be empty")
	}

	stored := *exercise
	a.pendingExercise = &stored
	a.status = StatusExerciseGenerated
	a.updatedAt = now

	a.addEvent(events.NewExerciseGenerated(a.id, exercise.ExerciseID, string(exercise.Type), now))
	return nil
}

// RecordAnswer marks the start of a new cycle after an exercise answer was
// pushed: pending slot cleared, status back to submitted, cycles advanced.
func (a *Attempt) RecordAnswer(cfg *config.DomainConfig) error {
	if err := a.IncrementCycle(cfg); err != nil {
		return err
	}
	a.pendingExercise = nil
	a.status = StatusSubmitted

	a.addEvent(events.NewAnswerSubmitted(a.id, a.cycles, a.updatedAt))
	return nil
}

// GetUncommittedEvents returns events raised since the last commit
func (a *Attempt) GetUncommittedEvents() []events.DomainEvent {
	return a.events
}

// MarkEventsAsCommitted clears the event list after publishing
func (a *Attempt) MarkEventsAsCommitted() {
	a.events = []events.DomainEvent{}
}

func (a *Attempt) addEvent(event events.DomainEvent) {
	a.events = append(a.events, event)
}

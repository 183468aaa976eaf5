// Package versioning builds the exportable, depth-complete snapshot of a
// topic: every theme, every attempt, every content version and critique,
// with a checksum so restored snapshots can be verified.
package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"focusloop/domain/core/entities"
)

// SchemaVersion is stamped on every snapshot so stored documents can be
// migrated when the layout changes
const SchemaVersion = 1

// TopicSnapshot is the export document for one topic
type TopicSnapshot struct {
	TopicID   string          `json:"topicId"`
	Subject   string          `json:"subject"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Themes    []ThemeSnapshot `json:"themes"`
}

// ThemeSnapshot is one theme with its attempts
type ThemeSnapshot struct {
	ThemeID   string            `json:"themeId"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Attempts  []AttemptSnapshot `json:"attempts"`
}

// AttemptSnapshot is one attempt with its full history
type AttemptSnapshot struct {
	AttemptID       string                     `json:"attemptId"`
	Status          string                     `json:"status"`
	LatestVersion   int                        `json:"latestVersion"`
	Cycles          int                        `json:"cycles"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
	Versions        []VersionSnapshot          `json:"versions"`
	FeedbackHistory []entities.AttemptFeedback `json:"feedbackHistory"`
	PendingExercise *entities.ExercisePayload  `json:"pendingExercise,omitempty"`
}

// VersionSnapshot is one content version, newest first in the list
type VersionSnapshot struct {
	Version    int       `json:"version"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	ExerciseID string    `json:"exerciseId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BuildTopicSnapshot assembles the export document from a topic and its
// attempts grouped by theme
func BuildTopicSnapshot(topic *entities.Topic, attemptsByTheme map[string][]*entities.Attempt) *TopicSnapshot {
	snapshot := &TopicSnapshot{
		TopicID:   topic.ID().String(),
		Subject:   topic.Subject(),
		UserID:    topic.UserID(),
		CreatedAt: topic.CreatedAt(),
		UpdatedAt: topic.UpdatedAt(),
		Themes:    make([]ThemeSnapshot, 0, len(topic.Themes())),
	}

	for _, theme := range topic.Themes() {
		themeSnap := ThemeSnapshot{
			ThemeID:   theme.ID().String(),
			Title:     theme.Title(),
			CreatedAt: theme.CreatedAt(),
			UpdatedAt: theme.UpdatedAt(),
			Attempts:  []AttemptSnapshot{},
		}
		for _, attempt := range attemptsByTheme[theme.ID().String()] {
			themeSnap.Attempts = append(themeSnap.Attempts, snapshotAttempt(attempt))
		}
		snapshot.Themes = append(snapshot.Themes, themeSnap)
	}

	return snapshot
}

func snapshotAttempt(attempt *entities.Attempt) AttemptSnapshot {
	versions := attempt.Versions()
	versionSnaps := make([]VersionSnapshot, 0, len(versions))
	for _, v := range versions {
		versionSnaps = append(versionSnaps, VersionSnapshot{
			Version:    v.Number,
			Content:    v.Content.Text(),
			Type:       string(v.Source),
			ExerciseID: v.ExerciseID.String(),
			CreatedAt:  v.CreatedAt,
		})
	}

	return AttemptSnapshot{
		AttemptID:       attempt.ID().String(),
		Status:          string(attempt.Status()),
		LatestVersion:   attempt.LatestVersionNumber(),
		Cycles:          attempt.Cycles(),
		CreatedAt:       attempt.CreatedAt(),
		UpdatedAt:       attempt.UpdatedAt(),
		Versions:        versionSnaps,
		FeedbackHistory: attempt.FeedbackHistory(),
		PendingExercise: attempt.PendingExercise(),
	}
}

// Checksum returns the sha256 of the canonical JSON encoding
func (s *TopicSnapshot) Checksum() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

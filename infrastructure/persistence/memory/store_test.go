package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
)

func newTestStore() *Store {
	return NewStore(nil, nil)
}

func mustStoreContent(t *testing.T, text string) valueobjects.AttemptContent {
	t.Helper()
	content, err := valueobjects.NewAttemptContent(text)
	require.NoError(t, err)
	return content
}

func seedAttempt(t *testing.T, s *Store) (*entities.Topic, *entities.Theme, *entities.Attempt) {
	t.Helper()
	ctx := context.Background()
	topic, err := s.UpsertTopic(ctx, "user-1", valueobjects.TopicID{}, "Limits")
	require.NoError(t, err)
	theme, err := s.AddTheme(ctx, topic.ID(), "Epsilon-delta")
	require.NoError(t, err)
	attempt, err := s.CreateAttempt(ctx, topic.ID(), theme.ID(), mustStoreContent(t, "my explanation"))
	require.NoError(t, err)
	return topic, theme, attempt
}

func TestUpsertTopic(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	topic, err := s.UpsertTopic(ctx, "user-1", valueobjects.TopicID{}, "Limits")
	require.NoError(t, err)
	assert.Equal(t, "Limits", topic.Subject())

	renamed, err := s.UpsertTopic(ctx, "user-1", topic.ID(), "Limits and Continuity")
	require.NoError(t, err)
	assert.Equal(t, "Limits and Continuity", renamed.Subject())
	assert.True(t, renamed.ID().Equals(topic.ID()))

	_, err = s.UpsertTopic(ctx, "user-1", valueobjects.NewTopicID(), "Ghost")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCreateAttempt(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, theme, attempt := seedAttempt(t, s)

	assert.Equal(t, entities.StatusSubmitted, attempt.Status())
	assert.Equal(t, 1, attempt.LatestVersionNumber())
	assert.Equal(t, 0, attempt.Cycles())

	// theme must belong to the given topic
	otherTopic, err := s.UpsertTopic(ctx, "user-1", valueobjects.TopicID{}, "Other")
	require.NoError(t, err)
	_, err = s.CreateAttempt(ctx, otherTopic.ID(), theme.ID(), mustStoreContent(t, "text"))
	require.Error(t, err)
}

func TestPushVersion_ReturnsUpdatedAttempt(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, _, attempt := seedAttempt(t, s)

	updated, err := s.PushVersion(ctx, attempt.ID(), mustStoreContent(t, "revised"), entities.VersionSourceFeedback, valueobjects.ExerciseID{})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.LatestVersionNumber())
	assert.Equal(t, "revised", updated.LatestVersion().Content.Text())

	updated, err = s.PushVersion(ctx, attempt.ID(), mustStoreContent(t, "again"), entities.VersionSourceFeedback, valueobjects.ExerciseID{})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.LatestVersionNumber())

	versions := updated.Versions()
	for i, v := range versions {
		assert.Equal(t, len(versions)-i, v.Number)
	}
}

func TestAttachFeedback_NoOpWhenAttemptGone(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	ghost := valueobjects.NewAttemptID()
	feedbackID, err := valueobjects.NewFeedbackIDFromString("fb-1")
	require.NoError(t, err)
	err = s.AttachFeedback(ctx, ghost, entities.AttemptFeedback{
		FeedbackID: feedbackID,
		AttemptID:  ghost,
		Summary:    "late result",
		CreatedAt:  time.Now(),
	})
	assert.NoError(t, err, "results for deleted attempts are dropped silently")
}

func TestRemoveTheme_CascadesToAttempts(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	topic, theme, attempt := seedAttempt(t, s)

	ownerID, err := s.RemoveTheme(ctx, theme.ID())
	require.NoError(t, err)
	assert.True(t, ownerID.Equals(topic.ID()))

	_, err = s.GetAttempt(ctx, attempt.ID())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteTopic_CascadesEverything(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	topic, theme, attempt := seedAttempt(t, s)

	require.NoError(t, s.DeleteTopic(ctx, topic.ID()))

	_, err := s.GetTopic(ctx, topic.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = s.GetAttempt(ctx, attempt.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	err = s.UpdateThemeTitle(ctx, theme.ID(), "renamed")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReadersGetCopies(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	topic, _, attempt := seedAttempt(t, s)

	// mutating a returned copy must not leak into the store
	require.NoError(t, topic.Rename("mutated locally"))
	stored, err := s.GetTopic(ctx, topic.ID())
	require.NoError(t, err)
	assert.Equal(t, "Limits", stored.Subject())

	_, err = attempt.PushVersion(mustStoreContent(t, "local only"), entities.VersionSourceFeedback, valueobjects.ExerciseID{})
	require.NoError(t, err)
	storedAttempt, err := s.GetAttempt(ctx, attempt.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, storedAttempt.LatestVersionNumber())
}

func TestDrainEvents(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	topic, theme, attempt := seedAttempt(t, s)

	drained, err := s.DrainEvents(ctx, attempt.ID().String())
	require.NoError(t, err)
	require.NotEmpty(t, drained)
	assert.Equal(t, "attempt.created", drained[0].GetEventType())

	// a second drain must come back empty
	again, err := s.DrainEvents(ctx, attempt.ID().String())
	require.NoError(t, err)
	assert.Empty(t, again)

	// theme IDs resolve to the owning topic's events
	fromTheme, err := s.DrainEvents(ctx, theme.ID().String())
	require.NoError(t, err)
	require.NotEmpty(t, fromTheme)
	assert.Equal(t, topic.ID().String(), fromTheme[0].GetAggregateID())

	// unknown aggregates drain nothing
	missing, err := s.DrainEvents(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestExportTopic(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	topic, err := s.UpsertTopic(ctx, "user-1", valueobjects.TopicID{}, "Limits")
	require.NoError(t, err)
	themeA, err := s.AddTheme(ctx, topic.ID(), "Definition")
	require.NoError(t, err)
	themeB, err := s.AddTheme(ctx, topic.ID(), "Properties")
	require.NoError(t, err)

	a1, err := s.CreateAttempt(ctx, topic.ID(), themeA.ID(), mustStoreContent(t, "first"))
	require.NoError(t, err)
	a2, err := s.CreateAttempt(ctx, topic.ID(), themeA.ID(), mustStoreContent(t, "second"))
	require.NoError(t, err)
	a3, err := s.CreateAttempt(ctx, topic.ID(), themeB.ID(), mustStoreContent(t, "third"))
	require.NoError(t, err)
	_, err = s.PushVersion(ctx, a1.ID(), mustStoreContent(t, "first revised"), entities.VersionSourceFeedback, valueobjects.ExerciseID{})
	require.NoError(t, err)

	snapshot, err := s.ExportTopic(ctx, topic.ID())
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, topic.ID().String(), snapshot.TopicID)
	assert.Equal(t, "user-1", snapshot.UserID)
	require.Len(t, snapshot.Themes, 2)
	assert.Len(t, snapshot.Themes[0].Attempts, 2)
	assert.Len(t, snapshot.Themes[1].Attempts, 1)

	ids := []string{
		snapshot.Themes[0].Attempts[0].AttemptID,
		snapshot.Themes[0].Attempts[1].AttemptID,
		snapshot.Themes[1].Attempts[0].AttemptID,
	}
	// attempts are listed newest first within each theme
	assert.Equal(t, []string{a2.ID().String(), a1.ID().String(), a3.ID().String()}, ids)
	assert.Equal(t, 2, snapshot.Themes[0].Attempts[1].LatestVersion)
	assert.Len(t, snapshot.Themes[0].Attempts[1].Versions, 2)

	// identifiers survive a JSON round trip
	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, topic.ID().String(), decoded["topicId"])

	// absent topic exports as nil, not an error
	ghost, err := s.ExportTopic(ctx, valueobjects.NewTopicID())
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestDrafts(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	draft, err := s.SetDraftValue(ctx, "attempt-1", "work in progress")
	require.NoError(t, err)
	assert.Equal(t, entities.DraftStatusSaving, draft.Status)

	require.NoError(t, s.SetDraftStatus(ctx, "attempt-1", entities.DraftStatusSaved))
	stored, err := s.Draft(ctx, "attempt-1")
	require.NoError(t, err)
	assert.Equal(t, entities.DraftStatusSaved, stored.Status)
	assert.Equal(t, "work in progress", stored.Value)

	require.NoError(t, s.ClearDraft(ctx, "attempt-1"))
	_, err = s.Draft(ctx, "attempt-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSettings(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Contains(t, settings.PromptFor(entities.PromptReciprocal), "{{condicion}}")

	require.NoError(t, s.SetSelectedModel(ctx, "llama-3.3-70b-versatile"))
	require.NoError(t, s.SetPropositionPrompt(ctx, entities.PromptInverse, "custom {{condicion}}"))

	settings, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", settings.SelectedModel)
	assert.Equal(t, "custom {{condicion}}", settings.PromptFor(entities.PromptInverse))

	// the copy is detached from the store
	settings.SelectedModel = "overwritten"
	fresh, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", fresh.SelectedModel)
}

package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusloop/domain/config"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
)

func newTestAttempt(t *testing.T) *Attempt {
	t.Helper()
	content, err := valueobjects.NewAttemptContent("the initial explanation")
	require.NoError(t, err)
	attempt, err := NewAttempt(valueobjects.NewTopicID(), valueobjects.NewThemeID(), content)
	require.NoError(t, err)
	return attempt
}

func mustContent(t *testing.T, text string) valueobjects.AttemptContent {
	t.Helper()
	content, err := valueobjects.NewAttemptContent(text)
	require.NoError(t, err)
	return content
}

func TestNewAttempt(t *testing.T) {
	attempt := newTestAttempt(t)

	assert.Equal(t, StatusSubmitted, attempt.Status())
	assert.Equal(t, 0, attempt.Cycles())
	require.Len(t, attempt.Versions(), 1)
	assert.Equal(t, 1, attempt.LatestVersionNumber())
	assert.Equal(t, VersionSourceInitial, attempt.LatestVersion().Source)
	assert.Nil(t, attempt.PendingExercise())

	events := attempt.GetUncommittedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "attempt.created", events[0].GetEventType())
	assert.Equal(t, "attempt.version_pushed", events[1].GetEventType())
}

func TestNewAttempt_RejectsEmptyContent(t *testing.T) {
	_, err := NewAttempt(valueobjects.NewTopicID(), valueobjects.NewThemeID(), valueobjects.AttemptContent{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyContent))
}

func TestAttemptContent_Limits(t *testing.T) {
	_, err := valueobjects.NewAttemptContent("   ")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyContent))

	_, err = valueobjects.NewAttemptContent(strings.Repeat("x", 10001))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeContentTooLong))

	content, err := valueobjects.NewAttemptContent("  trimmed  ")
	require.NoError(t, err)
	assert.Equal(t, "trimmed", content.Text())
}

func TestPushVersion_NumbersAreContiguous(t *testing.T) {
	attempt := newTestAttempt(t)

	for i := 0; i < 4; i++ {
		_, err := attempt.PushVersion(mustContent(t, "revision"), VersionSourceFeedback, valueobjects.ExerciseID{})
		require.NoError(t, err)
	}

	versions := attempt.Versions()
	require.Len(t, versions, 5)
	assert.Equal(t, 5, attempt.LatestVersionNumber())
	for i, v := range versions {
		assert.Equal(t, len(versions)-i, v.Number, "versions must be newest first and contiguous")
	}
}

func TestPushVersion_ExerciseRequiresExerciseID(t *testing.T) {
	attempt := newTestAttempt(t)

	_, err := attempt.PushVersion(mustContent(t, "answer"), VersionSourceExercise, valueobjects.ExerciseID{})
	require.Error(t, err)

	exerciseID, err := valueobjects.NewExerciseIDFromString("ex-1")
	require.NoError(t, err)
	version, err := attempt.PushVersion(mustContent(t, "answer"), VersionSourceExercise, exerciseID)
	require.NoError(t, err)
	assert.Equal(t, 2, version.Number)
	assert.Equal(t, "ex-1", version.ExerciseID.String())
}

func TestChangeStatus(t *testing.T) {
	attempt := newTestAttempt(t)

	require.NoError(t, attempt.ChangeStatus(StatusAnalyzing))
	assert.Equal(t, StatusAnalyzing, attempt.Status())

	err := attempt.ChangeStatus(AttemptStatus("exploded"))
	require.Error(t, err)
	assert.Equal(t, StatusAnalyzing, attempt.Status())
}

func TestIncrementCycle_EnforcesCeiling(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	attempt := newTestAttempt(t)

	for i := 0; i < cfg.MaxCycles; i++ {
		require.NoError(t, attempt.IncrementCycle(cfg))
	}
	assert.Equal(t, cfg.MaxCycles, attempt.Cycles())
	assert.True(t, attempt.AtCycleLimit(cfg))

	err := attempt.IncrementCycle(cfg)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsGuardViolation(err))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCycleLimit))
	assert.Equal(t, cfg.MaxCycles, attempt.Cycles(), "failed increment must not change state")
}

func TestAttachFeedback(t *testing.T) {
	attempt := newTestAttempt(t)
	require.NoError(t, attempt.ChangeStatus(StatusAnalyzing))

	feedbackID, err := valueobjects.NewFeedbackIDFromString("fb-1")
	require.NoError(t, err)

	t.Run("mismatched attempt id is rejected", func(t *testing.T) {
		other := valueobjects.NewAttemptID()
		err := attempt.AttachFeedback(AttemptFeedback{
			FeedbackID: feedbackID,
			AttemptID:  other,
			Summary:    "wrong target",
			CreatedAt:  time.Now(),
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAttemptMismatch))
		assert.Equal(t, StatusAnalyzing, attempt.Status())
		assert.Empty(t, attempt.FeedbackHistory())
	})

	t.Run("matching feedback moves the attempt to reviewed", func(t *testing.T) {
		err := attempt.AttachFeedback(AttemptFeedback{
			FeedbackID: feedbackID,
			AttemptID:  attempt.ID(),
			Summary:    "solid start",
			Errors:     []FeedbackError{{ID: "e1", Point: "missing case", Counterexample: "n=0"}},
			Suggestion: "cover the empty case",
			Source:     FeedbackSourceModel,
			CreatedAt:  time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusReviewed, attempt.Status())
		require.Len(t, attempt.FeedbackHistory(), 1)
		assert.Equal(t, "fb-1", attempt.LatestFeedback().FeedbackID.String())
	})

	t.Run("history is ordered newest first", func(t *testing.T) {
		secondID, err := valueobjects.NewFeedbackIDFromString("fb-2")
		require.NoError(t, err)
		require.NoError(t, attempt.AttachFeedback(AttemptFeedback{
			FeedbackID: secondID,
			AttemptID:  attempt.ID(),
			Summary:    "tighter now",
			Source:     FeedbackSourceModel,
			CreatedAt:  time.Now(),
		}))

		history := attempt.FeedbackHistory()
		require.Len(t, history, 2)
		assert.Equal(t, "fb-2", history[0].FeedbackID.String())
		assert.Equal(t, "fb-1", history[1].FeedbackID.String())
		assert.Equal(t, "fb-2", attempt.LatestFeedback().FeedbackID.String())
	})
}

func TestSetPendingExercise(t *testing.T) {
	attempt := newTestAttempt(t)
	exerciseID, err := valueobjects.NewExerciseIDFromString("ex-1")
	require.NoError(t, err)

	require.NoError(t, attempt.SetPendingExercise(&ExercisePayload{
		ExerciseID: exerciseID,
		Type:       ExerciseTypeAnalytical,
		Payload:    "prove it for negative numbers",
		CreatedAt:  time.Now(),
	}))
	assert.Equal(t, StatusExerciseGenerated, attempt.Status())
	require.NotNil(t, attempt.PendingExercise())

	// clearing removes the slot without touching status
	require.NoError(t, attempt.SetPendingExercise(nil))
	assert.Nil(t, attempt.PendingExercise())
	assert.Equal(t, StatusExerciseGenerated, attempt.Status())
}

func TestRecordAnswer(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	attempt := newTestAttempt(t)
	exerciseID, err := valueobjects.NewExerciseIDFromString("ex-1")
	require.NoError(t, err)
	require.NoError(t, attempt.SetPendingExercise(&ExercisePayload{
		ExerciseID: exerciseID,
		Type:       ExerciseTypeProposition,
		Payload:    `["a","b","c"]`,
		CreatedAt:  time.Now(),
	}))

	require.NoError(t, attempt.RecordAnswer(cfg))
	assert.Nil(t, attempt.PendingExercise())
	assert.Equal(t, StatusSubmitted, attempt.Status())
	assert.Equal(t, 1, attempt.Cycles())

	t.Run("at the ceiling nothing changes", func(t *testing.T) {
		for attempt.Cycles() < cfg.MaxCycles {
			require.NoError(t, attempt.IncrementCycle(cfg))
		}
		before := attempt.Status()
		err := attempt.RecordAnswer(cfg)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCycleLimit))
		assert.Equal(t, before, attempt.Status())
		assert.Equal(t, cfg.MaxCycles, attempt.Cycles())
	})
}

func TestPendingExercise_ReturnsCopy(t *testing.T) {
	attempt := newTestAttempt(t)
	exerciseID, err := valueobjects.NewExerciseIDFromString("ex-1")
	require.NoError(t, err)
	require.NoError(t, attempt.SetPendingExercise(&ExercisePayload{
		ExerciseID: exerciseID,
		Type:       ExerciseTypeAnalytical,
		Payload:    "original",
		CreatedAt:  time.Now(),
	}))

	copy := attempt.PendingExercise()
	copy.Payload = "mutated"
	assert.Equal(t, "original", attempt.PendingExercise().Payload)
}

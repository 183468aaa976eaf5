package memory

import (
	"time"

	"focusloop/domain/core/entities"
)

// nowFunc is swapped in tests that pin timestamps
var nowFunc = time.Now

// Readers get reconstructed copies so no caller can reach into the arena.

func cloneTopic(topic *entities.Topic) *entities.Topic {
	themes := topic.Themes()
	cloned := make([]*entities.Theme, len(themes))
	for i, theme := range themes {
		cloned[i] = cloneTheme(theme)
	}
	return entities.ReconstructTopic(
		topic.ID(),
		topic.UserID(),
		topic.Subject(),
		cloned,
		topic.CreatedAt(),
		topic.UpdatedAt(),
	)
}

func cloneTheme(theme *entities.Theme) *entities.Theme {
	return entities.ReconstructTheme(theme.ID(), theme.Title(), theme.CreatedAt(), theme.UpdatedAt())
}

func cloneAttempt(attempt *entities.Attempt) *entities.Attempt {
	return entities.ReconstructAttempt(
		attempt.ID(),
		attempt.TopicID(),
		attempt.ThemeID(),
		attempt.Status(),
		attempt.Cycles(),
		attempt.Versions(),
		attempt.FeedbackHistory(),
		attempt.PendingExercise(),
		attempt.CreatedAt(),
		attempt.UpdatedAt(),
	)
}

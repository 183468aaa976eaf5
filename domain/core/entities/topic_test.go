package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopic(t *testing.T) {
	topic, err := NewTopic("user-1", "  Limits and Continuity  ")
	require.NoError(t, err)
	assert.Equal(t, "Limits and Continuity", topic.Subject())
	assert.Empty(t, topic.Themes())

	_, err = NewTopic("", "Limits")
	require.Error(t, err)

	_, err = NewTopic("user-1", "   ")
	require.Error(t, err)

	_, err = NewTopic("user-1", strings.Repeat("x", 201))
	require.Error(t, err)
}

func TestTopicThemes(t *testing.T) {
	topic, err := NewTopic("user-1", "Limits")
	require.NoError(t, err)

	theme, err := topic.AddTheme("Epsilon-delta definition")
	require.NoError(t, err)
	require.Len(t, topic.Themes(), 1)
	assert.NotNil(t, topic.Theme(theme.ID()))

	require.NoError(t, topic.UpdateThemeTitle(theme.ID(), "Formal definition"))
	assert.Equal(t, "Formal definition", topic.Theme(theme.ID()).Title())

	_, err = topic.AddTheme("")
	require.Error(t, err)

	require.NoError(t, topic.RemoveTheme(theme.ID()))
	assert.Empty(t, topic.Themes())
	require.Error(t, topic.RemoveTheme(theme.ID()))
}

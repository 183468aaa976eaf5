package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Run("rejects steps that skip versions", func(t *testing.T) {
		e := NewEvolution(3)
		err := e.Register(Migration{FromVersion: 1, ToVersion: 3, Up: identity})
		require.Error(t, err)
	})

	t.Run("rejects duplicate steps", func(t *testing.T) {
		e := NewEvolution(3)
		require.NoError(t, e.Register(Migration{FromVersion: 1, ToVersion: 2, Up: identity}))
		err := e.Register(Migration{FromVersion: 1, ToVersion: 2, Up: identity})
		require.Error(t, err)
	})

	t.Run("rejects steps without an up function", func(t *testing.T) {
		e := NewEvolution(2)
		err := e.Register(Migration{FromVersion: 1, ToVersion: 2})
		require.Error(t, err)
	})
}

func TestUpgrade(t *testing.T) {
	t.Run("walks documents across multiple versions", func(t *testing.T) {
		e := NewEvolution(3)
		require.NoError(t, e.Register(Migration{
			FromVersion: 1,
			ToVersion:   2,
			Description: "add subject",
			Up: func(doc Document) (Document, error) {
				doc["subject"] = "unknown"
				return doc, nil
			},
		}))
		require.NoError(t, e.Register(Migration{
			FromVersion: 2,
			ToVersion:   3,
			Description: "rename title",
			Up: func(doc Document) (Document, error) {
				doc["themeTitle"] = doc["title"]
				delete(doc, "title")
				return doc, nil
			},
		}))

		out, err := e.Upgrade(Document{"title": "limits"}, 1)
		require.NoError(t, err)
		assert.Equal(t, "unknown", out["subject"])
		assert.Equal(t, "limits", out["themeTitle"])
		assert.NotContains(t, out, "title")
		assert.Len(t, e.History(), 2)
	})

	t.Run("current documents pass through untouched", func(t *testing.T) {
		e := NewEvolution(1)
		doc := Document{"subject": "algebra"}
		out, err := e.Upgrade(doc, 1)
		require.NoError(t, err)
		assert.Equal(t, doc, out)
		assert.Empty(t, e.History())
	})

	t.Run("rejects documents from the future", func(t *testing.T) {
		e := NewEvolution(1)
		_, err := e.Upgrade(Document{}, 2)
		require.Error(t, err)
	})

	t.Run("fails on a gap in the upgrade path", func(t *testing.T) {
		e := NewEvolution(3)
		require.NoError(t, e.Register(Migration{FromVersion: 2, ToVersion: 3, Up: identity}))
		_, err := e.Upgrade(Document{}, 1)
		require.Error(t, err)
	})

	t.Run("stops on a failing step", func(t *testing.T) {
		e := NewEvolution(2)
		require.NoError(t, e.Register(Migration{
			FromVersion: 1,
			ToVersion:   2,
			Up: func(Document) (Document, error) {
				return nil, fmt.Errorf("corrupt document")
			},
		}))
		_, err := e.Upgrade(Document{}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt document")
	})
}

func identity(doc Document) (Document, error) { return doc, nil }

package common

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"limits"}`))
		var p payload
		require.NoError(t, ParseJSONBody(r, &p, 1024))
		assert.Equal(t, "limits", p.Name)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x","extra":true}`))
		var p payload
		require.Error(t, ParseJSONBody(r, &p, 1024))
	})

	t.Run("rejects bodies over the limit", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
		var p payload
		require.Error(t, ParseJSONBody(r, &p, 16))
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
		var p payload
		require.Error(t, ParseJSONBody(r, &p, 1024))
	})
}

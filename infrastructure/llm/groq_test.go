package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"focusloop/application/ports"
	pkgerrors "focusloop/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGroqClient(GroqConfig{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())
}

func TestComplete(t *testing.T) {
	t.Run("sends an OpenAI-shaped request and returns the content", func(t *testing.T) {
		var captured map[string]interface{}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"content":"  hola mundo  "}}]}`))
		})

		out, err := client.Complete(context.Background(), ports.ModelRequest{
			Model:        "llama-3.3-70b-versatile",
			SystemPrompt: "sistema",
			Prompt:       "usuario",
			MaxTokens:    1200,
			Temperature:  0.2,
			JSONResponse: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "hola mundo", out)

		assert.Equal(t, "llama-3.3-70b-versatile", captured["model"])
		assert.Equal(t, float64(1200), captured["max_tokens"])
		assert.Equal(t, 0.2, captured["temperature"])
		format, ok := captured["response_format"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "json_object", format["type"])

		messages, ok := captured["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, messages, 2)
	})

	t.Run("omits response_format for plain text requests", func(t *testing.T) {
		var captured map[string]interface{}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Write([]byte(`{"choices":[{"message":{"content":"texto"}}]}`))
		})

		_, err := client.Complete(context.Background(), ports.ModelRequest{Model: "m", Prompt: "p"})
		require.NoError(t, err)
		_, present := captured["response_format"]
		assert.False(t, present)
	})

	t.Run("maps non-200 responses to external errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"model decommissioned"}}`, http.StatusBadRequest)
		})

		_, err := client.Complete(context.Background(), ports.ModelRequest{Model: "m", Prompt: "p"})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("rejects empty completions", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
		})

		_, err := client.Complete(context.Background(), ports.ModelRequest{Model: "m", Prompt: "p"})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
	})

	t.Run("requires an API key", func(t *testing.T) {
		client := NewGroqClient(GroqConfig{}, zap.NewNop())
		_, err := client.Complete(context.Background(), ports.ModelRequest{Model: "m", Prompt: "p"})
		require.Error(t, err)
	})
}

func TestListModels(t *testing.T) {
	t.Run("maps the catalog and skips entries without ids", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			w.Write([]byte(`{"data":[
				{"id":"llama-3.3-70b-versatile","context_length":131072},
				{"context_length":8192},
				{"id":"gemma2-9b-it","description":"small"}
			]}`))
		})

		models, err := client.ListModels(context.Background())
		require.NoError(t, err)
		require.Len(t, models, 2)
		assert.Equal(t, "llama-3.3-70b-versatile", models[0].ID)
		assert.Equal(t, 131072, models[0].ContextLength)
		assert.Equal(t, "small", models[1].Description)
	})

	t.Run("maps failures to external errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		})

		_, err := client.ListModels(context.Background())
		require.Error(t, err)
		assert.True(t, pkgerrors.IsExternal(err))
	})
}

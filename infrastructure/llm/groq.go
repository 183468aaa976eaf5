// Package llm implements the model client against Groq's OpenAI-compatible
// API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"focusloop/application/ports"
	"focusloop/domain/core/entities"
	pkgerrors "focusloop/pkg/errors"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// GroqConfig configures the client
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GroqClient talks to Groq's chat completion and model catalog endpoints.
// It implements ports.ModelClient.
type GroqClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGroqClient creates the client
func NewGroqClient(cfg GroqConfig, logger *zap.Logger) *GroqClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroqClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type modelCatalog struct {
	Data []struct {
		ID            string `json:"id"`
		ContextLength int    `json:"context_length"`
		Description   string `json:"description"`
	} `json:"data"`
}

// Complete runs one chat completion and returns the trimmed response text
func (c *GroqClient) Complete(ctx context.Context, req ports.ModelRequest) (string, error) {
	if c.apiKey == "" {
		return "", pkgerrors.NewUnauthorizedError("groq API key is not configured")
	}
	if req.Model == "" {
		return "", pkgerrors.NewValidationError("no model selected")
	}

	body := chatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.JSONResponse {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	start := time.Now()
	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", pkgerrors.NewExternalError("groq", fmt.Errorf("unparseable completion response: %w", err))
	}
	if parsed.Error != nil {
		return "", pkgerrors.NewExternalError("groq", fmt.Errorf("API error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", pkgerrors.NewExternalError("groq", fmt.Errorf("no completion returned"))
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", pkgerrors.NewExternalError("groq", fmt.Errorf("empty completion returned"))
	}

	c.logger.Debug("completion finished",
		zap.String("model", req.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(content)),
	)
	return content, nil
}

// ListModels fetches the model catalog. Entries without an id are skipped.
func (c *GroqClient) ListModels(ctx context.Context) ([]entities.ModelInfo, error) {
	if c.apiKey == "" {
		return nil, pkgerrors.NewUnauthorizedError("groq API key is not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to build models request: %v", err))
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.NewExternalError("groq", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewExternalError("groq", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.NewExternalError("groq",
			fmt.Errorf("models request failed with status %d: %s", resp.StatusCode, string(raw)))
	}

	var catalog modelCatalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, pkgerrors.NewExternalError("groq", fmt.Errorf("unparseable model catalog: %w", err))
	}

	models := make([]entities.ModelInfo, 0, len(catalog.Data))
	for _, entry := range catalog.Data {
		if entry.ID == "" {
			continue
		}
		models = append(models, entities.ModelInfo{
			ID:            entry.ID,
			ContextLength: entry.ContextLength,
			Description:   entry.Description,
		})
	}
	return models, nil
}

func (c *GroqClient) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to marshal request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("failed to build request: %v", err))
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.NewExternalError("groq", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewExternalError("groq", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.NewExternalError("groq",
			fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(raw)))
	}
	return raw, nil
}

func (c *GroqClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

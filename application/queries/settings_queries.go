package queries

import "errors"

// GetDraftQuery reads a draft buffer by key
type GetDraftQuery struct {
	Key string
}

// Validate validates the GetDraftQuery
func (q GetDraftQuery) Validate() error {
	if q.Key == "" {
		return errors.New("draft key is required")
	}
	return nil
}

// DraftResult is the read shape of a draft buffer
type DraftResult struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updatedAt"`
}

// GetSettingsQuery reads the current model selection and prompt templates
type GetSettingsQuery struct{}

// Validate validates the GetSettingsQuery
func (q GetSettingsQuery) Validate() error { return nil }

// ModelResult is one entry of the provider's model catalog
type ModelResult struct {
	ID            string `json:"id"`
	ContextLength int    `json:"contextLength"`
	Description   string `json:"description,omitempty"`
}

// SettingsResult is the read shape of the settings
type SettingsResult struct {
	SelectedModel      string            `json:"selectedModel"`
	AvailableModels    []ModelResult     `json:"availableModels"`
	PropositionPrompts map[string]string `json:"propositionPrompts"`
}

// ListModelsQuery fetches the provider's model catalog
type ListModelsQuery struct{}

// Validate validates the ListModelsQuery
func (q ListModelsQuery) Validate() error { return nil }

package commands

import (
	"focusloop/pkg/utils"
)

// UpsertTopicCommand creates a topic or renames an existing one
type UpsertTopicCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	TopicID string `json:"topic_id" validate:"omitempty,uuid"`
	Subject string `json:"subject" validate:"required,max=200"`
}

// Validate checks the command's fields
func (c UpsertTopicCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteTopicCommand removes a topic and everything under it
type DeleteTopicCommand struct {
	TopicID string `json:"topic_id" validate:"required,uuid"`
}

// Validate checks the command's fields
func (c DeleteTopicCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// AddThemeCommand appends a theme to a topic
type AddThemeCommand struct {
	TopicID string `json:"topic_id" validate:"required,uuid"`
	Title   string `json:"title" validate:"required,max=200"`
}

// Validate checks the command's fields
func (c AddThemeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateThemeTitleCommand renames a theme
type UpdateThemeTitleCommand struct {
	ThemeID string `json:"theme_id" validate:"required,uuid"`
	Title   string `json:"title" validate:"required,max=200"`
}

// Validate checks the command's fields
func (c UpdateThemeTitleCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RemoveThemeCommand deletes a theme and its attempts
type RemoveThemeCommand struct {
	ThemeID string `json:"theme_id" validate:"required,uuid"`
}

// Validate checks the command's fields
func (c RemoveThemeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SaveDraftCommand writes an autosave buffer
type SaveDraftCommand struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// Validate checks the command's fields
func (c SaveDraftCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ClearDraftCommand discards an autosave buffer
type ClearDraftCommand struct {
	Key string `json:"key" validate:"required"`
}

// Validate checks the command's fields
func (c ClearDraftCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SelectModelCommand changes the model completions are sent to
type SelectModelCommand struct {
	Model string `json:"model" validate:"required"`
}

// Validate checks the command's fields
func (c SelectModelCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdatePromptCommand replaces one proposition chain template
type UpdatePromptCommand struct {
	Kind     string `json:"kind" validate:"required,oneof=initial reciprocal inverse contraReciprocal"`
	Template string `json:"template" validate:"required"`
}

// Validate checks the command's fields
func (c UpdatePromptCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RefreshModelsCommand reloads the provider's model catalog into settings
type RefreshModelsCommand struct{}

// Validate checks the command's fields
func (c RefreshModelsCommand) Validate() error {
	return nil
}

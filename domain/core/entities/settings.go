package entities

import (
	pkgerrors "focusloop/pkg/errors"
)

// PropositionPromptKind names one of the four proposition chain templates
type PropositionPromptKind string

const (
	PromptInitial          PropositionPromptKind = "initial"
	PromptReciprocal       PropositionPromptKind = "reciprocal"
	PromptInverse          PropositionPromptKind = "inverse"
	PromptContraReciprocal PropositionPromptKind = "contraReciprocal"
)

// PropositionPrompts holds the template for each chain step. Templates carry
// a {{condicion}} placeholder that is replaced with the statement the step
// operates on.
type PropositionPrompts map[PropositionPromptKind]string

// DefaultPropositionPrompts returns the built-in chain templates
func DefaultPropositionPrompts() PropositionPrompts {
	return PropositionPrompts{
		PromptInitial:          "Toma este texto y genera una proposicion clara y critica. Conserva exactamente cualquier LaTeX presente. Devuelve solo la proposicion.\n\n{{condicion}}",
		PromptReciprocal:       "Identifica hipotesis y tesis. Forma la reciproca intercambiando hipotesis y tesis (q -> p), cambiando lo minimo. Manten el LaTeX intacto. Devuelve solo la proposicion.\n\n{{condicion}}",
		PromptInverse:          "Identifica hipotesis y tesis. Forma el inverso (~p -> ~q), cambiando lo minimo. Manten el LaTeX intacto. Devuelve solo la proposicion.\n\n{{condicion}}",
		PromptContraReciprocal: "Identifica hipotesis y tesis. Forma la contra-reciproca (~q -> ~p), cambiando lo minimo. Manten el LaTeX intacto. Devuelve solo la proposicion.\n\n{{condicion}}",
	}
}

// ModelInfo describes one model available from the provider catalog
type ModelInfo struct {
	ID            string `json:"id"`
	ContextLength int    `json:"contextLength,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Settings holds the mutable runtime preferences: which model the learner
// talks to and which templates drive the proposition chain
type Settings struct {
	SelectedModel      string             `json:"selectedModel"`
	AvailableModels    []ModelInfo        `json:"availableModels"`
	PropositionPrompts PropositionPrompts `json:"propositionPrompts"`
}

// DefaultSettings returns settings with the built-in prompt templates and
// no model selected
func DefaultSettings() *Settings {
	return &Settings{
		PropositionPrompts: DefaultPropositionPrompts(),
	}
}

// PromptFor returns the template for a chain step, falling back to the
// built-in template when the stored one is empty
func (s *Settings) PromptFor(kind PropositionPromptKind) string {
	if s.PropositionPrompts != nil {
		if template, ok := s.PropositionPrompts[kind]; ok && template != "" {
			return template
		}
	}
	return DefaultPropositionPrompts()[kind]
}

// SetPrompt replaces the template for a chain step
func (s *Settings) SetPrompt(kind PropositionPromptKind, template string) error {
	switch kind {
	case PromptInitial, PromptReciprocal, PromptInverse, PromptContraReciprocal:
	default:
		return pkgerrors.NewValidationError("unknown proposition prompt kind: " + string(kind))
	}
	if template == "" {
		return pkgerrors.NewValidationError("prompt template cannot be empty")
	}
	if s.PropositionPrompts == nil {
		s.PropositionPrompts = DefaultPropositionPrompts()
	}
	s.PropositionPrompts[kind] = template
	return nil
}

// Clone returns a deep copy of the settings
func (s *Settings) Clone() *Settings {
	clone := &Settings{
		SelectedModel:   s.SelectedModel,
		AvailableModels: make([]ModelInfo, len(s.AvailableModels)),
	}
	copy(clone.AvailableModels, s.AvailableModels)
	if s.PropositionPrompts != nil {
		clone.PropositionPrompts = make(PropositionPrompts, len(s.PropositionPrompts))
		for kind, template := range s.PropositionPrompts {
			clone.PropositionPrompts[kind] = template
		}
	}
	return clone
}

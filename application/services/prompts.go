package services

import (
	"fmt"
	"regexp"
	"strings"

	"focusloop/domain/core/entities"
)

// conditionMarker matches the {{condicion}} placeholder, tolerating inner
// whitespace and any casing
var conditionMarker = regexp.MustCompile(`(?i){{\s*condicion\s*}}`)

// ReplaceConditionPlaceholder substitutes the condition into a template.
// Templates without the marker get the condition appended as a separate
// paragraph; an empty template collapses to the condition itself.
func ReplaceConditionPlaceholder(template, condition string) string {
	if conditionMarker.MatchString(template) {
		return conditionMarker.ReplaceAllString(template, condition)
	}
	trimmed := strings.TrimSpace(template)
	if trimmed == "" {
		return condition
	}
	return trimmed + "\n\n" + condition
}

// BuildCritiqueText flattens a feedback record into the plain-text critique
// the exercise prompts embed
func BuildCritiqueText(feedback *entities.AttemptFeedback) string {
	lines := []string{
		"Resumen: " + feedback.Summary,
		"Sugerencia: " + feedback.Suggestion,
	}
	if len(feedback.Errors) > 0 {
		lines = append(lines, "Errores:")
		for i, item := range feedback.Errors {
			lines = append(lines, fmt.Sprintf("%d. %s -> %s", i+1, item.Point, item.Counterexample))
		}
	}
	return strings.Join(lines, "\n")
}

// BuildFeedbackPrompt asks the model to critique the learner's text and
// answer with the exact feedback JSON structure
func BuildFeedbackPrompt(themeTitle, userContent, attemptID string) string {
	return fmt.Sprintf(`Analiza mi comprension sobre %q y devuelve exclusivamente el JSON pedido. Texto del estudiante entre comillas triples:
"""
%s
"""

Tu respuesta debe ser un JSON valido, sin texto adicional, con la siguiente estructura exacta y en espanol:
{
  "feedback_id": "<identificador unico>",
  "attempt_id": %q,
  "summary": "<resumen breve>",
  "errors": [
    {"id": "e1", "point": "<punto debil en frase corta>", "counterexample": "<contraejemplo concreto>"}
  ],
  "suggestion": "<plan de mejora conciso>"
}
No generes Markdown ni comentarios.
`, themeTitle, userContent, attemptID)
}

// BuildConceptPrompt asks for a short theory refresher derived from the
// critique
func BuildConceptPrompt(feedback *entities.AttemptFeedback, themeTitle string) string {
	var errorLines []string
	for i, item := range feedback.Errors {
		errorLines = append(errorLines, fmt.Sprintf("%d. %s -> %s", i+1, item.Point, item.Counterexample))
	}
	return fmt.Sprintf(`A partir de la siguiente critica sobre el tema %q, redacta una explicacion clara y breve que ayude a reforzar la teoria necesaria. Texto de la critica:
"""
Resumen: %s
Sugerencia: %s
Errores:
%s
"""
Devuelve un parrafo en espanol que aclare los conceptos clave sin exceder 200 palabras.`, themeTitle, feedback.Summary, feedback.Suggestion, strings.Join(errorLines, "\n"))
}

// BuildAnalyticalExercisePrompt asks for a LaTeX exercise targeting the
// weaknesses the critique found
func BuildAnalyticalExercisePrompt(feedback *entities.AttemptFeedback, conceptText string, latestVersion int) string {
	var points []string
	for i, item := range feedback.Errors {
		points = append(points, fmt.Sprintf("%d. %s", i+1, item.Point))
	}
	return fmt.Sprintf(`Genera un ejercicio analitico en notacion LaTeX que obligue al estudiante a aplicar la teoria detectada como debil en el intento %d. Critica:
Resumen: %s
Errores: %s
Teoria de apoyo:
%s

Devuelve exclusivamente el JSON:
{
  "exercise_id": "<identificador unico>",
  "type": "analitico",
  "payload": "<enunciado en LaTeX escapado>"
}
`, latestVersion, feedback.Summary, strings.Join(points, "; "), conceptText)
}

// BuildPropositionExercisePrompt asks for three unlabeled proposition
// variants in a single call. The chain path in proposition_chain.go is the
// preferred route; this single-call form backs manual regeneration.
func BuildPropositionExercisePrompt(feedback *entities.AttemptFeedback, conceptText string, latestVersion int) string {
	var points []string
	for i, item := range feedback.Errors {
		points = append(points, fmt.Sprintf("%d. %s", i+1, item.Point))
	}
	return fmt.Sprintf(`Genera exactamente tres proposiciones distintas relacionadas con las debilidades detectadas en el intento %d. Una debe ser el reciproco, otra el inverso y otra el contrarreciproco de una proposicion base, pero no indiques cual es cual. Usa la critica y la teoria de apoyo:
Resumen: %s
Errores: %s
Teoria:
%s

Devuelve exclusivamente el JSON:
{
  "exercise_id": "<identificador unico>",
  "type": "proposicion",
  "payload": "<lista separada por saltos de linea o JSON con arreglo>"
}
`, latestVersion, feedback.Summary, strings.Join(points, "; "), conceptText)
}

// BuildManualPrompt wraps a hand-edited prompt with the format reminder for
// its exercise type
func BuildManualPrompt(exerciseType entities.ExerciseType, basePrompt string) string {
	if exerciseType == entities.ExerciseTypeAnalytical {
		return basePrompt + "\n\nSigue el formato indicado y responde solo con JSON."
	}
	return basePrompt + "\n\nRecuerda devolver unicamente el JSON solicitado."
}

// System prompts for each completion kind
const (
	SystemPromptFeedback    = "Eres un tutor experto que debe devolver exclusivamente JSON valido siguiendo las instrucciones del usuario."
	SystemPromptConcept     = "Eres un docente que explica conceptos con precision y concision."
	SystemPromptExercise    = "Genera ejercicios desafiantes y devuelve exclusivamente el JSON solicitado. No agregues comentarios adicionales."
	SystemPromptProposition = "Transforma proposiciones con rigor logico y devuelve unicamente la proposicion pedida, sin comentarios."
)

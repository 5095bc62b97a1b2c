package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lecturacritica/tutor-api/internal/model"
)

const snippetLength = 160

var mockPromptTemplates = map[model.QuestionLevel][]string{
	model.LevelLiteral: {
		"Según el texto \"%s\", identifica y describe un dato concreto que aparezca de forma explícita.",
		"¿Qué hechos o personajes principales menciona el texto \"%s\"? Cítalos con tus palabras.",
		"Localiza en \"%s\" el pasaje que comienza con: \"%s\" y explica qué información aporta.",
	},
	model.LevelInferential: {
		"¿Qué idea principal se puede deducir del texto \"%s\" aunque no se diga de forma directa?",
		"A partir de \"%s\", ¿qué relación de causa y efecto puedes inferir entre los hechos descritos?",
		"¿Qué intención crees que tiene el autor de \"%s\" al incluir el fragmento \"%s\"?",
	},
	model.LevelCritical: {
		"¿Estás de acuerdo con la postura principal de \"%s\"? Argumenta tu respuesta con evidencia del texto.",
		"Evalúa la solidez de los argumentos presentados en \"%s\". ¿Qué les falta o qué les sobra?",
		"¿Cómo se relaciona el contenido de \"%s\" con tu realidad o con otro texto que conozcas?",
		"Si tuvieras que refutar una idea de \"%s\", ¿cuál elegirías y por qué?",
		"¿Qué fuentes o datos adicionales harían más convincente el texto \"%s\"?",
		"Propón una conclusión alternativa para \"%s\" y justifica por qué sería válida.",
	},
}

// mockQuestion builds the n-th (0-based) fallback question for a level.
func mockQuestion(level model.QuestionLevel, n int, title, snippet string) model.Question {
	if title == "" {
		title = "la lectura"
	}
	templates := mockPromptTemplates[level]
	tpl := templates[n%len(templates)]

	var prompt string
	if strings.Count(tpl, "%s") == 2 {
		prompt = fmt.Sprintf(tpl, title, snippetOrTitle(snippet, title))
	} else {
		prompt = fmt.Sprintf(tpl, title)
	}
	if cycle := n / len(templates); cycle > 0 {
		prompt = fmt.Sprintf("%s (variante %d)", prompt, cycle+1)
	}

	return model.Question{
		ID:             questionID(level, n),
		Level:          level,
		Prompt:         prompt,
		ExpectedAnswer: fmt.Sprintf("Respuesta esperada de ejemplo para la pregunta %d (%s) sobre \"%s\".", n+1, level, title),
	}
}

func questionID(level model.QuestionLevel, n int) string {
	return fmt.Sprintf("%s-%d", level, n+1)
}

// snippet collapses whitespace and cuts the text to a short excerpt.
func snippet(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}

func snippetOrTitle(s, title string) string {
	if s == "" {
		return title
	}
	return snippet(s, 60)
}

var stopwords = map[string]bool{
	"para": true, "como": true, "pero": true, "porque": true, "sobre": true, "entre": true,
	"este": true, "esta": true, "esto": true, "estos": true, "estas": true, "that": true,
	"the": true, "and": true, "los": true, "las": true, "del": true, "una": true, "uno": true,
	"que": true, "con": true, "por": true, "sus": true, "respuesta": true, "esperada": true,
	"ejemplo": true, "pregunta": true,
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len([]rune(w)) < 3 || stopwords[w] {
			continue
		}
		tokens[w] = true
	}
	return tokens
}

// mockEvaluate scores by vocabulary overlap with the reference answer (or the prompt
// when the reference is a placeholder), with a small bonus for developed answers.
func mockEvaluate(in EvaluationInput) Evaluation {
	reference := tokenize(in.ExpectedAnswer)
	if len(reference) < 3 {
		for k := range tokenize(in.Prompt) {
			reference[k] = true
		}
	}
	answer := tokenize(in.StudentAnswer)

	score := 0
	if len(reference) > 0 {
		hits := 0
		for tok := range answer {
			if reference[tok] {
				hits++
			}
		}
		score = hits * 100 / len(reference)
	}
	wordCount := len(strings.Fields(in.StudentAnswer))
	switch {
	case wordCount >= 40:
		score += 25
	case wordCount >= 15:
		score += 15
	case wordCount >= 5:
		score += 5
	}
	score = clampScore(score)

	verdict := verdictForScore(score)
	return Evaluation{
		Score:    score,
		Verdict:  verdict,
		Feedback: mockFeedback(in.Level, verdict),
		Source:   sourceMock,
	}
}

func verdictForScore(score int) string {
	switch {
	case score >= 70:
		return model.VerdictCorrecta
	case score >= 40:
		return model.VerdictParcial
	default:
		return model.VerdictIncorrecta
	}
}

func mockFeedback(level model.QuestionLevel, verdict string) string {
	var focus string
	switch level {
	case model.LevelLiteral:
		focus = "apóyate en datos explícitos del texto"
	case model.LevelInferential:
		focus = "explica qué pistas del texto sostienen tu deducción"
	default:
		focus = "argumenta tu postura con evidencia y contraejemplos"
	}
	switch verdict {
	case model.VerdictCorrecta:
		return "Buena respuesta: cubre los elementos principales. Para profundizar, " + focus + "."
	case model.VerdictParcial:
		return "Respuesta parcial: recoge algunas ideas clave pero le faltan detalles. Revisa el texto y " + focus + "."
	default:
		return "La respuesta no se ajusta a lo que pide la pregunta. Vuelve a leer el fragmento relevante y " + focus + "."
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/monitoring"
	"github.com/rs/zerolog/log"
)

const (
	minReadingTextLength = 50
	maxPromptTextLength  = 8000

	sourceGemini = "gemini"
	sourceMock   = "mock"
	sourceRule   = "rule"
)

type LevelCounts struct {
	Literal     int
	Inferential int
	Critical    int
}

func (c LevelCounts) For(level model.QuestionLevel) int {
	switch level {
	case model.LevelLiteral:
		return c.Literal
	case model.LevelInferential:
		return c.Inferential
	case model.LevelCritical:
		return c.Critical
	}
	return 0
}

// orDefault replaces non-positive counts with the defaults.
func (c LevelCounts) orDefault(d LevelCounts) LevelCounts {
	if c.Literal <= 0 {
		c.Literal = d.Literal
	}
	if c.Inferential <= 0 {
		c.Inferential = d.Inferential
	}
	if c.Critical <= 0 {
		c.Critical = d.Critical
	}
	return c
}

type EvaluationInput struct {
	Level          model.QuestionLevel
	Prompt         string
	ExpectedAnswer string
	StudentAnswer  string
	Title          string
}

type Evaluation struct {
	Score    int
	Verdict  string
	Feedback string
	Source   string
}

// AIGateway generates questions and evaluates answers. Model failures never leave
// the gateway: every path degrades to the local generator.
type AIGateway interface {
	GenerateQuestions(ctx context.Context, text, title string, counts LevelCounts) (model.QuestionSet, error)
	EvaluateAnswer(ctx context.Context, in EvaluationInput) Evaluation
	DefaultCounts() LevelCounts
}

type aiGateway struct {
	client   GeminiClient
	defaults LevelCounts
	timeout  time.Duration
	now      func() time.Time
}

func NewAIGateway(client GeminiClient, cfg *config.Config) AIGateway {
	defaults := LevelCounts{
		Literal:     cfg.AI.LiteralCount,
		Inferential: cfg.AI.InferentialCount,
		Critical:    cfg.AI.CriticalCount,
	}.orDefault(LevelCounts{Literal: 3, Inferential: 3, Critical: 6})

	timeout := cfg.AI.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &aiGateway{client: client, defaults: defaults, timeout: timeout, now: time.Now}
}

// hasEnoughText reports whether text is long enough to send to the model.
func hasEnoughText(text string) bool {
	return len([]rune(strings.TrimSpace(text))) >= minReadingTextLength
}

func (g *aiGateway) DefaultCounts() LevelCounts {
	return g.defaults
}

func (g *aiGateway) GenerateQuestions(ctx context.Context, text, title string, counts LevelCounts) (model.QuestionSet, error) {
	counts = counts.orDefault(g.defaults)
	clean := strings.TrimSpace(text)

	var generated model.QuestionSet
	source := sourceMock
	if g.client != nil && hasEnoughText(clean) {
		qs, err := g.generateWithModel(ctx, clean, title, counts)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("title", title).Msg("AIGateway.GenerateQuestions: model failed, using local fallback")
		case qs.Total() == 0:
			log.Warn().Str("title", title).Msg("AIGateway.GenerateQuestions: model returned no questions, using local fallback")
		default:
			generated = qs
			source = sourceGemini
		}
	}
	monitoring.AICalls.WithLabelValues("generate", source).Inc()

	result := normalizeQuestionSet(generated, counts, title, snippet(clean, snippetLength))
	now := g.now()
	result.Status = model.QuestionsReady
	result.GeneratedAt = &now
	return result, nil
}

func (g *aiGateway) EvaluateAnswer(ctx context.Context, in EvaluationInput) Evaluation {
	if strings.TrimSpace(in.StudentAnswer) == "" {
		monitoring.AICalls.WithLabelValues("evaluate", sourceRule).Inc()
		return Evaluation{
			Score:    0,
			Verdict:  model.VerdictSinRespuesta,
			Feedback: "No se recibió una respuesta. Escribe tu respuesta para obtener retroalimentación.",
			Source:   sourceRule,
		}
	}

	if g.client != nil {
		ev, err := g.evaluateWithModel(ctx, in)
		if err == nil {
			monitoring.AICalls.WithLabelValues("evaluate", sourceGemini).Inc()
			return ev
		}
		log.Warn().Err(err).Str("level", string(in.Level)).Msg("AIGateway.EvaluateAnswer: model failed, using local fallback")
	}

	monitoring.AICalls.WithLabelValues("evaluate", sourceMock).Inc()
	return mockEvaluate(in)
}

func (g *aiGateway) generateWithModel(ctx context.Context, text, title string, counts LevelCounts) (model.QuestionSet, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.Generate(ctx, buildQuestionsPrompt(text, title, counts))
	if err != nil {
		return model.QuestionSet{}, err
	}
	return parseQuestionsJSON(raw)
}

func (g *aiGateway) evaluateWithModel(ctx context.Context, in EvaluationInput) (Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.Generate(ctx, buildEvaluationPrompt(in))
	if err != nil {
		return Evaluation{}, err
	}
	return parseEvaluationJSON(raw)
}

func buildQuestionsPrompt(text, title string, counts LevelCounts) string {
	runes := []rune(text)
	if len(runes) > maxPromptTextLength {
		text = string(runes[:maxPromptTextLength])
	}
	if title == "" {
		title = "Lectura"
	}

	var sb strings.Builder
	sb.WriteString("Eres un tutor de lectura crítica para estudiantes hispanohablantes.\n")
	sb.WriteString(fmt.Sprintf("A partir del texto titulado \"%s\", redacta preguntas de comprensión en español.\n", title))
	sb.WriteString(fmt.Sprintf("Cantidades exactas: literal=%d, inferential=%d, critical=%d.\n", counts.Literal, counts.Inferential, counts.Critical))
	sb.WriteString("- literal: información explícita del texto.\n")
	sb.WriteString("- inferential: conclusiones implícitas, causas, intenciones.\n")
	sb.WriteString("- critical: valoración, postura, argumentación con evidencia.\n")
	sb.WriteString("Devuelve SOLO JSON válido, sin texto adicional, con esta forma exacta:\n")
	sb.WriteString(`{"literal":[{"prompt":"...","expectedAnswer":"..."}],"inferential":[{"prompt":"...","expectedAnswer":"..."}],"critical":[{"prompt":"...","expectedAnswer":"..."}]}`)
	sb.WriteString("\n\nTEXTO:\n<<<\n")
	sb.WriteString(text)
	sb.WriteString("\n>>>\n")
	return sb.String()
}

func buildEvaluationPrompt(in EvaluationInput) string {
	var sb strings.Builder
	sb.WriteString("Eres un tutor de lectura crítica. Evalúa la respuesta de un estudiante.\n")
	if in.Title != "" {
		sb.WriteString(fmt.Sprintf("Lectura: \"%s\"\n", in.Title))
	}
	sb.WriteString(fmt.Sprintf("Nivel de la pregunta: %s\n", in.Level))
	sb.WriteString(fmt.Sprintf("Pregunta: %s\n", in.Prompt))
	if in.ExpectedAnswer != "" {
		sb.WriteString(fmt.Sprintf("Respuesta de referencia: %s\n", in.ExpectedAnswer))
	}
	sb.WriteString("Respuesta del estudiante:\n<<<\n")
	sb.WriteString(in.StudentAnswer)
	sb.WriteString("\n>>>\n")
	sb.WriteString("Asigna un puntaje entero de 0 a 100, un veredicto (correcta, parcial o incorrecta) ")
	sb.WriteString("y una retroalimentación breve y constructiva en español (máximo 4 oraciones).\n")
	sb.WriteString(`Devuelve SOLO JSON válido: {"score":0,"verdict":"parcial","feedback":"..."}`)
	return sb.String()
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodeLenient decodes raw as JSON, or the outermost {...} block inside it.
func decodeLenient(raw string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err == nil {
		return nil
	}
	block := jsonObjectPattern.FindString(raw)
	if block == "" {
		return errors.New("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}

type rawQuestion struct {
	Prompt         string `json:"prompt"`
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
	Answer         string `json:"answer"`
}

type rawQuestionPayload struct {
	Literal     []rawQuestion `json:"literal"`
	Inferential []rawQuestion `json:"inferential"`
	Critical    []rawQuestion `json:"critical"`
}

func parseQuestionsJSON(raw string) (model.QuestionSet, error) {
	var payload rawQuestionPayload
	if err := decodeLenient(raw, &payload); err != nil {
		return model.QuestionSet{}, err
	}

	var qs model.QuestionSet
	convert := func(level model.QuestionLevel, in []rawQuestion) []model.Question {
		out := make([]model.Question, 0, len(in))
		for _, q := range in {
			prompt := strings.TrimSpace(firstNonEmpty(q.Prompt, q.Question))
			if prompt == "" {
				continue
			}
			out = append(out, model.Question{
				ID:             questionID(level, len(out)),
				Level:          level,
				Prompt:         prompt,
				ExpectedAnswer: strings.TrimSpace(firstNonEmpty(q.ExpectedAnswer, q.Answer)),
			})
		}
		return out
	}
	qs.Literal = convert(model.LevelLiteral, payload.Literal)
	qs.Inferential = convert(model.LevelInferential, payload.Inferential)
	qs.Critical = convert(model.LevelCritical, payload.Critical)
	return qs, nil
}

type rawEvaluation struct {
	Score    *float64 `json:"score"`
	Verdict  string   `json:"verdict"`
	Feedback string   `json:"feedback"`
}

func parseEvaluationJSON(raw string) (Evaluation, error) {
	var payload rawEvaluation
	if err := decodeLenient(raw, &payload); err != nil {
		return Evaluation{}, err
	}
	if payload.Score == nil {
		return Evaluation{}, errors.New("model evaluation without score")
	}
	score := scoreFromModel(*payload.Score)

	verdict := strings.ToLower(strings.TrimSpace(payload.Verdict))
	switch verdict {
	case model.VerdictCorrecta, model.VerdictParcial, model.VerdictIncorrecta:
	default:
		verdict = verdictForScore(score)
	}

	feedback := strings.TrimSpace(payload.Feedback)
	if feedback == "" {
		feedback = mockFeedback("", verdict)
	}
	return Evaluation{Score: score, Verdict: verdict, Feedback: feedback, Source: sourceGemini}, nil
}

// scoreFromModel bounds the raw model score before rounding; NaN counts as 0.
func scoreFromModel(raw float64) int {
	switch {
	case math.IsNaN(raw), raw <= 0:
		return 0
	case raw >= 100:
		return 100
	}
	return int(math.Round(raw))
}

// normalizeQuestionSet trims every level to its count and tops it up with local
// questions, renumbering ids as "<level>-<n>".
func normalizeQuestionSet(in model.QuestionSet, counts LevelCounts, title, excerpt string) model.QuestionSet {
	var out model.QuestionSet
	for _, level := range model.QuestionLevels {
		want := counts.For(level)
		questions := make([]model.Question, 0, want)
		for _, q := range in.Level(level) {
			if len(questions) == want {
				break
			}
			if strings.TrimSpace(q.Prompt) == "" {
				continue
			}
			questions = append(questions, q)
		}
		for len(questions) < want {
			questions = append(questions, mockQuestion(level, len(questions), title, excerpt))
		}
		for i := range questions {
			questions[i].ID = questionID(level, i)
			questions[i].Level = level
		}
		out.SetLevel(level, questions)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

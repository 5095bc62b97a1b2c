package model

import "time"

const (
	VerdictCorrecta     = "correcta"
	VerdictParcial      = "parcial"
	VerdictIncorrecta   = "incorrecta"
	VerdictSinRespuesta = "sin_respuesta"
)

// Answer is a scored student response, unique per QuestionID inside an assignment.
type Answer struct {
	QuestionID   string        `json:"questionId"`
	Level        QuestionLevel `json:"level"`
	Prompt       string        `json:"prompt"`
	Answer       string        `json:"answer"`
	FeedbackText string        `json:"feedbackText"`
	Score        int           `json:"score"`
	Verdict      string        `json:"verdict"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

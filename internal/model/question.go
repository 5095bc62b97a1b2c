package model

import "time"

type QuestionLevel string

const (
	LevelLiteral     QuestionLevel = "literal"
	LevelInferential QuestionLevel = "inferential"
	LevelCritical    QuestionLevel = "critical"
)

// QuestionLevels is the fixed generation and lookup order.
var QuestionLevels = []QuestionLevel{LevelLiteral, LevelInferential, LevelCritical}

type QuestionStatus string

const (
	QuestionsPending QuestionStatus = "pending"
	QuestionsReady   QuestionStatus = "ready"
	QuestionsFailed  QuestionStatus = "failed"
)

type Question struct {
	ID             string        `json:"id"` // "<level>-<n>", 1-based
	Level          QuestionLevel `json:"level"`
	Prompt         string        `json:"prompt"`
	ExpectedAnswer string        `json:"expectedAnswer"`
}

type QuestionSet struct {
	Status      QuestionStatus `json:"status"`
	Literal     []Question     `json:"literal"`
	Inferential []Question     `json:"inferential"`
	Critical    []Question     `json:"critical"`
	Error       string         `json:"error,omitempty"`
	GeneratedAt *time.Time     `json:"generatedAt,omitempty"`
}

func PendingQuestionSet() QuestionSet {
	return QuestionSet{
		Status:      QuestionsPending,
		Literal:     []Question{},
		Inferential: []Question{},
		Critical:    []Question{},
	}
}

func (qs QuestionSet) Level(level QuestionLevel) []Question {
	switch level {
	case LevelLiteral:
		return qs.Literal
	case LevelInferential:
		return qs.Inferential
	case LevelCritical:
		return qs.Critical
	}
	return nil
}

func (qs *QuestionSet) SetLevel(level QuestionLevel, questions []Question) {
	switch level {
	case LevelLiteral:
		qs.Literal = questions
	case LevelInferential:
		qs.Inferential = questions
	case LevelCritical:
		qs.Critical = questions
	}
}

// Find scans literal, inferential and critical questions in that order.
func (qs QuestionSet) Find(id string) (Question, bool) {
	for _, level := range QuestionLevels {
		for _, q := range qs.Level(level) {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

func (qs QuestionSet) Total() int {
	return len(qs.Literal) + len(qs.Inferential) + len(qs.Critical)
}

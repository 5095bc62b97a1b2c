package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedStatus(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a    Assignment
		want string
	}{
		{"fresh", Assignment{}, StatusPendiente},
		{"read", Assignment{ReadAt: &now}, StatusLeido},
		{"submitted", Assignment{ReadAt: &now, Submission: Submission{At: &now}}, StatusEntregado},
		{"submitted unread", Assignment{Submission: Submission{At: &now}}, StatusEntregado},
		{"reviewed", Assignment{Submission: Submission{At: &now}, Feedback: Feedback{At: &now}}, StatusRevisado},
		{"reviewed only", Assignment{Feedback: Feedback{At: &now}}, StatusRevisado},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.DerivedStatus())
		})
	}
}

func TestNewAssignment(t *testing.T) {
	a := NewAssignment(uuid.New(), uuid.New(), uuid.New(), nil)
	assert.Equal(t, AssignmentStatusAssigned, a.Status)
	assert.Equal(t, QuestionsPending, a.QuestionSet().Status)
	assert.Zero(t, a.QuestionSet().Total())
	assert.NotNil(t, a.Answers)
}

func TestUpsertAnswer(t *testing.T) {
	a := NewAssignment(uuid.New(), uuid.New(), uuid.New(), nil)
	t0 := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	a.UpsertAnswer(Answer{QuestionID: "literal-1", Answer: "primera", Score: 20}, t0)
	a.UpsertAnswer(Answer{QuestionID: "critical-1", Answer: "otra"}, t0)
	stored := a.UpsertAnswer(Answer{QuestionID: "literal-1", Answer: "segunda", Score: 80}, t1)

	require.Len(t, a.Answers, 2)
	assert.Equal(t, "literal-1", a.Answers[0].QuestionID)
	assert.Equal(t, "segunda", a.Answers[0].Answer)
	assert.Equal(t, 80, a.Answers[0].Score)
	assert.Equal(t, t0, a.Answers[0].CreatedAt)
	assert.Equal(t, t1, a.Answers[0].UpdatedAt)
	assert.Equal(t, stored, a.Answers[0])
}

func TestQuestionSetFind(t *testing.T) {
	qs := PendingQuestionSet()
	qs.SetLevel(LevelLiteral, []Question{{ID: "literal-1", Level: LevelLiteral, Prompt: "¿Quién?"}})
	qs.SetLevel(LevelCritical, []Question{{ID: "critical-1", Level: LevelCritical, Prompt: "¿Por qué?"}})

	q, ok := qs.Find("critical-1")
	require.True(t, ok)
	assert.Equal(t, "¿Por qué?", q.Prompt)

	_, ok = qs.Find("inferential-1")
	assert.False(t, ok)
	assert.Equal(t, 2, qs.Total())
}

func TestRoleAndEmail(t *testing.T) {
	assert.True(t, RoleDocente.Valid())
	assert.True(t, RoleEstudiante.Valid())
	assert.False(t, Role("rector").Valid())
	assert.Equal(t, "ana@test.io", NormalizeEmail("  ANA@Test.io "))
	assert.True(t, Principal{Role: RoleAdmin}.Is(RoleAdmin))
}

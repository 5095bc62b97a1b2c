package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const AssignmentStatusAssigned = "assigned"

// Display statuses, derived from timestamps and never stored.
const (
	StatusPendiente = "pendiente"
	StatusLeido     = "leido"
	StatusEntregado = "entregado"
	StatusRevisado  = "revisado"
)

type Assignment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ReadingID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_reading_student" json:"readingId"`
	Reading    *Reading   `gorm:"foreignKey:ReadingID" json:"reading,omitempty"`
	StudentID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_reading_student;index" json:"studentId"`
	Student    *User      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	AssignedBy uuid.UUID  `gorm:"type:uuid;not null;index" json:"assignedBy"`
	DueDate    *time.Time `gorm:"index" json:"dueDate,omitempty"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null;default:assigned" json:"status"`

	Submission Submission `gorm:"embedded;embeddedPrefix:submission_" json:"submission"`
	Feedback   Feedback   `gorm:"embedded;embeddedPrefix:feedback_" json:"feedback"`

	Questions datatypes.JSONType[QuestionSet] `gorm:"type:jsonb" json:"questions"`
	Answers   datatypes.JSONSlice[Answer]     `gorm:"type:jsonb" json:"answers"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewAssignment(readingID, studentID, assignedBy uuid.UUID, dueDate *time.Time) *Assignment {
	return &Assignment{
		ReadingID:  readingID,
		StudentID:  studentID,
		AssignedBy: assignedBy,
		DueDate:    dueDate,
		Status:     AssignmentStatusAssigned,
		Questions:  datatypes.NewJSONType(PendingQuestionSet()),
		Answers:    datatypes.JSONSlice[Answer]{},
	}
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DerivedStatus reports the display status: feedback wins over submission,
// submission over read, and anything else is pending.
func (a *Assignment) DerivedStatus() string {
	switch {
	case a.Feedback.At != nil:
		return StatusRevisado
	case a.Submission.At != nil:
		return StatusEntregado
	case a.ReadAt != nil:
		return StatusLeido
	default:
		return StatusPendiente
	}
}

func (a *Assignment) QuestionSet() QuestionSet {
	return a.Questions.Data()
}

// UpsertAnswer replaces the entry with the same QuestionID in place, keeping its
// CreatedAt, or appends a new one. The stored entry is returned.
func (a *Assignment) UpsertAnswer(ans Answer, now time.Time) Answer {
	ans.UpdatedAt = now
	for i, existing := range a.Answers {
		if existing.QuestionID == ans.QuestionID {
			ans.CreatedAt = existing.CreatedAt
			a.Answers[i] = ans
			return ans
		}
	}
	ans.CreatedAt = now
	a.Answers = append(a.Answers, ans)
	return ans
}

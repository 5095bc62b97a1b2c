package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/model"
)

// AssignRequest targets either one student (studentId) or several (studentIds).
type AssignRequest struct {
	ReadingID  string   `json:"readingId" binding:"required,uuid"`
	StudentID  string   `json:"studentId" binding:"omitempty,uuid"`
	StudentIDs []string `json:"studentIds" binding:"omitempty,dive,uuid"`
	DueDate    string   `json:"dueDate" binding:"omitempty,duedate"`
}

// Targets returns the distinct student ids in request order.
func (r AssignRequest) Targets() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(r.StudentIDs) > 0 {
		for _, id := range r.StudentIDs {
			add(id)
		}
	} else {
		add(r.StudentID)
	}
	return out
}

type BatchStats struct {
	Upserted int `json:"upserted"`
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}

// AssignResult carries Assignment for a single target and Stats for a batch.
type AssignResult struct {
	Assignment *AssignmentResponse
	Stats      *BatchStats
}

type AssignSingleResponse struct {
	OK         bool               `json:"ok"`
	Assignment AssignmentResponse `json:"assignment"`
}

type AssignBatchResponse struct {
	OK    bool       `json:"ok"`
	Stats BatchStats `json:"stats"`
}

type QuestionResponse struct {
	ID             string              `json:"id"`
	Level          model.QuestionLevel `json:"level"`
	Prompt         string              `json:"prompt"`
	ExpectedAnswer string              `json:"expectedAnswer,omitempty"`
}

type QuestionSetResponse struct {
	Status      model.QuestionStatus `json:"status"`
	Literal     []QuestionResponse   `json:"literal"`
	Inferential []QuestionResponse   `json:"inferential"`
	Critical    []QuestionResponse   `json:"critical"`
	Error       string               `json:"error,omitempty"`
	GeneratedAt *time.Time           `json:"generatedAt,omitempty"`
}

type SubmissionResponse struct {
	Bucket string     `json:"bucket,omitempty"`
	Path   string     `json:"path,omitempty"`
	Mime   string     `json:"mime,omitempty"`
	Size   int64      `json:"size,omitempty"`
	Notes  string     `json:"notes,omitempty"`
	At     *time.Time `json:"at,omitempty"`
	URL    string     `json:"url,omitempty"`
}

type AssignmentResponse struct {
	ID            uuid.UUID           `json:"id"`
	ReadingID     uuid.UUID           `json:"readingId"`
	StudentID     uuid.UUID           `json:"studentId"`
	AssignedBy    uuid.UUID           `json:"assignedBy"`
	DueDate       *time.Time          `json:"dueDate,omitempty"`
	ReadAt        *time.Time          `json:"readAt,omitempty"`
	Status        string              `json:"status"`
	DerivedStatus string              `json:"derivedStatus"`
	Submission    SubmissionResponse  `json:"submission"`
	Feedback      model.Feedback      `json:"feedback"`
	Questions     QuestionSetResponse `json:"questions"`
	Answers       []model.Answer      `json:"answers"`
	Reading       *ReadingResponse    `json:"reading,omitempty"`
	Student       *UserResponse       `json:"student,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type AssignmentListResponse struct {
	OK          bool                 `json:"ok"`
	Assignments []AssignmentResponse `json:"assignments"`
}

type AssignmentDetailResponse struct {
	OK         bool               `json:"ok"`
	Assignment AssignmentResponse `json:"assignment"`
}

type ToggleReadResponse struct {
	OK     bool       `json:"ok"`
	ReadAt *time.Time `json:"readAt"`
}

// SubmitWorkRequest holds the multipart form fields sent next to the file.
type SubmitWorkRequest struct {
	Notes string `form:"notes" binding:"max=2000"`
}

type SubmitWorkResponse struct {
	OK         bool               `json:"ok"`
	Submission SubmissionResponse `json:"submission"`
}

type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

type AnswerResponse struct {
	OK     bool         `json:"ok"`
	Answer model.Answer `json:"answer"`
}

type FeedbackRequest struct {
	Text  *string `json:"text" binding:"omitempty,max=1000"`
	Score *int    `json:"score" binding:"omitempty,min=0,max=100"`
}

type FeedbackResponse struct {
	OK       bool           `json:"ok"`
	Feedback model.Feedback `json:"feedback"`
}

type BoardReading struct {
	ID     uuid.UUID `json:"id"`
	Titulo string    `json:"titulo"`
}

type BoardStudent struct {
	ID     uuid.UUID `json:"id"`
	Nombre string    `json:"nombre"`
	Email  string    `json:"email"`
}

// TeacherBoardRow is one student/reading line of the teacher board.
type TeacherBoardRow struct {
	AssignmentID    uuid.UUID            `json:"assignmentId"`
	Reading         BoardReading         `json:"reading"`
	Student         BoardStudent         `json:"student"`
	DueDate         *time.Time           `json:"dueDate,omitempty"`
	ReadAt          *time.Time           `json:"readAt,omitempty"`
	Status          string               `json:"status"`
	QuestionsStatus model.QuestionStatus `json:"questionsStatus"`
	QuestionsCount  int                  `json:"questionsCount"`
	AnswersCount    int                  `json:"answersCount"`
	AverageScore    *float64             `json:"averageScore,omitempty"`
	Submission      SubmissionResponse   `json:"submission"`
	SubmissionURL   string               `json:"submissionUrl,omitempty"`
	Feedback        model.Feedback       `json:"feedback"`
}

type TeacherBoardResponse struct {
	OK   bool              `json:"ok"`
	Rows []TeacherBoardRow `json:"rows"`
}

type ReminderCandidate struct {
	AssignmentID  uuid.UUID `json:"assignmentId"`
	StudentID     uuid.UUID `json:"studentId"`
	StudentNombre string    `json:"studentNombre"`
	StudentEmail  string    `json:"studentEmail"`
	ReadingID     uuid.UUID `json:"readingId"`
	ReadingTitulo string    `json:"readingTitulo"`
	DueDate       time.Time `json:"dueDate"`
}

type ReminderCandidatesResponse struct {
	OK         bool                `json:"ok"`
	Candidates []ReminderCandidate `json:"candidates"`
}

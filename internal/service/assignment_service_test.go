package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type assignmentFixture struct {
	svc         *assignmentService
	assignments *fakeAssignmentRepo
	readings    *fakeReadingRepo
	users       *fakeUserRepo
	storage     *fakeStorage
	queue       *fakeQueue
	gemini      *fakeGemini
	teacher     model.Principal
	other       model.Principal
	reading     *model.Reading
	students    []*model.User
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	teacher := &model.User{ID: uuid.New(), Nombre: "Docente", Email: "docente@test.io", Rol: model.RoleDocente}
	other := &model.User{ID: uuid.New(), Nombre: "Otra", Email: "otra@test.io", Rol: model.RoleDocente}
	s1 := &model.User{ID: uuid.New(), Nombre: "Ana", Email: "ana@test.io", Rol: model.RoleEstudiante}
	s2 := &model.User{ID: uuid.New(), Nombre: "Beto", Email: "beto@test.io", Rol: model.RoleEstudiante}
	reading := &model.Reading{
		ID:         uuid.New(),
		Titulo:     "El túnel",
		Bucket:     "lecturas",
		ObjectPath: "doc/el-tunel.pdf",
		Mime:       "application/pdf",
		CreatedBy:  teacher.ID,
	}

	users := newFakeUserRepo(teacher, other, s1, s2)
	readings := newFakeReadingRepo(reading)
	assignments := newFakeAssignmentRepo(readings, users)
	storage := newFakeStorage()
	queue := &fakeQueue{}
	gemini := &fakeGemini{reply: "not json"}
	cfg := testConfig()

	svc := NewAssignmentService(assignments, readings, users, storage, NewAIGateway(gemini, cfg), queue, cfg).(*assignmentService)
	return &assignmentFixture{
		svc:         svc,
		assignments: assignments,
		readings:    readings,
		users:       users,
		storage:     storage,
		queue:       queue,
		gemini:      gemini,
		teacher:     model.Principal{ID: teacher.ID, Role: model.RoleDocente},
		other:       model.Principal{ID: other.ID, Role: model.RoleDocente},
		reading:     reading,
		students:    []*model.User{s1, s2},
	}
}

func (f *assignmentFixture) student(i int) model.Principal {
	return model.Principal{ID: f.students[i].ID, Role: model.RoleEstudiante}
}

// seedReady stores an assignment for student i with generated questions.
func (f *assignmentFixture) seedReady(t *testing.T, i int) *model.Assignment {
	t.Helper()
	a := model.NewAssignment(f.reading.ID, f.students[i].ID, f.teacher.ID, nil)
	qs := normalizeQuestionSet(model.QuestionSet{}, LevelCounts{Literal: 3, Inferential: 3, Critical: 6}, f.reading.Titulo, "")
	qs.Status = model.QuestionsReady
	a.Questions = datatypes.NewJSONType(qs)
	require.NoError(t, f.assignments.Create(context.Background(), a))
	return a
}

func TestAssign_BatchIsIdempotent(t *testing.T) {
	f := newAssignmentFixture(t)
	req := dto.AssignRequest{
		ReadingID:  f.reading.ID.String(),
		StudentIDs: []string{f.students[0].ID.String(), f.students[1].ID.String()},
	}

	first, err := f.svc.Assign(context.Background(), f.teacher, req)
	require.NoError(t, err)
	require.NotNil(t, first.Stats)
	assert.Nil(t, first.Assignment)
	assert.Equal(t, dto.BatchStats{Upserted: 2, Matched: 0, Modified: 0}, *first.Stats)

	second, err := f.svc.Assign(context.Background(), f.teacher, req)
	require.NoError(t, err)
	assert.Equal(t, dto.BatchStats{Upserted: 0, Matched: 2, Modified: 0}, *second.Stats)

	assert.Equal(t, 2, f.assignments.count())
	// matched rows are still pending, so they are queued again
	assert.Len(t, f.queue.ids, 4)
}

func TestAssign_BatchSkipsFailingRow(t *testing.T) {
	f := newAssignmentFixture(t)
	f.assignments.failOn[f.students[1].ID] = errors.New("connection reset")

	res, err := f.svc.Assign(context.Background(), f.teacher, dto.AssignRequest{
		ReadingID:  f.reading.ID.String(),
		StudentIDs: []string{f.students[0].ID.String(), f.students[1].ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Upserted)
	assert.Equal(t, 1, f.assignments.count())
}

func TestAssign_BatchDoesNotRequeueReadyQuestions(t *testing.T) {
	f := newAssignmentFixture(t)
	f.seedReady(t, 0)

	res, err := f.svc.Assign(context.Background(), f.teacher, dto.AssignRequest{
		ReadingID:  f.reading.ID.String(),
		StudentIDs: []string{f.students[0].ID.String(), f.students[1].ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, dto.BatchStats{Upserted: 1, Matched: 1}, *res.Stats)
	assert.Len(t, f.queue.ids, 1)
}

func TestAssign_SingleIsIdempotent(t *testing.T) {
	f := newAssignmentFixture(t)
	req := dto.AssignRequest{
		ReadingID: f.reading.ID.String(),
		StudentID: f.students[0].ID.String(),
		DueDate:   "2030-05-10",
	}

	res, err := f.svc.Assign(context.Background(), f.teacher, req)
	require.NoError(t, err)
	require.NotNil(t, res.Assignment)
	assert.Nil(t, res.Stats)
	assert.Equal(t, model.AssignmentStatusAssigned, res.Assignment.Status)
	assert.Equal(t, model.StatusPendiente, res.Assignment.DerivedStatus)
	assert.Equal(t, model.QuestionsPending, res.Assignment.Questions.Status)
	require.NotNil(t, res.Assignment.DueDate)
	assert.Equal(t, 2030, res.Assignment.DueDate.Year())
	assert.Equal(t, []uuid.UUID{res.Assignment.ID}, f.queue.ids)
	firstID := res.Assignment.ID

	again, err := f.svc.Assign(context.Background(), f.teacher, req)
	require.NoError(t, err)
	require.NotNil(t, again.Assignment)
	assert.Equal(t, firstID, again.Assignment.ID)
	assert.Equal(t, 1, f.assignments.count())
	// questions still pending, so the existing row is queued again
	assert.Equal(t, []uuid.UUID{firstID, firstID}, f.queue.ids)

	dup, err := f.svc.Assign(context.Background(), f.teacher, dto.AssignRequest{
		ReadingID:  req.ReadingID,
		StudentIDs: []string{req.StudentID, strings.ToUpper(req.StudentID)},
	})
	require.NoError(t, err)
	require.NotNil(t, dup.Assignment)
	assert.Equal(t, firstID, dup.Assignment.ID)
	assert.Equal(t, 1, f.assignments.count())
}

func TestAssign_SingleDoesNotRequeueReadyQuestions(t *testing.T) {
	f := newAssignmentFixture(t)
	seeded := f.seedReady(t, 0)

	res, err := f.svc.Assign(context.Background(), f.teacher, dto.AssignRequest{
		ReadingID: f.reading.ID.String(),
		StudentID: f.students[0].ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, res.Assignment.ID)
	assert.Equal(t, model.QuestionsReady, res.Assignment.Questions.Status)
	assert.Empty(t, f.queue.ids)
	assert.Equal(t, 1, f.assignments.count())
}

func TestAssign_Rejections(t *testing.T) {
	f := newAssignmentFixture(t)
	valid := dto.AssignRequest{ReadingID: f.reading.ID.String(), StudentID: f.students[0].ID.String()}

	tests := []struct {
		name   string
		caller model.Principal
		req    dto.AssignRequest
		want   error
	}{
		{"student caller", f.student(0), valid, ErrForbidden},
		{"unknown reading", f.teacher, dto.AssignRequest{ReadingID: uuid.NewString(), StudentID: valid.StudentID}, ErrNotFound},
		{"no targets", f.teacher, dto.AssignRequest{ReadingID: valid.ReadingID}, ErrValidation},
		{"target is a teacher", f.teacher, dto.AssignRequest{ReadingID: valid.ReadingID, StudentID: f.other.ID.String()}, ErrValidation},
		{"bad due date", f.teacher, dto.AssignRequest{ReadingID: valid.ReadingID, StudentID: valid.StudentID, DueDate: "mañana"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assign(context.Background(), tt.caller, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.assignments.count())
}

func TestAnswerQuestion_ResubmissionReplacesInPlace(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.seedReady(t, 0)

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return t0 }
	first, err := f.svc.AnswerQuestion(context.Background(), f.student(0), a.ID, dto.AnswerRequest{QuestionID: "literal-1", Answer: "Una primera respuesta"})
	require.NoError(t, err)
	_, err = f.svc.AnswerQuestion(context.Background(), f.student(0), a.ID, dto.AnswerRequest{QuestionID: "critical-2", Answer: "Otra respuesta"})
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	f.svc.now = func() time.Time { return t1 }
	second, err := f.svc.AnswerQuestion(context.Background(), f.student(0), a.ID, dto.AnswerRequest{QuestionID: "literal-1", Answer: "  Respuesta corregida  "})
	require.NoError(t, err)

	stored := f.assignments.snapshot(a.ID)
	require.Len(t, stored.Answers, 2)
	assert.Equal(t, "literal-1", stored.Answers[0].QuestionID)
	assert.Equal(t, "Respuesta corregida", stored.Answers[0].Answer)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, t0, stored.Answers[0].CreatedAt)
	assert.Equal(t, t1, stored.Answers[0].UpdatedAt)
	assert.Equal(t, model.LevelLiteral, second.Level)
	assert.Contains(t, []string{model.VerdictCorrecta, model.VerdictParcial, model.VerdictIncorrecta}, second.Verdict)
}

// slowEvaluator parks evaluations of answer "lenta" until release is closed.
type slowEvaluator struct {
	AIGateway
	entered chan struct{}
	release chan struct{}
}

func (e *slowEvaluator) EvaluateAnswer(ctx context.Context, in EvaluationInput) Evaluation {
	if in.StudentAnswer == "lenta" {
		close(e.entered)
		<-e.release
	}
	return e.AIGateway.EvaluateAnswer(ctx, in)
}

func TestAnswerQuestion_ConcurrentAnswersAreBothKept(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.seedReady(t, 0)
	slow := &slowEvaluator{AIGateway: f.svc.ai, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.ai = slow

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.AnswerQuestion(context.Background(), f.student(0), a.ID, dto.AnswerRequest{QuestionID: "literal-1", Answer: "lenta"})
		done <- err
	}()
	<-slow.entered

	_, err := f.svc.AnswerQuestion(context.Background(), f.student(0), a.ID, dto.AnswerRequest{QuestionID: "literal-2", Answer: "rápida"})
	require.NoError(t, err)

	close(slow.release)
	require.NoError(t, <-done)

	stored := f.assignments.snapshot(a.ID)
	ids := make([]string, 0, len(stored.Answers))
	for _, ans := range stored.Answers {
		ids = append(ids, ans.QuestionID)
	}
	assert.ElementsMatch(t, []string{"literal-1", "literal-2"}, ids)
}

func TestAnswerQuestion_Rejections(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.seedReady(t, 0)

	tests := []struct {
		name   string
		caller model.Principal
		id     uuid.UUID
		req    dto.AnswerRequest
		want   error
	}{
		{"blank answer", f.student(0), a.ID, dto.AnswerRequest{QuestionID: "literal-1", Answer: "   \n\t"}, ErrEmptyAnswer},
		{"teacher caller", f.teacher, a.ID, dto.AnswerRequest{QuestionID: "literal-1", Answer: "x"}, ErrForbidden},
		{"not owner", f.student(1), a.ID, dto.AnswerRequest{QuestionID: "literal-1", Answer: "x"}, ErrForbidden},
		{"missing assignment", f.student(0), uuid.New(), dto.AnswerRequest{QuestionID: "literal-1", Answer: "x"}, ErrNotFound},
		{"unknown question", f.student(0), a.ID, dto.AnswerRequest{QuestionID: "literal-99", Answer: "x"}, ErrQuestionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AnswerQuestion(context.Background(), tt.caller, tt.id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.gemini.Calls())
	assert.Empty(t, f.assignments.snapshot(a.ID).Answers)
}

func TestSendFeedback_NonOwnerTeacherIsForbidden(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.seedReady(t, 0)
	text := "Buen trabajo"
	score := 90

	_, err := f.svc.SendFeedback(context.Background(), f.other, a.ID, dto.FeedbackRequest{Text: &text, Score: &score})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, model.Feedback{}, f.assignments.snapshot(a.ID).Feedback)

	fb, err := f.svc.SendFeedback(context.Background(), f.teacher, a.ID, dto.FeedbackRequest{Text: &text, Score: &score})
	require.NoError(t, err)
	assert.Equal(t, "Buen trabajo", fb.Text)
	require.NotNil(t, fb.By)
	assert.Equal(t, f.teacher.ID, *fb.By)

	stored := f.assignments.snapshot(a.ID)
	assert.Equal(t, model.StatusRevisado, stored.DerivedStatus())
	assert.Equal(t, 90, *stored.Feedback.Score)
}

func TestToggleRead(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.seedReady(t, 0)

	readAt, err := f.svc.ToggleRead(context.Background(), f.student(0), a.ID)
	require.NoError(t, err)
	require.NotNil(t, readAt)
	assert.Equal(t, model.StatusLeido, f.assignments.snapshot(a.ID).DerivedStatus())

	readAt, err = f.svc.ToggleRead(context.Background(), f.student(0), a.ID)
	require.NoError(t, err)
	assert.Nil(t, readAt)
	assert.Nil(t, f.assignments.snapshot(a.ID).ReadAt)

	_, err = f.svc.ToggleRead(context.Background(), f.student(1), a.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ToggleRead(context.Background(), f.student(0), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitWork(t *testing.T) {
	f := newAssignmentFixture(t)
	a := f.seedReady(t, 0)
	upload := &FileUpload{Filename: "Ensayo.PDF", ContentType: "application/pdf", Size: 4, Reader: strings.NewReader("%PDF")}

	sub, err := f.svc.SubmitWork(context.Background(), f.student(0), a.ID, upload, " notas ")
	require.NoError(t, err)
	assert.Equal(t, "tareas", sub.Bucket)
	assert.True(t, strings.HasPrefix(sub.Path, f.students[0].ID.String()+"/"+f.reading.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(sub.Path, ".pdf"))
	assert.Equal(t, "notas", sub.Notes)
	assert.NotEmpty(t, sub.URL)

	stored := f.assignments.snapshot(a.ID)
	assert.Equal(t, model.StatusEntregado, stored.DerivedStatus())
	assert.Contains(t, f.storage.objects, "tareas/"+sub.Path)

	_, err = f.svc.SubmitWork(context.Background(), f.student(1), a.ID, upload, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.SubmitWork(context.Background(), f.student(0), a.ID, nil, "")
	assert.ErrorIs(t, err, ErrFileRequired)
}

func TestListForStudent_HidesExpectedAnswers(t *testing.T) {
	f := newAssignmentFixture(t)
	f.seedReady(t, 0)
	f.seedReady(t, 1)

	list, err := f.svc.ListForStudent(context.Background(), f.student(0))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Reading)
	assert.NotEmpty(t, list[0].Reading.URL)
	require.Len(t, list[0].Questions.Literal, 3)
	assert.Empty(t, list[0].Questions.Literal[0].ExpectedAnswer)

	detail, err := f.svc.Get(context.Background(), f.teacher, list[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, detail.Questions.Literal[0].ExpectedAnswer)

	_, err = f.svc.Get(context.Background(), f.other, list[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTeacherBoardAndReminderCandidates(t *testing.T) {
	f := newAssignmentFixture(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	soon := now.Add(24 * time.Hour)
	later := now.Add(10 * 24 * time.Hour)
	due := model.NewAssignment(f.reading.ID, f.students[0].ID, f.teacher.ID, &soon)
	notDue := model.NewAssignment(f.reading.ID, f.students[1].ID, f.teacher.ID, &later)
	require.NoError(t, f.assignments.Create(context.Background(), due))
	require.NoError(t, f.assignments.Create(context.Background(), notDue))

	candidates, err := f.svc.ReminderCandidates(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, due.ID, candidates[0].AssignmentID)
	assert.Equal(t, "Ana", candidates[0].StudentNombre)
	assert.Equal(t, f.reading.Titulo, candidates[0].ReadingTitulo)

	rows, err := f.svc.TeacherBoard(context.Background(), f.teacher, &f.reading.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, model.StatusPendiente, r.Status)
		assert.Equal(t, f.reading.Titulo, r.Reading.Titulo)
		assert.NotEmpty(t, r.Student.Email)
	}

	rows, err = f.svc.TeacherBoard(context.Background(), f.other, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.svc.TeacherBoard(context.Background(), f.student(0), nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

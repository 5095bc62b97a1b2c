package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"github.com/lecturacritica/tutor-api/internal/validation"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultReminderDays = 2

// FileUpload is a file received from a multipart request.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type AssignmentService interface {
	Assign(ctx context.Context, p model.Principal, req dto.AssignRequest) (*dto.AssignResult, error)
	ListForStudent(ctx context.Context, p model.Principal) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, p model.Principal, id uuid.UUID) (*dto.AssignmentResponse, error)
	ToggleRead(ctx context.Context, p model.Principal, id uuid.UUID) (*time.Time, error)
	SubmitWork(ctx context.Context, p model.Principal, id uuid.UUID, file *FileUpload, notes string) (*dto.SubmissionResponse, error)
	AnswerQuestion(ctx context.Context, p model.Principal, id uuid.UUID, req dto.AnswerRequest) (*model.Answer, error)
	SendFeedback(ctx context.Context, p model.Principal, id uuid.UUID, req dto.FeedbackRequest) (*model.Feedback, error)
	TeacherBoard(ctx context.Context, p model.Principal, readingID *uuid.UUID) ([]dto.TeacherBoardRow, error)
	ReminderCandidates(ctx context.Context, days int) ([]dto.ReminderCandidate, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	readings    repository.ReadingRepository
	users       repository.UserRepository
	storage     StorageProvider
	ai          AIGateway
	queue       QuestionQueue
	bucket      string
	mapper      responseMapper
	now         func() time.Time
}

func NewAssignmentService(
	assignments repository.AssignmentRepository,
	readings repository.ReadingRepository,
	users repository.UserRepository,
	storage StorageProvider,
	ai AIGateway,
	queue QuestionQueue,
	cfg *config.Config,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		readings:    readings,
		users:       users,
		storage:     storage,
		ai:          ai,
		queue:       queue,
		bucket:      cfg.Storage.BucketTareas,
		mapper:      responseMapper{storage: storage},
		now:         time.Now,
	}
}

func (s *assignmentService) Assign(ctx context.Context, p model.Principal, req dto.AssignRequest) (*dto.AssignResult, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo un docente puede asignar lecturas", ErrForbidden)
	}
	readingID, err := uuid.Parse(req.ReadingID)
	if err != nil {
		return nil, validationError("readingId inválido")
	}
	targets := req.Targets()
	if len(targets) == 0 {
		return nil, validationError("se requiere studentId o studentIds")
	}
	dueDate, err := validation.ParseDueDate(req.DueDate)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}

	if _, err := s.readings.FindByID(ctx, readingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReadingAbsent
		}
		return nil, fmt.Errorf("load reading: %w", err)
	}

	studentIDs, err := s.resolveStudents(ctx, targets)
	if err != nil {
		return nil, err
	}

	if len(studentIDs) == 1 {
		return s.assignOne(ctx, p, readingID, studentIDs[0], dueDate)
	}

	stats := dto.BatchStats{}
	var touched []uuid.UUID
	for _, studentID := range studentIDs {
		a := model.NewAssignment(readingID, studentID, p.ID, dueDate)
		inserted, err := s.assignments.InsertIfAbsent(ctx, a)
		if err != nil {
			log.Error().Err(err).Str("readingID", readingID.String()).Str("studentID", studentID.String()).Msg("AssignmentService.Assign: batch row failed")
			continue
		}
		if inserted {
			stats.Upserted++
			touched = append(touched, a.ID)
			continue
		}
		stats.Matched++
		existing, err := s.assignments.FindByReadingAndStudent(ctx, readingID, studentID)
		if err != nil {
			log.Warn().Err(err).Str("studentID", studentID.String()).Msg("AssignmentService.Assign: matched row not readable")
			continue
		}
		if existing.QuestionSet().Status != model.QuestionsReady {
			touched = append(touched, existing.ID)
		}
	}
	log.Info().
		Str("readingID", readingID.String()).
		Int("upserted", stats.Upserted).
		Int("matched", stats.Matched).
		Msg("AssignmentService.Assign: batch processed")
	s.queue.Enqueue(touched...)
	return &dto.AssignResult{Stats: &stats}, nil
}

// assignOne inserts the pair or, when it already exists, returns the stored
// assignment untouched. Questions not yet ready are queued again.
func (s *assignmentService) assignOne(ctx context.Context, p model.Principal, readingID, studentID uuid.UUID, dueDate *time.Time) (*dto.AssignResult, error) {
	a := model.NewAssignment(readingID, studentID, p.ID, dueDate)
	inserted, err := s.assignments.InsertIfAbsent(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	if inserted {
		log.Info().Str("assignmentID", a.ID.String()).Str("readingID", readingID.String()).Msg("AssignmentService.Assign: assignment created")
		s.queue.Enqueue(a.ID)
		resp := s.mapper.assignment(a, true)
		return &dto.AssignResult{Assignment: &resp}, nil
	}

	existing, err := s.assignments.FindByReadingAndStudent(ctx, readingID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load existing assignment: %w", err)
	}
	log.Info().Str("assignmentID", existing.ID.String()).Str("readingID", readingID.String()).Msg("AssignmentService.Assign: already assigned, nothing written")
	if existing.QuestionSet().Status != model.QuestionsReady {
		s.queue.Enqueue(existing.ID)
	}
	resp := s.mapper.assignment(existing, true)
	return &dto.AssignResult{Assignment: &resp}, nil
}

// resolveStudents parses ids and checks that every one is an existing student.
func (s *assignmentService) resolveStudents(ctx context.Context, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, validationError("id de estudiante inválido: %s", r)
		}
		ids = append(ids, id)
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	students := make(map[uuid.UUID]bool, len(users))
	for _, u := range users {
		if u.Rol == model.RoleEstudiante {
			students[u.ID] = true
		}
	}
	var invalid []string
	for _, id := range ids {
		if !students[id] {
			invalid = append(invalid, id.String())
		}
	}
	if len(invalid) > 0 {
		return nil, validationError("no son estudiantes válidos: %s", strings.Join(invalid, ", "))
	}
	return ids, nil
}

func (s *assignmentService) ListForStudent(ctx context.Context, p model.Principal) ([]dto.AssignmentResponse, error) {
	list, err := s.assignments.ListByStudent(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	out := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		out = append(out, s.mapper.assignment(&list[i], false))
	}
	return out, nil
}

func (s *assignmentService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*dto.AssignmentResponse, error) {
	a, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	switch p.Role {
	case model.RoleEstudiante:
		if a.StudentID != p.ID {
			return nil, ErrNotOwner
		}
	case model.RoleDocente:
		if a.AssignedBy != p.ID && (a.Reading == nil || a.Reading.CreatedBy != p.ID) {
			return nil, fmt.Errorf("%w: la asignación pertenece a otro docente", ErrForbidden)
		}
	}
	resp := s.mapper.assignment(a, !p.Is(model.RoleEstudiante))
	return &resp, nil
}

func (s *assignmentService) ToggleRead(ctx context.Context, p model.Principal, id uuid.UUID) (*time.Time, error) {
	a, err := s.loadOwned(ctx, p, id, false)
	if err != nil {
		return nil, err
	}
	var readAt *time.Time
	if a.ReadAt == nil {
		now := s.now()
		readAt = &now
	}
	if err := s.assignments.UpdateReadAt(ctx, a.ID, readAt); err != nil {
		return nil, fmt.Errorf("update readAt: %w", err)
	}
	return readAt, nil
}

func (s *assignmentService) SubmitWork(ctx context.Context, p model.Principal, id uuid.UUID, file *FileUpload, notes string) (*dto.SubmissionResponse, error) {
	if file == nil || file.Reader == nil {
		return nil, ErrFileRequired
	}
	a, err := s.loadOwned(ctx, p, id, false)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	path := fmt.Sprintf("%s/%s/%s%s", p.ID, a.ReadingID, uuid.NewString(), ext)
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Upload(ctx, s.bucket, path, file.Reader, file.Size, contentType); err != nil {
		return nil, err
	}

	now := s.now()
	submission := model.Submission{
		Bucket: s.bucket,
		Path:   path,
		Mime:   contentType,
		Size:   file.Size,
		Notes:  strings.TrimSpace(notes),
		At:     &now,
	}
	if err := s.assignments.UpdateSubmission(ctx, a.ID, submission); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}
	log.Info().Str("assignmentID", a.ID.String()).Str("path", path).Msg("AssignmentService.SubmitWork: submission stored")

	resp := s.mapper.submission(submission)
	return &resp, nil
}

func (s *assignmentService) AnswerQuestion(ctx context.Context, p model.Principal, id uuid.UUID, req dto.AnswerRequest) (*model.Answer, error) {
	text := strings.TrimSpace(req.Answer)
	if text == "" {
		return nil, ErrEmptyAnswer
	}
	if !p.Is(model.RoleEstudiante) {
		return nil, fmt.Errorf("%w: solo un estudiante puede responder", ErrForbidden)
	}
	a, err := s.loadOwned(ctx, p, id, true)
	if err != nil {
		return nil, err
	}

	question, ok := a.QuestionSet().Find(req.QuestionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}

	title := ""
	if a.Reading != nil {
		title = a.Reading.Titulo
	}
	ev := s.ai.EvaluateAnswer(ctx, EvaluationInput{
		Level:          question.Level,
		Prompt:         question.Prompt,
		ExpectedAnswer: question.ExpectedAnswer,
		StudentAnswer:  text,
		Title:          title,
	})

	// merged against the row as it is now, not the copy loaded before evaluation
	stored, err := s.assignments.UpsertAnswer(ctx, a.ID, model.Answer{
		QuestionID:   question.ID,
		Level:        question.Level,
		Prompt:       question.Prompt,
		Answer:       text,
		FeedbackText: ev.Feedback,
		Score:        ev.Score,
		Verdict:      ev.Verdict,
	}, s.now())
	if err != nil {
		return nil, fmt.Errorf("store answer: %w", err)
	}
	log.Info().
		Str("assignmentID", a.ID.String()).
		Str("questionID", question.ID).
		Int("score", ev.Score).
		Str("source", ev.Source).
		Msg("AssignmentService.AnswerQuestion: answer scored")
	return &stored, nil
}

func (s *assignmentService) SendFeedback(ctx context.Context, p model.Principal, id uuid.UUID, req dto.FeedbackRequest) (*model.Feedback, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo un docente puede dar retroalimentación", ErrForbidden)
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		return nil, validationError("score debe estar entre 0 y 100")
	}
	if req.Text != nil && len([]rune(*req.Text)) > 1000 {
		return nil, validationError("text admite como máximo 1000 caracteres")
	}

	a, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	reading := a.Reading
	if reading == nil {
		if reading, err = s.readings.FindByID(ctx, a.ReadingID); err != nil {
			return nil, ErrReadingAbsent
		}
	}
	if reading.CreatedBy != p.ID {
		log.Warn().Str("assignmentID", a.ID.String()).Str("teacherID", p.ID.String()).Msg("AssignmentService.SendFeedback: teacher does not own reading")
		return nil, fmt.Errorf("%w: la lectura pertenece a otro docente", ErrForbidden)
	}

	now := s.now()
	by := p.ID
	feedback := model.Feedback{Score: req.Score, By: &by, At: &now}
	if req.Text != nil {
		feedback.Text = strings.TrimSpace(*req.Text)
	}
	if err := s.assignments.UpdateFeedback(ctx, a.ID, feedback); err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	return &feedback, nil
}

func (s *assignmentService) TeacherBoard(ctx context.Context, p model.Principal, readingID *uuid.UUID) ([]dto.TeacherBoardRow, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo un docente puede ver el tablero", ErrForbidden)
	}
	list, err := s.assignments.ListByTeacher(ctx, p.ID, readingID)
	if err != nil {
		return nil, fmt.Errorf("list board: %w", err)
	}

	rows := make([]dto.TeacherBoardRow, 0, len(list))
	for i := range list {
		a := &list[i]
		qs := a.QuestionSet()
		row := dto.TeacherBoardRow{
			AssignmentID:    a.ID,
			DueDate:         a.DueDate,
			ReadAt:          a.ReadAt,
			Status:          a.DerivedStatus(),
			QuestionsStatus: qs.Status,
			QuestionsCount:  qs.Total(),
			AnswersCount:    len(a.Answers),
			AverageScore:    averageScore(a.Answers),
			Submission:      s.mapper.submission(a.Submission),
			Feedback:        a.Feedback,
		}
		row.SubmissionURL = row.Submission.URL
		if a.Reading != nil {
			row.Reading = dto.BoardReading{ID: a.Reading.ID, Titulo: a.Reading.Titulo}
		} else {
			row.Reading = dto.BoardReading{ID: a.ReadingID}
		}
		if a.Student != nil {
			row.Student = dto.BoardStudent{ID: a.Student.ID, Nombre: a.Student.Nombre, Email: a.Student.Email}
		} else {
			row.Student = dto.BoardStudent{ID: a.StudentID}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *assignmentService) ReminderCandidates(ctx context.Context, days int) ([]dto.ReminderCandidate, error) {
	if days <= 0 {
		days = defaultReminderDays
	}
	now := s.now()
	list, err := s.assignments.ListDueUnsubmitted(ctx, now, now.Add(time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	out := make([]dto.ReminderCandidate, 0, len(list))
	for _, a := range list {
		if a.DueDate == nil || a.Submission.At != nil {
			continue
		}
		c := dto.ReminderCandidate{
			AssignmentID: a.ID,
			StudentID:    a.StudentID,
			ReadingID:    a.ReadingID,
			DueDate:      *a.DueDate,
		}
		if a.Student != nil {
			c.StudentNombre = a.Student.Nombre
			c.StudentEmail = a.Student.Email
		}
		if a.Reading != nil {
			c.ReadingTitulo = a.Reading.Titulo
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *assignmentService) load(ctx context.Context, id uuid.UUID, withReading bool) (*model.Assignment, error) {
	var (
		a   *model.Assignment
		err error
	)
	if withReading {
		a, err = s.assignments.FindByIDWithReading(ctx, id)
	} else {
		a, err = s.assignments.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignAbsent
		}
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	return a, nil
}

func (s *assignmentService) loadOwned(ctx context.Context, p model.Principal, id uuid.UUID, withReading bool) (*model.Assignment, error) {
	a, err := s.load(ctx, id, withReading)
	if err != nil {
		return nil, err
	}
	if a.StudentID != p.ID {
		return nil, ErrNotOwner
	}
	return a, nil
}

func averageScore(answers []model.Answer) *float64 {
	if len(answers) == 0 {
		return nil
	}
	total := 0
	for _, a := range answers {
		total += a.Score
	}
	avg := float64(total) / float64(len(answers))
	return &avg
}

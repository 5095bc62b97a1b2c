package service

import (
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
)

// responseMapper resolves storage URLs while mapping models to responses.
type responseMapper struct {
	storage StorageProvider
}

func (m responseMapper) reading(r *model.Reading) *dto.ReadingResponse {
	if r == nil {
		return nil
	}
	return &dto.ReadingResponse{
		ID:          r.ID,
		Titulo:      r.Titulo,
		Descripcion: r.Descripcion,
		Bucket:      r.Bucket,
		ObjectPath:  r.ObjectPath,
		Mime:        r.Mime,
		Size:        r.Size,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		URL:         m.url(r.Bucket, r.ObjectPath),
	}
}

func (m responseMapper) submission(s model.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		Bucket: s.Bucket,
		Path:   s.Path,
		Mime:   s.Mime,
		Size:   s.Size,
		Notes:  s.Notes,
		At:     s.At,
		URL:    m.url(s.Bucket, s.Path),
	}
}

func (m responseMapper) url(bucket, path string) string {
	if m.storage == nil || path == "" {
		return ""
	}
	return m.storage.PublicURL(bucket, path)
}

// assignment maps an assignment. Students do not see reference answers.
func (m responseMapper) assignment(a *model.Assignment, withExpected bool) dto.AssignmentResponse {
	answers := []model.Answer(a.Answers)
	if answers == nil {
		answers = []model.Answer{}
	}
	resp := dto.AssignmentResponse{
		ID:            a.ID,
		ReadingID:     a.ReadingID,
		StudentID:     a.StudentID,
		AssignedBy:    a.AssignedBy,
		DueDate:       a.DueDate,
		ReadAt:        a.ReadAt,
		Status:        a.Status,
		DerivedStatus: a.DerivedStatus(),
		Submission:    m.submission(a.Submission),
		Feedback:      a.Feedback,
		Questions:     questionSetResponse(a.QuestionSet(), withExpected),
		Answers:       answers,
		Reading:       m.reading(a.Reading),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Student != nil {
		student := toUserResponse(a.Student)
		resp.Student = &student
	}
	return resp
}

func questionSetResponse(qs model.QuestionSet, withExpected bool) dto.QuestionSetResponse {
	convert := func(in []model.Question) []dto.QuestionResponse {
		out := make([]dto.QuestionResponse, 0, len(in))
		for _, q := range in {
			r := dto.QuestionResponse{ID: q.ID, Level: q.Level, Prompt: q.Prompt}
			if withExpected {
				r.ExpectedAnswer = q.ExpectedAnswer
			}
			out = append(out, r)
		}
		return out
	}
	status := qs.Status
	if status == "" {
		status = model.QuestionsPending
	}
	return dto.QuestionSetResponse{
		Status:      status,
		Literal:     convert(qs.Literal),
		Inferential: convert(qs.Inferential),
		Critical:    convert(qs.Critical),
		Error:       qs.Error,
		GeneratedAt: qs.GeneratedAt,
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/model"
)

// PreviewService lets a teacher try question generation on raw text without
// creating an assignment.
type PreviewService interface {
	PreviewQuestions(ctx context.Context, p model.Principal, req dto.PreviewQuestionsRequest) (*dto.QuestionSetResponse, error)
}

type previewService struct {
	ai AIGateway
}

func NewPreviewService(ai AIGateway) PreviewService {
	return &previewService{ai: ai}
}

func (s *previewService) PreviewQuestions(ctx context.Context, p model.Principal, req dto.PreviewQuestionsRequest) (*dto.QuestionSetResponse, error) {
	if !p.Is(model.RoleDocente) {
		return nil, fmt.Errorf("%w: solo un docente puede generar preguntas", ErrForbidden)
	}
	if !hasEnoughText(req.Text) {
		return nil, ErrInsufficientText
	}
	counts := LevelCounts{
		Literal:     derefInt(req.Literal),
		Inferential: derefInt(req.Inferential),
		Critical:    derefInt(req.Critical),
	}
	qs, err := s.ai.GenerateQuestions(ctx, req.Text, req.Title, counts)
	if err != nil {
		return nil, err
	}
	resp := questionSetResponse(qs, true)
	return &resp, nil
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/internal/controller"
	"github.com/lecturacritica/tutor-api/internal/dto"
)

// ReminderReport godoc
// @Summary (Docente) Reminder summary
// @Description Reminders sent by automation, grouped by reading and student, most recent first.
// @Tags Teacher - Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReminderSummaryResponse
// @Router /reports/reminders/teacher [get]
func (c *TeacherController) ReminderReport(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	rows, err := c.reports.ReminderSummary(ctx.Request.Context(), p)
	if err != nil {
		controller.RespondError(ctx, "ReminderReport", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ReminderSummaryResponse{OK: true, Rows: rows})
}

// PreviewQuestions godoc
// @Summary (Docente) Preview generated questions
// @Description Runs question generation over raw text. Nothing is persisted.
// @Tags Teacher - AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PreviewQuestionsRequest true "Text and optional counts per level"
// @Success 200 {object} dto.PreviewQuestionsResponse
// @Failure 400 {object} dto.ErrorResponse "Missing or insufficient text"
// @Router /ai/preview-questions [post]
func (c *TeacherController) PreviewQuestions(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.PreviewQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "PreviewQuestions", err)
		return
	}
	qs, err := c.preview.PreviewQuestions(ctx.Request.Context(), p, req)
	if err != nil {
		controller.RespondError(ctx, "PreviewQuestions", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PreviewQuestionsResponse{OK: true, Questions: *qs})
}

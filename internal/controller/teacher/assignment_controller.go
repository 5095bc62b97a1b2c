package teacher

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/internal/controller"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Assign godoc
// @Summary (Docente) Assign a reading
// @Description A single studentId creates one assignment and returns it; a pair that already exists is returned unchanged. studentIds upserts per student and returns batch stats; existing pairs are left untouched.
// @Tags Teacher - Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body dto.AssignRequest true "Reading, target students and optional dueDate (RFC3339 or YYYY-MM-DD)"
// @Success 201 {object} dto.AssignSingleResponse "Single target"
// @Success 201 {object} dto.AssignBatchResponse "Several targets"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assignments/assign [post]
func (c *TeacherController) Assign(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.AssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Assign", err)
		return
	}
	if len(req.Targets()) == 0 {
		controller.BadRequest(ctx, "studentId o studentIds es obligatorio")
		return
	}

	result, err := c.assignments.Assign(ctx.Request.Context(), p, req)
	if err != nil {
		controller.RespondError(ctx, "Assign", err)
		return
	}
	if result.Assignment != nil {
		ctx.JSON(http.StatusCreated, dto.AssignSingleResponse{OK: true, Assignment: *result.Assignment})
		return
	}
	var stats dto.BatchStats
	if result.Stats != nil {
		stats = *result.Stats
	}
	ctx.JSON(http.StatusCreated, dto.AssignBatchResponse{OK: true, Stats: stats})
}

// SendFeedback godoc
// @Summary (Docente) Review a submission
// @Description Only the teacher who created the reading may write feedback. It overwrites any previous feedback.
// @Tags Teacher - Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param feedback body dto.FeedbackRequest true "Text (max 1000) and score (0-100)"
// @Success 200 {object} dto.FeedbackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assignments/{id}/feedback [post]
func (c *TeacherController) SendFeedback(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "SendFeedback", err)
		return
	}
	feedback, err := c.assignments.SendFeedback(ctx.Request.Context(), p, id, req)
	if err != nil {
		controller.RespondError(ctx, "SendFeedback", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.FeedbackResponse{OK: true, Feedback: *feedback})
}

// Board godoc
// @Summary (Docente) Teacher board
// @Description One row per assignment of the caller's readings, optionally filtered by reading.
// @Tags Teacher - Assignments
// @Produce json
// @Security BearerAuth
// @Param readingId query string false "Reading ID"
// @Success 200 {object} dto.TeacherBoardResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /assignments/teacher [get]
func (c *TeacherController) Board(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	readingID, ok := controller.OptionalUUIDQuery(ctx, "readingId")
	if !ok {
		return
	}
	rows, err := c.assignments.TeacherBoard(ctx.Request.Context(), p, readingID)
	if err != nil {
		controller.RespondError(ctx, "Board", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TeacherBoardResponse{OK: true, Rows: rows})
}

// ExportBoard godoc
// @Summary (Docente) Export the teacher board as xlsx
// @Tags Teacher - Assignments
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param readingId query string false "Reading ID"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse
// @Router /assignments/teacher/export [get]
func (c *TeacherController) ExportBoard(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	readingID, ok := controller.OptionalUUIDQuery(ctx, "readingId")
	if !ok {
		return
	}
	data, err := c.exports.TeacherBoardXLSX(ctx.Request.Context(), p, readingID)
	if err != nil {
		controller.RespondError(ctx, "ExportBoard", err)
		return
	}
	filename := fmt.Sprintf("tablero-%s.xlsx", time.Now().Format("20060102"))
	log.Info().Str("teacherID", p.ID.String()).Int("bytes", len(data)).Msg("TeacherController.ExportBoard: workbook generated")
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, xlsxContentType, data)
}

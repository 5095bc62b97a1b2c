package student

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/controller"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/service"
	"github.com/rs/zerolog/log"
)

// StudentController serves the estudiante side of an assignment.
type StudentController struct {
	assignments service.AssignmentService
	maxUpload   int64
}

func NewStudentController(cfg *config.Config, assignments service.AssignmentService) *StudentController {
	return &StudentController{assignments: assignments, maxUpload: cfg.Storage.MaxUploadMB << 20}
}

// ListMine godoc
// @Summary List my assignments
// @Description Assignments of the caller with derived status and reading URL.
// @Tags Student - Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AssignmentListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /assignments/my [get]
func (c *StudentController) ListMine(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	list, err := c.assignments.ListForStudent(ctx.Request.Context(), p)
	if err != nil {
		controller.RespondError(ctx, "ListMine", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.AssignmentListResponse{OK: true, Assignments: list})
}

// Get godoc
// @Summary Get one assignment
// @Description Visible to the owner student and to the teacher who created the reading.
// @Tags Student - Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} dto.AssignmentDetailResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assignments/{id} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	a, err := c.assignments.Get(ctx.Request.Context(), p, id)
	if err != nil {
		controller.RespondError(ctx, "GetAssignment", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.AssignmentDetailResponse{OK: true, Assignment: *a})
}

// ToggleRead godoc
// @Summary Toggle the read mark
// @Tags Student - Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} dto.ToggleReadResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assignments/{id}/read [patch]
func (c *StudentController) ToggleRead(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	readAt, err := c.assignments.ToggleRead(ctx.Request.Context(), p, id)
	if err != nil {
		controller.RespondError(ctx, "ToggleRead", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToggleReadResponse{OK: true, ReadAt: readAt})
}

// SubmitWork godoc
// @Summary Submit work for an assignment
// @Description Uploads the file to the tareas bucket. A new submission replaces the previous one.
// @Tags Student - Assignments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param file formData file true "Work file"
// @Param notes formData string false "Notes"
// @Success 201 {object} dto.SubmitWorkResponse
// @Failure 400 {object} dto.ErrorResponse "Missing file"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assignments/{id}/submit [post]
func (c *StudentController) SubmitWork(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	if c.maxUpload > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUpload+(1<<20))
	}
	var req dto.SubmitWorkRequest
	if err := ctx.ShouldBind(&req); err != nil {
		controller.RespondBindError(ctx, "SubmitWork", err)
		return
	}
	upload, file, ok := controller.FormFile(ctx, "file", c.maxUpload)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}
	if upload == nil {
		controller.BadRequest(ctx, "Archivo requerido")
		return
	}

	sub, err := c.assignments.SubmitWork(ctx.Request.Context(), p, id, upload, strings.TrimSpace(req.Notes))
	if err != nil {
		controller.RespondError(ctx, "SubmitWork", err)
		return
	}
	log.Info().Str("assignmentID", id.String()).Str("studentID", p.ID.String()).Msg("StudentController.SubmitWork: submission stored")
	ctx.JSON(http.StatusCreated, dto.SubmitWorkResponse{OK: true, Submission: *sub})
}

// Answer godoc
// @Summary Answer a generated question
// @Description The answer is scored synchronously. Answering the same question again replaces the previous answer.
// @Tags Student - Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param answer body dto.AnswerRequest true "Question id and answer text"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Empty answer or unknown question"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assignments/{id}/answer [post]
func (c *StudentController) Answer(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Answer", err)
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		controller.BadRequest(ctx, "La respuesta es obligatoria")
		return
	}

	answer, err := c.assignments.AnswerQuestion(ctx.Request.Context(), p, id, req)
	if err != nil {
		controller.RespondError(ctx, "Answer", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.AnswerResponse{OK: true, Answer: *answer})
}

package teacher

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/controller"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/service"
	"github.com/rs/zerolog/log"
)

// TeacherController serves the docente side of the API.
type TeacherController struct {
	readings    service.ReadingService
	assignments service.AssignmentService
	profiles    service.TeacherService
	reports     service.ReportService
	exports     service.ExportService
	preview     service.PreviewService
	maxUpload   int64
}

func NewTeacherController(
	cfg *config.Config,
	readings service.ReadingService,
	assignments service.AssignmentService,
	profiles service.TeacherService,
	reports service.ReportService,
	exports service.ExportService,
	preview service.PreviewService,
) *TeacherController {
	return &TeacherController{
		readings:    readings,
		assignments: assignments,
		profiles:    profiles,
		reports:     reports,
		exports:     exports,
		preview:     preview,
		maxUpload:   cfg.Storage.MaxUploadMB << 20,
	}
}

// UploadReading godoc
// @Summary (Docente) Upload a reading
// @Description Stores the file in the lecturas bucket and registers the reading.
// @Tags Teacher - Readings
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param titulo formData string true "Title (min 2 chars)"
// @Param descripcion formData string false "Description (max 1000 chars)"
// @Param file formData file true "Reading file"
// @Success 201 {object} dto.ReadingCreatedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /readings [post]
func (c *TeacherController) UploadReading(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	if c.maxUpload > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUpload+(1<<20))
	}

	var req dto.CreateReadingRequest
	if err := ctx.ShouldBind(&req); err != nil {
		controller.RespondBindError(ctx, "UploadReading", err)
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

	reading, err := c.readings.Upload(ctx.Request.Context(), p, req, upload)
	if err != nil {
		controller.RespondError(ctx, "UploadReading", err)
		return
	}
	log.Info().Str("readingID", reading.ID.String()).Str("teacherID", p.ID.String()).Msg("TeacherController.UploadReading: reading stored")
	ctx.JSON(http.StatusCreated, dto.ReadingCreatedResponse{OK: true, Reading: *reading})
}

// ListMyReadings godoc
// @Summary (Docente) List my readings
// @Tags Teacher - Readings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReadingListResponse
// @Router /readings/mine [get]
func (c *TeacherController) ListMyReadings(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	list, err := c.readings.ListMine(ctx.Request.Context(), p)
	if err != nil {
		controller.RespondError(ctx, "ListMyReadings", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ReadingListResponse{OK: true, Readings: list})
}

// GetProfile godoc
// @Summary (Docente) Get my profile
// @Description profile is null until the teacher saves one.
// @Tags Teacher - Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TeacherProfileEnvelope
// @Router /teacher/profile/me [get]
func (c *TeacherController) GetProfile(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	profile, err := c.profiles.GetProfile(ctx.Request.Context(), p)
	if err != nil {
		controller.RespondError(ctx, "GetProfile", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TeacherProfileEnvelope{OK: true, Profile: profile})
}

// UpdateProfile godoc
// @Summary (Docente) Create or update my profile
// @Tags Teacher - Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body dto.TeacherProfileRequest true "Profile"
// @Success 200 {object} dto.TeacherProfileEnvelope
// @Failure 400 {object} dto.ErrorResponse
// @Router /teacher/profile/me [put]
func (c *TeacherController) UpdateProfile(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	var req dto.TeacherProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "UpdateProfile", err)
		return
	}
	profile, err := c.profiles.UpsertProfile(ctx.Request.Context(), p, req)
	if err != nil {
		controller.RespondError(ctx, "UpdateProfile", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TeacherProfileEnvelope{OK: true, Profile: profile})
}

// AssignableStudents godoc
// @Summary (Docente) List students that can receive assignments
// @Tags Teacher - Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AssignableStudentsResponse
// @Router /teacher/students/assignable [get]
func (c *TeacherController) AssignableStudents(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	students, err := c.profiles.AssignableStudents(ctx.Request.Context(), p)
	if err != nil {
		controller.RespondError(ctx, "AssignableStudents", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.AssignableStudentsResponse{OK: true, Students: students})
}

package system

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/internal/controller"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/service"
	"github.com/rs/zerolog/log"
)

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// SystemController serves automation endpoints guarded by the system API key,
// plus health checks and the metric listing for staff.
type SystemController struct {
	metrics       service.MetricService
	notifications service.NotificationService
	assignments   service.AssignmentService
	db            DBPinger
}

func NewSystemController(
	metrics service.MetricService,
	notifications service.NotificationService,
	assignments service.AssignmentService,
	db DBPinger,
) *SystemController {
	return &SystemController{metrics: metrics, notifications: notifications, assignments: assignments, db: db}
}

// RecordMetric godoc
// @Summary (System) Record a metric
// @Tags System
// @Accept json
// @Produce json
// @Security SystemApiKey
// @Param metric body dto.CreateMetricRequest true "Metric"
// @Success 201 {object} dto.MetricCreatedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /metrics/system [post]
func (c *SystemController) RecordMetric(ctx *gin.Context) {
	var req dto.CreateMetricRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "RecordMetric", err)
		return
	}
	m, err := c.metrics.Record(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "RecordMetric", err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.MetricCreatedResponse{OK: true, Metric: *m})
}

// ListMetrics godoc
// @Summary (Docente/Admin) Latest metrics
// @Description Latest 200, newest first.
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MetricListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /metrics [get]
func (c *SystemController) ListMetrics(ctx *gin.Context) {
	list, err := c.metrics.ListRecent(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, "ListMetrics", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MetricListResponse{OK: true, Metrics: list})
}

// CreateNotification godoc
// @Summary (System) Notify a user
// @Description Stores the notification and pushes it to the user's open websockets.
// @Tags System
// @Accept json
// @Produce json
// @Security SystemApiKey
// @Param notification body dto.CreateNotificationRequest true "Notification"
// @Success 201 {object} dto.NotificationCreatedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown user"
// @Router /notifications/system [post]
func (c *SystemController) CreateNotification(ctx *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "CreateNotification", err)
		return
	}
	n, err := c.notifications.CreateFromSystem(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "CreateNotification", err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NotificationCreatedResponse{OK: true, Notification: *n})
}

// ReminderCandidates godoc
// @Summary (System) Assignments due soon without submission
// @Tags System
// @Produce json
// @Security SystemApiKey
// @Param days query int false "Window in days (default 2)"
// @Success 200 {object} dto.ReminderCandidatesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /assignments/system/reminder-candidates [get]
func (c *SystemController) ReminderCandidates(ctx *gin.Context) {
	days := 0
	if raw := ctx.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			controller.BadRequest(ctx, "days inválido")
			return
		}
		days = v
	}
	list, err := c.assignments.ReminderCandidates(ctx.Request.Context(), days)
	if err != nil {
		controller.RespondError(ctx, "ReminderCandidates", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ReminderCandidatesResponse{OK: true, Candidates: list})
}

// Health godoc
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (c *SystemController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{OK: true, Status: "up", Time: time.Now().UTC().Format(time.RFC3339)})
}

// HealthRedirect sends /api/health to /health.
func (c *SystemController) HealthRedirect(ctx *gin.Context) {
	ctx.Redirect(http.StatusTemporaryRedirect, "/health")
}

// DBHealth godoc
// @Summary Database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /db/health [get]
func (c *SystemController) DBHealth(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()
	now := time.Now().UTC().Format(time.RFC3339)
	if err := c.db.PingContext(pingCtx); err != nil {
		log.Error().Err(err).Msg("SystemController.DBHealth: ping failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{OK: false, Status: "down", Time: now})
		return
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{OK: true, Status: "up", Time: now})
}

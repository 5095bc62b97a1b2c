package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/internal/controller"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/service"
)

type AccountController struct {
	auth          service.AuthService
	notifications service.NotificationService
}

func NewAccountController(auth service.AuthService, notifications service.NotificationService) *AccountController {
	return &AccountController{auth: auth, notifications: notifications}
}

// Register godoc
// @Summary Register a user
// @Description rol defaults to estudiante. admin cannot be self-assigned.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body dto.RegisterRequest true "User data"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (c *AccountController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Register", err)
		return
	}
	resp, err := c.auth.Register(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Register", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Email and password"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse "Wrong password"
// @Failure 404 {object} dto.ErrorResponse "Unknown email"
// @Router /auth/login [post]
func (c *AccountController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.RespondBindError(ctx, "Login", err)
		return
	}
	resp, err := c.auth.Login(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, "Login", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MeResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (c *AccountController) Me(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	user, err := c.auth.Me(ctx.Request.Context(), p.ID)
	if err != nil {
		controller.RespondError(ctx, "Me", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MeResponse{OK: true, User: *user})
}

// MyNotifications godoc
// @Summary My notifications
// @Description Latest 50, newest first.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.NotificationListResponse
// @Router /notifications/my [get]
func (c *AccountController) MyNotifications(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	list, err := c.notifications.ListMine(ctx.Request.Context(), p)
	if err != nil {
		controller.RespondError(ctx, "MyNotifications", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NotificationListResponse{OK: true, Notifications: list})
}

// MarkNotificationRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.NotificationCreatedResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /notifications/{id}/read [patch]
func (c *AccountController) MarkNotificationRead(ctx *gin.Context) {
	p, ok := controller.Principal(ctx)
	if !ok {
		return
	}
	id, ok := controller.UUIDParam(ctx, "id")
	if !ok {
		return
	}
	n, err := c.notifications.MarkRead(ctx.Request.Context(), p, id)
	if err != nil {
		controller.RespondError(ctx, "MarkNotificationRead", err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NotificationCreatedResponse{OK: true, Notification: *n})
}

package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/internal/controller/account"
	"github.com/lecturacritica/tutor-api/internal/controller/student"
	"github.com/lecturacritica/tutor-api/internal/controller/system"
	"github.com/lecturacritica/tutor-api/internal/controller/teacher"
	"github.com/lecturacritica/tutor-api/internal/middleware"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/monitoring"
	"github.com/lecturacritica/tutor-api/internal/ws"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups every controller mounted on the engine.
type Handlers struct {
	Account  *account.AccountController
	Teacher  *teacher.TeacherController
	Student  *student.StudentController
	System   *system.SystemController
	Realtime *ws.Handler
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case cfg.IsTest():
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.Server.CorsOrigins)))
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window))

	r.GET("/metrics", monitoring.PrometheusHandler())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-System-Api-Key"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// Register mounts the API on r.
func Register(r *gin.Engine, cfg *config.Config, verifier middleware.TokenVerifier, h Handlers) {
	r.GET("/health", h.System.Health)
	r.GET("/db/health", h.System.DBHealth)
	r.GET("/ws", h.Realtime.Serve)

	api := r.Group("/api")
	api.GET("/health", h.System.HealthRedirect)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Account.Register)
		auth.POST("/login", h.Account.Login)
		auth.GET("/me", middleware.Authenticate(verifier), h.Account.Me)
	}

	systemKey := middleware.SystemAuth(cfg.SystemAPIKey)
	api.POST("/metrics/system", systemKey, h.System.RecordMetric)
	api.POST("/notifications/system", systemKey, h.System.CreateNotification)
	api.GET("/assignments/system/reminder-candidates", systemKey, h.System.ReminderCandidates)

	authed := api.Group("", middleware.Authenticate(verifier))
	docente := middleware.RequireRole(model.RoleDocente)

	authed.GET("/metrics", middleware.RequireRole(model.RoleDocente, model.RoleAdmin), h.System.ListMetrics)
	authed.GET("/notifications/my", h.Account.MyNotifications)
	authed.PATCH("/notifications/:id/read", h.Account.MarkNotificationRead)

	readings := authed.Group("/readings", docente)
	{
		readings.POST("", h.Teacher.UploadReading)
		readings.GET("/mine", h.Teacher.ListMyReadings)
	}

	teacherGroup := authed.Group("/teacher", docente)
	{
		teacherGroup.GET("/profile/me", h.Teacher.GetProfile)
		teacherGroup.PUT("/profile/me", h.Teacher.UpdateProfile)
		teacherGroup.GET("/students/assignable", h.Teacher.AssignableStudents)
	}

	authed.GET("/reports/reminders/teacher", docente, h.Teacher.ReminderReport)
	authed.POST("/ai/preview-questions", docente, h.Teacher.PreviewQuestions)

	assignments := authed.Group("/assignments")
	{
		assignments.POST("/assign", docente, h.Teacher.Assign)
		assignments.GET("/teacher", docente, h.Teacher.Board)
		assignments.GET("/teacher/export", docente, h.Teacher.ExportBoard)
		assignments.GET("/my", h.Student.ListMine)
		assignments.GET("/:id", h.Student.Get)
		assignments.PATCH("/:id/read", h.Student.ToggleRead)
		assignments.POST("/:id/submit", h.Student.SubmitWork)
		assignments.POST("/:id/answer", middleware.RequireRole(model.RoleEstudiante), h.Student.Answer)
		assignments.POST("/:id/feedback", docente, h.Teacher.SendFeedback)
	}
}

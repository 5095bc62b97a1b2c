package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lecturacritica/tutor-api/config"
	"github.com/lecturacritica/tutor-api/database"
	_ "github.com/lecturacritica/tutor-api/docs"
	"github.com/lecturacritica/tutor-api/internal/controller/account"
	"github.com/lecturacritica/tutor-api/internal/controller/student"
	"github.com/lecturacritica/tutor-api/internal/controller/system"
	"github.com/lecturacritica/tutor-api/internal/controller/teacher"
	"github.com/lecturacritica/tutor-api/internal/logger"
	"github.com/lecturacritica/tutor-api/internal/middleware"
	"github.com/lecturacritica/tutor-api/internal/model"
	"github.com/lecturacritica/tutor-api/internal/repository"
	"github.com/lecturacritica/tutor-api/internal/router"
	"github.com/lecturacritica/tutor-api/internal/service"
	"github.com/lecturacritica/tutor-api/internal/validation"
	"github.com/lecturacritica/tutor-api/internal/ws"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Tutor Virtual de Lectura Crítica API
// @version 1.0
// @description Reading assignments between teachers and students with AI generated questions and answer scoring.
// @host localhost:8080
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey SystemApiKey
// @in header
// @name X-System-Api-Key
func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			router.NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewReadingRepository,
			repository.NewAssignmentRepository,
			repository.NewMetricRepository,
			repository.NewNotificationRepository,
			repository.NewTeacherProfileRepository,
		),

		fx.Provide(
			ws.NewHub,
			func(h *ws.Hub) service.EventPublisher { return h },
			service.NewTokenManager,
			func(t *service.TokenManager) middleware.TokenVerifier { return t },
			service.NewStorageProvider,
			service.NewGeminiClient,
			service.NewAIGateway,
			service.NewReadingTextService,
			service.NewQuestionWorker,
			func(w *service.QuestionWorker) service.QuestionQueue { return w },
			service.NewAuthService,
			service.NewReadingService,
			service.NewAssignmentService,
			service.NewNotificationService,
			service.NewMetricService,
			service.NewTeacherService,
			service.NewReportService,
			service.NewExportService,
			service.NewPreviewService,
		),

		fx.Provide(
			account.NewAccountController,
			teacher.NewTeacherController,
			student.NewStudentController,
			func(db *gorm.DB) (system.DBPinger, error) { return db.DB() },
			system.NewSystemController,
			ws.NewHandler,
		),

		fx.Invoke(
			logger.Init,
			validation.Register,
			AutoMigrateDB,
			func(*service.QuestionWorker) {},
			RegisterRoutesAndStartServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Application stop failed")
	}
}

type routeParams struct {
	fx.In

	Engine   *gin.Engine
	Config   *config.Config
	Verifier middleware.TokenVerifier
	Account  *account.AccountController
	Teacher  *teacher.TeacherController
	Student  *student.StudentController
	System   *system.SystemController
	Realtime *ws.Handler
}

// RegisterRoutesAndStartServer mounts the API and ties the HTTP server to the fx lifecycle.
func RegisterRoutesAndStartServer(lc fx.Lifecycle, p routeParams) {
	router.Register(p.Engine, p.Config, p.Verifier, router.Handlers{
		Account:  p.Account,
		Teacher:  p.Teacher,
		Student:  p.Student,
		System:   p.System,
		Realtime: p.Realtime,
	})

	server := &http.Server{
		Addr:              ":" + p.Config.Server.Port,
		Handler:           p.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Tutor API server starting on port %s", p.Config.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", p.Config.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Reading{},
		&model.Assignment{},
		&model.Metric{},
		&model.Notification{},
		&model.TeacherProfile{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

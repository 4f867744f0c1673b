package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/elimusoft/cbc-admin-api/api/swagger"
	"github.com/elimusoft/cbc-admin-api/internal/handler"
	"github.com/elimusoft/cbc-admin-api/internal/middleware"
	"github.com/elimusoft/cbc-admin-api/internal/models"
	"github.com/elimusoft/cbc-admin-api/internal/repository"
	"github.com/elimusoft/cbc-admin-api/internal/service"
	"github.com/elimusoft/cbc-admin-api/pkg/cache"
	"github.com/elimusoft/cbc-admin-api/pkg/config"
	"github.com/elimusoft/cbc-admin-api/pkg/database"
	"github.com/elimusoft/cbc-admin-api/pkg/jobs"
	"github.com/elimusoft/cbc-admin-api/pkg/logger"
	corsmiddleware "github.com/elimusoft/cbc-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/elimusoft/cbc-admin-api/pkg/middleware/requestid"
	"github.com/elimusoft/cbc-admin-api/pkg/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// @title CBC Admin API
// @version 1.0.0
// @description School administration backend for CBC primary schools
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	fileStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	urlSigner := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	learnerRepo := repository.NewLearnerRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	parentRepo := repository.NewParentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "cbc-admin-api",
	})
	learnerSvc := service.NewLearnerService(learnerRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	parentSvc := service.NewParentService(parentRepo, cacheRepo, validate, logr, service.ParentConfig{
		DefaultCountryCode: cfg.Notifications.DefaultCountryCode,
		ContactCacheTTL:    cfg.Notifications.ContactCacheTTL,
		RefreshDebounce:    cfg.Notifications.RefreshDebounce,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, learnerRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, userRepo, validate, logr)
	transferSvc := service.NewTransferService(transferRepo, learnerRepo, userRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, fileStore, urlSigner, userRepo, logr, service.DocumentConfig{
		MaxFileSizeBytes: cfg.Documents.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Documents.AllowedMIMEs,
	})
	timetableSvc := service.NewTimetableService(timetableRepo, teacherRepo, validate, logr)
	reportSvc := service.NewReportService(attendanceSvc, assessmentSvc, cacheRepo, logr, cfg.Reports.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Announcement fan-out queue. The notification service owns the handler,
	// so the queue is built in two steps.
	var notificationSvc *service.NotificationService
	deliveryQueue := jobs.NewQueue("announcements", func(ctx context.Context, job jobs.Job) error {
		metricsSvc.CountAnnouncementDelivery()
		return notificationSvc.DeliveryHandler()(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		Logger:     logr,
	})
	notificationSvc = service.NewNotificationService(announcementRepo, parentRepo, deliveryQueue,
		parentSvc.NormalizePhone, validate, logr)
	deliveryQueue.Start(ctx)
	defer deliveryQueue.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	learnerHandler := handler.NewLearnerHandler(learnerSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	parentHandler := handler.NewParentHandler(parentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, reportSvc, metricsSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, reportSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	// Signed token downloads authenticate via the token itself.
	api.GET("/documents/download", documentHandler.Download)

	protected := api.Group("", middleware.JWT(authSvc))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	learners := protected.Group("/learners")
	{
		learners.GET("", learnerHandler.List)
		learners.GET("/export", learnerHandler.Export)
		learners.GET("/:id", learnerHandler.Get)
		learners.POST("", adminOnly, learnerHandler.Create)
		learners.PUT("/:id", adminOnly, learnerHandler.Update)
		learners.DELETE("/:id", adminOnly, learnerHandler.Delete)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", adminOnly, teacherHandler.Create)
		teachers.PUT("/:id", adminOnly, teacherHandler.Update)
		teachers.DELETE("/:id", adminOnly, teacherHandler.Delete)
	}

	parents := protected.Group("/parents")
	{
		parents.GET("", parentHandler.List)
		parents.GET("/contact-summary", parentHandler.ContactSummary)
		parents.GET("/:id", parentHandler.Get)
		parents.GET("/:id/whatsapp", parentHandler.WhatsAppLink)
		parents.POST("", adminOnly, parentHandler.Create)
		parents.PUT("/:id", adminOnly, parentHandler.Update)
		parents.DELETE("/:id", adminOnly, parentHandler.Delete)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.POST("", attendanceHandler.Mark)
		attendance.POST("/bulk", attendanceHandler.BulkMark)
		attendance.GET("", attendanceHandler.List)
		attendance.GET("/day-report", attendanceHandler.DayReport)
		attendance.GET("/stats", attendanceHandler.Stats)
	}

	assessments := protected.Group("/assessments")
	{
		assessments.POST("", assessmentHandler.SaveSheet)
		assessments.POST("/finalize", assessmentHandler.Finalize)
		assessments.GET("/:learnerId", assessmentHandler.GetSheet)
		assessments.GET("/:learnerId/history", assessmentHandler.History)
	}

	transfers := protected.Group("/transfers")
	{
		transfers.GET("", transferHandler.List)
		transfers.GET("/stats", transferHandler.Stats)
		transfers.GET("/:id", transferHandler.Get)
		transfers.POST("", transferHandler.Create)
		transfers.POST("/:id/review", adminOnly, transferHandler.Review)
	}

	documents := protected.Group("/documents")
	{
		documents.GET("", documentHandler.List)
		documents.GET("/:id", documentHandler.Get)
		documents.POST("", adminOnly, documentHandler.Upload)
		documents.DELETE("/:id", adminOnly, documentHandler.Delete)
	}

	announcements := protected.Group("/announcements")
	{
		announcements.GET("", notificationHandler.List)
		announcements.GET("/:id", notificationHandler.Get)
		announcements.POST("", adminOnly, notificationHandler.Announce)
	}
	protected.POST("/notifications/whatsapp-test", notificationHandler.TestWhatsApp)
	protected.POST("/notifications/assessment", adminOnly, notificationHandler.NotifyAssessment)

	timetable := protected.Group("/timetable")
	{
		timetable.GET("", timetableHandler.List)
		timetable.POST("", adminOnly, timetableHandler.Create)
		timetable.PUT("/:id", adminOnly, timetableHandler.Update)
		timetable.DELETE("/:id", adminOnly, timetableHandler.Delete)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/attendance", reportHandler.AttendanceSummary)
		reports.GET("/attendance/export", reportHandler.ExportDayReport)
		reports.GET("/report-card/:learnerId", reportHandler.ExportReportCard)
		reports.GET("/ratings", reportHandler.RatingDistribution)
		reports.GET("/ratings/export", reportHandler.ExportRatingDistribution)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

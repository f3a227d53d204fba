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
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ecolenet/remplacement-api/api/swagger"
	"github.com/ecolenet/remplacement-api/internal/handler"
	"github.com/ecolenet/remplacement-api/internal/middleware"
	"github.com/ecolenet/remplacement-api/internal/repository"
	"github.com/ecolenet/remplacement-api/internal/service"
	"github.com/ecolenet/remplacement-api/pkg/cache"
	"github.com/ecolenet/remplacement-api/pkg/config"
	"github.com/ecolenet/remplacement-api/pkg/database"
	"github.com/ecolenet/remplacement-api/pkg/lock"
	"github.com/ecolenet/remplacement-api/pkg/logger"
	corsmiddleware "github.com/ecolenet/remplacement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ecolenet/remplacement-api/pkg/middleware/requestid"
)

// @title Remplacement API
// @version 1.0.0
// @description Substitute dispatch for school networks
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

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and locking degraded", "error", err)
	} else {
		redisClient = client
	}

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	vacationRepo := repository.NewVacationRepository(db)
	collaboratorRepo := repository.NewCollaboratorRepository(db)
	substituteRepo := repository.NewSubstituteRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var locker lock.Locker = lock.NopLocker{}
	if redisClient != nil {
		locker = lock.NewRedisLock(redisClient)
	}

	// Services
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	schoolSvc := service.NewSchoolService(schoolRepo, vacationRepo, validate, logr)
	substituteSvc := service.NewSubstituteService(substituteRepo, availabilityRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(substituteSvc, availabilityRepo, assignmentRepo, vacationRepo, logr)
	absenceSvc := service.NewAbsenceService(absenceRepo, collaboratorRepo, assignmentRepo, vacationRepo,
		cacheRepo, metricsSvc, validate, logr, service.AbsenceBoardConfig{
			CacheTTL:             cfg.Board.CacheTTL,
			DefaultWindow:        cfg.Board.DefaultWindow,
			DefaultPageSize:      cfg.Board.DefaultPageSize,
			DefaultThresholdDays: cfg.Urgency.DefaultThresholdDays,
		})
	assignmentSvc := service.NewAssignmentService(assignmentRepo, absenceRepo, substituteSvc,
		cacheRepo, locker, validate, logr, cfg.Assignments.LockTTL)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	schoolHandler := handler.NewSchoolHandler(schoolSvc)
	substituteHandler := handler.NewSubstituteHandler(substituteSvc, availabilitySvc)
	absenceHandler := handler.NewAbsenceHandler(absenceSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/schools", schoolHandler.List)
		protected.POST("/schools", schoolHandler.Create)
		protected.GET("/schools/:id", schoolHandler.Get)
		protected.PUT("/schools/:id/deadline", schoolHandler.UpdateDeadline)
		protected.POST("/schools/:id/vacations", schoolHandler.AddVacation)

		protected.GET("/substitutes", substituteHandler.List)
		protected.POST("/substitutes", substituteHandler.Create)
		protected.GET("/substitutes/:id", substituteHandler.Get)
		protected.PUT("/substitutes/:id", substituteHandler.Update)
		protected.GET("/substitutes/:id/calendar", substituteHandler.Calendar)
		protected.GET("/substitutes/:id/recurring-periods", substituteHandler.ListRecurring)
		protected.PUT("/substitutes/:id/recurring-periods", substituteHandler.SetRecurring)
		protected.POST("/substitutes/:id/overrides", substituteHandler.AddOverride)
		protected.DELETE("/substitutes/:id/overrides/:overrideId", substituteHandler.DeleteOverride)

		protected.POST("/absences", absenceHandler.Create)
		protected.GET("/absences/board", absenceHandler.Board)
		protected.GET("/absences/board/export", absenceHandler.Export)
		protected.GET("/absences/:id/coverage", absenceHandler.Coverage)

		protected.POST("/assignments", assignmentHandler.Create)
		protected.DELETE("/assignments/:id", assignmentHandler.Delete)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notifications.Enabled {
		notifier := service.NewNotificationService(absenceSvc, service.LogTransport{Logger: logr}, logr, service.NotificationConfig{
			Interval: cfg.Notifications.Interval,
			Workers:  cfg.Notifications.Workers,
		})
		go notifier.Run(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

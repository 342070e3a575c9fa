package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/neuroread/neuroread-api/api/swagger"
	"github.com/neuroread/neuroread-api/internal/handler"
	"github.com/neuroread/neuroread-api/internal/middleware"
	"github.com/neuroread/neuroread-api/internal/repository"
	"github.com/neuroread/neuroread-api/internal/service"
	"github.com/neuroread/neuroread-api/pkg/cache"
	"github.com/neuroread/neuroread-api/pkg/config"
	"github.com/neuroread/neuroread-api/pkg/database"
	"github.com/neuroread/neuroread-api/pkg/logger"
	"github.com/neuroread/neuroread-api/pkg/messaging"
	corsmiddleware "github.com/neuroread/neuroread-api/pkg/middleware/cors"
	reqidmiddleware "github.com/neuroread/neuroread-api/pkg/middleware/requestid"
	"github.com/neuroread/neuroread-api/pkg/prediction"
	"github.com/neuroread/neuroread-api/pkg/storage"
)

// @title NeuroRead API
// @version 1.0.0
// @description Handwriting submission, dyslexia-risk scoring and community feed
// @BasePath /api
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, feed cache disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to object storage", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	diagnosisRepo := repository.NewDiagnosisRepository(db)
	postRepo := repository.NewPostRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
	})
	predictor := prediction.NewClient(cfg.Prediction)
	submissionSvc := service.NewSubmissionService(studentRepo, diagnosisRepo, store, predictor, logr)
	diagnosisSvc := service.NewDiagnosisService(diagnosisRepo, logr)
	feedSvc := service.NewFeedService(postRepo, cacheRepo, store, logr, cfg.Feed.CacheTTL)
	notifySvc := service.NewNotifyService(messaging.NewTwilioClient(cfg.Messaging), logr)
	blurSvc := service.NewBlurService(logr)

	secureCookie := cfg.Env == config.EnvProduction
	authHandler := handler.NewAuthHandler(authSvc, cfg.Session.CookieName, secureCookie)
	dashboardHandler := handler.NewDashboardHandler(submissionSvc, diagnosisSvc, metricsSvc)
	historyHandler := handler.NewHistoryHandler(diagnosisSvc)
	resultsHandler := handler.NewResultsHandler(diagnosisSvc)
	postHandler := handler.NewPostHandler(feedSvc, metricsSvc)
	notifyHandler := handler.NewNotifyHandler(notifySvc)
	blurHandler := handler.NewBlurHandler(blurSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireSession := middleware.Session(authSvc, cfg.Session.CookieName)
	optionalSession := middleware.OptionalSession(authSvc, cfg.Session.CookieName)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.GET("/cookies", optionalSession, authHandler.Cookies)
		auth.DELETE("/cookies", authHandler.Logout)

		api.GET("/dashboard", requireSession, dashboardHandler.List)
		api.POST("/dashboard", requireSession, dashboardHandler.Submit)
		api.POST("/check-blur", requireSession, blurHandler.Check)
		api.POST("/results", requireSession, resultsHandler.Fetch)
		api.GET("/history", requireSession, historyHandler.List)
		api.GET("/history/export", requireSession, historyHandler.Export)

		api.GET("/posts", postHandler.List)
		api.POST("/posts", requireSession, postHandler.Mutate)

		api.POST("/whatsapp", requireSession, notifyHandler.Send)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

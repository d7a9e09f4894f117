package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/somang-dev/classcoin-api/api/swagger"
	"github.com/somang-dev/classcoin-api/internal/handler"
	"github.com/somang-dev/classcoin-api/internal/middleware"
	"github.com/somang-dev/classcoin-api/internal/models"
	"github.com/somang-dev/classcoin-api/internal/repository"
	"github.com/somang-dev/classcoin-api/internal/service"
	"github.com/somang-dev/classcoin-api/pkg/cache"
	"github.com/somang-dev/classcoin-api/pkg/config"
	"github.com/somang-dev/classcoin-api/pkg/database"
	"github.com/somang-dev/classcoin-api/pkg/logger"
	corsmiddleware "github.com/somang-dev/classcoin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/somang-dev/classcoin-api/pkg/middleware/requestid"
	"github.com/somang-dev/classcoin-api/pkg/neis"
)

// @title ClassCoin API
// @version 1.0.0
// @description Classroom mission and coin economy engine
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var characterCache *service.CharacterCache
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, character cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			characterCache = service.NewCharacterCache(cacheRepo, metrics, cfg.Cache.CharacterTTL, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	missionRepo := repository.NewMissionRepository(db)
	logRepo := repository.NewMissionLogRepository(db)
	dailyRepo := repository.NewClassDailyRepository(db)
	counterRepo := repository.NewStudentMissionRepository(db)

	validate := validator.New()
	neisClient := neis.NewClient(cfg.Neis, logr)

	authSvc := service.NewAuthService(userRepo, classRepo, neisClient, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(missionRepo, userRepo, classRepo, validate, logr)
	missionSvc := service.NewMissionService(userRepo, missionRepo, classRepo, logRepo, dailyRepo,
		counterRepo, db, characterCache, metrics, validate, logr)
	classSvc := service.NewClassService(userRepo, classRepo, characterCache, metrics, validate, logr)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := catalogSvc.SeedDefaults(seedCtx); err != nil {
		logr.Sugar().Fatalw("failed to seed mission catalog", "error", err)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	missionHandler := handler.NewMissionHandler(missionSvc, catalogSvc)
	classHandler := handler.NewClassHandler(classSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	users := api.Group("/users")
	{
		users.GET("/check-id", authHandler.CheckUserID)
		users.GET("/profile", middleware.JWT(authSvc), authHandler.Profile)
	}

	missions := api.Group("/missions", middleware.JWT(authSvc))
	{
		missions.POST("/complete", middleware.RequireRoles(models.RoleStudent), missionHandler.Submit)
		missions.GET("/daily", missionHandler.Daily)
		missions.GET("/emergency", missionHandler.ListEmergency)
		missions.POST("/emergency", middleware.RequireRoles(models.RoleTeacher), missionHandler.CreateEmergency)
		missions.GET("/pending", middleware.RequireRoles(models.RoleTeacher), missionHandler.ListPending)
		missions.POST("/:logId/review", middleware.RequireRoles(models.RoleTeacher), missionHandler.Review)
	}

	classes := api.Group("/classes", middleware.JWT(authSvc))
	{
		classes.GET("/character", classHandler.Character)
		classes.PATCH("/coin", middleware.RequireRoles(models.RoleTeacher), classHandler.IncrementCoin)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

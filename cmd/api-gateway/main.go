package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 0.1.0
// @description Weekly timetable service with an atomic recommendation apply engine
// @BasePath /
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

	var cacheRepo service.CacheRepository
	if cfg.Timetable.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, cfg.Timetable.CacheEnabled)

	assignmentRepo := repository.NewAssignmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	constraintSvc := service.NewConstraintService(assignmentRepo, offeringRepo, slotRepo, roomRepo, teacherRepo, availabilityRepo, logr)
	recommendationSvc := service.NewRecommendationService(
		assignmentRepo,
		constraintSvc,
		db,
		cacheSvc,
		metricsSvc,
		validate,
		logr,
		service.RecommendationConfig{MaxSwaps: cfg.Engine.MaxSwapsPerRecommendation},
	)
	timetableSvc := service.NewTimetableService(timetableRepo, sectionRepo, cacheSvc, cfg.Timetable.ExportTitle, logr)
	catalogSvc := service.NewCatalogService(teacherRepo, roomRepo, slotRepo, courseRepo, sectionRepo, offeringRepo, assignmentRepo, availabilityRepo)

	recommendationHandler := handler.NewRecommendationHandler(recommendationSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/recommendations/apply", recommendationHandler.Apply)

		api.GET("/timetable/sections/:id", timetableHandler.Section)
		api.GET("/timetable/sections/:id/export", timetableHandler.ExportSection)
		api.GET("/timetable/teachers/:id", timetableHandler.Teacher)
		api.GET("/timetable/rooms/:id", timetableHandler.Room)

		api.GET("/teachers", catalogHandler.ListTeachers)
		api.GET("/teachers/:id/availability", catalogHandler.TeacherAvailability)
		api.GET("/rooms", catalogHandler.ListRooms)
		api.GET("/slots", catalogHandler.ListSlots)
		api.GET("/courses", catalogHandler.ListCourses)
		api.GET("/sections", catalogHandler.ListSections)
		api.GET("/offerings", catalogHandler.ListOfferings)
		api.GET("/offerings/:id/assignments", catalogHandler.OfferingAssignments)
		api.PUT("/offerings/:id/assignments/:kind/lock", catalogHandler.SetAssignmentLock)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

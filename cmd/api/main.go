package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/VictorTavaresRafael/Kimono-flow-tracker/api/swagger"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/handler"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/middleware"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/repository"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/cache"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/config"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/database"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/logger"
	corsmiddleware "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/middleware/requestid"
)

// @title Kimono Flow Tracker API
// @version 0.1.0
// @description Gym attendance and roster management
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

	// The server boots even when Postgres is down: roster reads and writes
	// then degrade to the local JSON store.
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Warn("postgres unreachable, starting degraded", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	localStore, err := repository.NewLocalRosterStore(cfg.Fallback.Dir)
	if err != nil {
		logr.Fatal("failed to open local roster store", zap.Error(err))
	}
	rosterRepo := repository.NewFallbackRosterRepository(studentRepo, localStore, logr)
	turmaRepo := repository.NewTurmaRepository(db)
	aulaRepo := repository.NewAulaRepository(db)
	presencaRepo := repository.NewPresencaRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	identitySvc := service.NewIdentityService(userRepo, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	rosterSvc := service.NewRosterService(rosterRepo, cacheRepo, cfg.Roster.CacheTTL, validate, logr)
	sessionSvc := service.NewSessionService(turmaRepo, aulaRepo, userRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(presencaRepo, aulaRepo, turmaRepo, identitySvc, localStore, logr)
	reportSvc := service.NewReportService(turmaRepo, presencaRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	usuarioHandler := handler.NewUsuarioHandler(identitySvc)
	studentHandler := handler.NewStudentHandler(rosterSvc, attendanceSvc, metricsSvc)
	turmaHandler := handler.NewTurmaHandler(sessionSvc)
	aulaHandler := handler.NewAulaHandler(sessionSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "degraded", "roster": "fallback"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// Public check-in flows: students identify themselves by RA alone.
	api.GET("/aulas/token/:token", aulaHandler.GetByToken)
	api.POST("/attendance/qr", attendanceHandler.RecordQR)
	api.POST("/attendance/self", attendanceHandler.RecordSelf)
	api.GET("/attendance/turmas", attendanceHandler.ListTurmas)

	staff := middleware.RequireRoles(models.RoleProfessor, models.RoleMonitor)
	staffOrSelf := middleware.RBAC(string(models.RoleProfessor), string(models.RoleMonitor), "SELF")

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/usuarios", staff, usuarioHandler.List)
		protected.GET("/usuarios/:ra", staff, usuarioHandler.Get)

		protected.GET("/students", staff, studentHandler.List)
		protected.GET("/students/:ra", staffOrSelf, studentHandler.Get)
		protected.PUT("/students/:ra", staff, studentHandler.Upsert)
		protected.GET("/students/:ra/presencas", staffOrSelf, studentHandler.Presencas)

		protected.POST("/turmas", middleware.RequireRoles(models.RoleProfessor), turmaHandler.Create)
		protected.GET("/turmas", turmaHandler.List)
		protected.GET("/turmas/:id/aulas", staff, turmaHandler.ListAulas)
		protected.POST("/turmas/:id/aulas", staff, turmaHandler.CreateAula)
		protected.POST("/turmas/:id/alunos", middleware.RequireRoles(models.RoleProfessor), turmaHandler.AddAluno)
		if cfg.Reports.Enabled {
			protected.GET("/turmas/:id/report", staff, reportHandler.TurmaReport)
		}

		protected.POST("/presencas", staff, attendanceHandler.Record)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/labtrack/internal/config"
	intakeentity "github.com/bitfantasy/labtrack/internal/intake/entity"
	intakehandler "github.com/bitfantasy/labtrack/internal/intake/handler"
	intakerepo "github.com/bitfantasy/labtrack/internal/intake/repository"
	intakesvc "github.com/bitfantasy/labtrack/internal/intake/service"
	"github.com/bitfantasy/labtrack/internal/lab/entity"
	"github.com/bitfantasy/labtrack/internal/lab/handler"
	"github.com/bitfantasy/labtrack/internal/lab/repository"
	"github.com/bitfantasy/labtrack/internal/lab/service"
	"github.com/bitfantasy/labtrack/internal/lab/sse"
	"github.com/bitfantasy/labtrack/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting labtrack service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 迁移数据表
	if err := db.AutoMigrate(
		&entity.LabRequest{},
		&entity.LabRequestProgress{},
		&entity.LabSchedule{},
		&entity.LabRequestStatusLog{},
		&entity.LabRequestAssignment{},
		&entity.LabDocument{},
		&entity.LabQuote{},
		&entity.LabStatusEvent{},
		&intakeentity.CalibrationRequest{},
		&intakeentity.CalibrationProductDetails{},
		&intakeentity.CalibrationLabSelection{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// 流水表按委托单ID查询的索引
	migrationSQL := []string{
		"CREATE INDEX IF NOT EXISTS idx_lab_request_progress_req ON lab_request_progress(lab_request_id)",
		"CREATE INDEX IF NOT EXISTS idx_lab_schedule_req ON lab_schedule(lab_request_id)",
		"CREATE INDEX IF NOT EXISTS idx_lab_request_status_logs_req ON lab_request_status_logs(lab_request_id)",
		"CREATE INDEX IF NOT EXISTS idx_lab_request_assignments_req ON lab_request_assignments(lab_request_id)",
		"CREATE INDEX IF NOT EXISTS idx_lab_status_events_pending ON lab_status_events(dispatch_status, created_at)",
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Index migration warning", zap.String("sql", sql), zap.Error(err))
		}
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化MinIO
	minioClient, err := initMinIO(cfg.MinIO)
	if err != nil {
		zapLogger.Warn("MinIO unavailable, document storage disabled", zap.Error(err))
	}

	// 仓库和服务
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, zapLogger, minioClient, cfg.MinIO.Bucket)

	calibrationRepo := intakerepo.NewCalibrationRepository(db)
	calibrationSvc := intakesvc.NewCalibrationService(calibrationRepo, services.LabRequest, zapLogger)

	// 状态同步调度器：校准模块作为发起方协作方
	syncSvc := service.NewSyncService(repos.Event, calibrationRepo, rdb, sse.GlobalHub, zapLogger)
	syncSvc.Configure(cfg.Sync.Interval, cfg.Sync.BatchSize)
	services.LabRequest.SetSyncService(syncSvc)

	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()
	go syncSvc.Run(syncCtx)

	handlers := handler.NewHandlers(services)
	calibrationHandler := intakehandler.NewCalibrationHandler(calibrationSvc)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, calibrationHandler, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	cancelSync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinIO(cfg config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, calH *intakehandler.CalibrationHandler, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// SSE 实时推送（需要认证，支持 query param token）
		sseGroup := v1.Group("/sse")
		sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			sseGroup.GET("/events", h.SSE.Stream)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 委托单
			labRequests := authorized.Group("/lab-requests")
			{
				labRequests.POST("", h.LabRequest.Create)
				labRequests.GET("", h.LabRequest.List)
				labRequests.GET("/export", h.LabRequest.Export)
				labRequests.GET("/:id/full", h.LabRequest.GetFull)
				labRequests.GET("/:id/timeline", h.LabRequest.Timeline)
				labRequests.PUT("/:id/status", h.LabRequest.UpdateStatus)
				labRequests.PUT("/:id/detailed-status", h.LabRequest.UpdateDetailedStatus)
				labRequests.POST("/:id/progress", h.LabRequest.AddProgress)
				labRequests.PUT("/:id/assign", h.LabRequest.AssignEngineer)
				labRequests.POST("/:id/schedule", h.LabRequest.CreateSchedule)

				// 报价
				labRequests.POST("/:id/quotes", h.Quote.Create)
				labRequests.PUT("/quotes/:quoteId/respond", h.Quote.Respond)

				// 文档
				labRequests.POST("/:id/documents", h.Document.Upload)
				labRequests.GET("/:id/documents", h.Document.List)
				labRequests.GET("/documents/:docId/download", h.Document.Download)
				labRequests.DELETE("/documents/:docId", h.Document.Delete)
			}

			// 校准申请单（发起方）
			calibrations := authorized.Group("/calibration-requests")
			{
				calibrations.POST("", calH.Create)
				calibrations.PUT("/:id/product-details", calH.SaveProductDetails)
				calibrations.POST("/:id/submit", calH.Submit)
				calibrations.GET("/:id/status", calH.Status)
			}
		}
	}
}

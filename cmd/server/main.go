package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/axiomacloud/prohub/internal/config"
	"github.com/axiomacloud/prohub/internal/middleware"
	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/handler"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/axiomacloud/prohub/internal/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
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
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting prohub service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Requisition{},
		&entity.RequisitionItem{},
		&entity.Attachment{},
		&entity.PurchaseOrder{},
		&entity.POItem{},
		&entity.Reception{},
		&entity.ReceptionItem{},
		&entity.RFQ{},
		&entity.RFQItem{},
		&entity.RFQSupplier{},
		&entity.Quotation{},
		&entity.QuotationItem{},
		&entity.Supplier{},
		&entity.SupplierContact{},
		&entity.ActivityLog{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	store, err := storage.New(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		zapLogger.Warn("Object storage unavailable, attachments disabled", zap.Error(err))
	}

	repos := repository.NewRepositories(db)
	tax := service.NewTaxPolicy(cfg.Procurement.TaxRatePercent)

	requisitionSvc := service.NewRequisitionService(repos, db, tax, zapLogger)
	poSvc := service.NewPOService(repos, db, tax, zapLogger)
	receptionSvc := service.NewReceptionService(repos, db, zapLogger)
	rfqSvc := service.NewRFQService(repos, db, tax, zapLogger)
	supplierSvc := service.NewSupplierService(repos, zapLogger)
	circuitSvc := service.NewCircuitService(repos, zapLogger)
	dashboardSvc := service.NewDashboardService(db)

	handlers := handler.NewHandlers(
		requisitionSvc, poSvc, receptionSvc, rfqSvc,
		supplierSvc, circuitSvc, dashboardSvc,
		repos.ActivityLog, store,
	)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg, rdb, zapLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

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
		Logger: logger.Default.LogMode(logger.Warn),
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
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config, rdb *redis.Client, zapLogger *zap.Logger) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	authorized.Use(middleware.TenantScope())
	authorized.Use(middleware.Idempotency(rdb, zapLogger))
	{
		authorized.GET("/dashboard", h.Dashboard.Overview)
		authorized.GET("/activity", h.Activity.List)

		requisitions := authorized.Group("/requisitions")
		{
			requisitions.GET("", h.Requisition.List)
			requisitions.POST("", h.Requisition.Create)
			requisitions.GET("/:id", h.Requisition.Get)
			requisitions.PUT("/:id", h.Requisition.Update)
			requisitions.POST("/:id/submit", h.Requisition.Submit)
			requisitions.POST("/:id/approve", h.Requisition.Approve)
			requisitions.POST("/:id/reject", h.Requisition.Reject)
			requisitions.POST("/:id/cancel", h.Requisition.Cancel)
			requisitions.GET("/:id/circuit", h.Circuit.FromRequisition)
			requisitions.POST("/:id/attachments", h.Requisition.UploadAttachment)
			requisitions.GET("/:id/attachments/:attachment_id/download", h.Requisition.DownloadAttachment)
			requisitions.POST("/:id/attachments/:attachment_id/decide", h.Requisition.DecideAttachment)
		}

		pos := authorized.Group("/purchase-orders")
		{
			pos.GET("", h.PO.List)
			pos.POST("", h.PO.Create)
			pos.GET("/export", h.PO.Export)
			pos.GET("/:id", h.PO.Get)
			pos.POST("/:id/approve", h.PO.Approve)
			pos.POST("/:id/reject", h.PO.Reject)
			pos.PUT("/:id/status", h.PO.UpdateStatus)
			pos.POST("/:id/cancel", h.PO.Cancel)
			pos.GET("/:id/circuit", h.Circuit.FromPO)
			pos.GET("/:id/receptions", h.Reception.ListByPO)
			pos.POST("/:id/receptions", h.Reception.Record)
		}

		receptions := authorized.Group("/receptions")
		{
			receptions.GET("", h.Reception.List)
			receptions.GET("/:id", h.Reception.Get)
			receptions.GET("/:id/circuit", h.Circuit.FromReception)
		}

		rfqs := authorized.Group("/rfqs")
		{
			rfqs.GET("", h.RFQ.List)
			rfqs.POST("", h.RFQ.Create)
			rfqs.POST("/expire-overdue", h.RFQ.ExpireOverdue)
			rfqs.GET("/:id", h.RFQ.Get)
			rfqs.POST("/:id/publish", h.RFQ.Publish)
			rfqs.POST("/:id/close", h.RFQ.Close)
			rfqs.GET("/:id/comparison", h.RFQ.Compare)
			rfqs.POST("/:id/award", h.RFQ.Award)
			rfqs.POST("/:id/generate-po", h.RFQ.GeneratePO)
			rfqs.POST("/:id/cancel", h.RFQ.Cancel)
			rfqs.POST("/:id/quotations", h.RFQ.SubmitQuotation)
			rfqs.POST("/:id/suppliers/:supplier_id/viewed", h.RFQ.MarkViewed)
			rfqs.POST("/:id/suppliers/:supplier_id/decline", h.RFQ.Decline)
		}

		suppliers := authorized.Group("/suppliers")
		{
			suppliers.GET("", h.Supplier.List)
			suppliers.POST("/invite", h.Supplier.Invite)
			suppliers.GET("/:id", h.Supplier.Get)
			suppliers.PUT("/:id/profile", h.Supplier.UpdateProfile)
			suppliers.POST("/:id/submit", h.Supplier.SubmitForApproval)
			suppliers.POST("/:id/approve", h.Supplier.Approve)
			suppliers.POST("/:id/reject", h.Supplier.Reject)
			suppliers.POST("/:id/suspend", h.Supplier.Suspend)
			suppliers.POST("/:id/reactivate", h.Supplier.Reactivate)
			suppliers.GET("/:id/contacts", h.Supplier.ListContacts)
			suppliers.POST("/:id/contacts", h.Supplier.AddContact)
			suppliers.DELETE("/:id/contacts/:contact_id", h.Supplier.RemoveContact)
		}
	}
}

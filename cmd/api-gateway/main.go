package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/gapt-portal/gapt-api/api/swagger"
	"github.com/gapt-portal/gapt-api/internal/handler"
	"github.com/gapt-portal/gapt-api/internal/middleware"
	"github.com/gapt-portal/gapt-api/internal/models"
	"github.com/gapt-portal/gapt-api/internal/repository"
	"github.com/gapt-portal/gapt-api/internal/service"
	"github.com/gapt-portal/gapt-api/pkg/cache"
	"github.com/gapt-portal/gapt-api/pkg/config"
	"github.com/gapt-portal/gapt-api/pkg/database"
	"github.com/gapt-portal/gapt-api/pkg/export"
	"github.com/gapt-portal/gapt-api/pkg/logger"
	corsmiddleware "github.com/gapt-portal/gapt-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gapt-portal/gapt-api/pkg/middleware/requestid"
)

// @title GAPT Portal API
// @version 1.0.0
// @description Governance, provisioning and academic analytics for the institution portal
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	markRepo := repository.NewMarkRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	systemRepo := repository.NewSystemRepository(db)
	adviceCache := repository.NewAdviceCacheRepository(redisClient, cfg.Advisor.CacheTTL)

	metricsSvc := service.NewMetricsService()
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, cfg.Notifier, logr)
	permissionSvc := service.NewPermissionService(permissionRepo, logr)
	identitySvc := service.NewIdentityService(userRepo, sequenceRepo, cfg.Identity, validate, logr)
	approvalSvc := service.NewApprovalService(userRepo, requestRepo, notificationSvc, logr)
	scoringSvc := service.NewScoringService(markRepo, logr)
	advisorSvc := service.NewAdvisorService(cfg.Advisor, adviceCache, logr)
	authSvc := service.NewAuthService(userRepo, notificationSvc, validate, logr, cfg.JWT)
	registrySvc := service.NewRegistryService(userRepo, systemRepo, logr)
	markSvc := service.NewMarkService(markRepo, approvalSvc, validate, logr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bootstrap(ctx, cfg.Identity, userRepo, permissionSvc); err != nil {
		logr.Fatal("failed to bootstrap governance state", zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, approvalSvc),
		Permissions:   handler.NewPermissionHandler(permissionSvc),
		Identities:    handler.NewIdentityHandler(identitySvc),
		Approvals:     handler.NewApprovalHandler(approvalSvc, registrySvc, metricsSvc),
		Users:         handler.NewUserHandler(registrySvc, export.NewCSVExporter()),
		Students:      handler.NewStudentHandler(scoringSvc, advisorSvc, registrySvc, export.NewPDFExporter()),
		Marks:         handler.NewMarkHandler(markSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		System:        handler.NewSystemHandler(registrySvc),
	}
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, authSvc, permissionSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

// bootstrap seeds the permission matrix and the designated administrator
// account on first start. Both are idempotent.
func bootstrap(ctx context.Context, cfg config.IdentityConfig, users *repository.UserRepository, permissions *service.PermissionService) error {
	if err := permissions.Seed(ctx); err != nil {
		return err
	}

	if cfg.AdminEmail == "" {
		return nil
	}
	if _, err := users.FindByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminCredential), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        cfg.AdminEmail,
		FullName:     cfg.AdminName,
		Credential:   cfg.AdminCredential,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.StatusApproved,
		RevealStatus: models.RevealNone,
	}
	return users.Create(ctx, admin)
}

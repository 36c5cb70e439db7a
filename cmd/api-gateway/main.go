package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/institute-registry-api/internal/handler"
	"github.com/noah-isme/institute-registry-api/internal/repository"
	"github.com/noah-isme/institute-registry-api/internal/service"
	"github.com/noah-isme/institute-registry-api/pkg/cache"
	"github.com/noah-isme/institute-registry-api/pkg/config"
	"github.com/noah-isme/institute-registry-api/pkg/database"
	"github.com/noah-isme/institute-registry-api/pkg/export"
	"github.com/noah-isme/institute-registry-api/pkg/logger"
	"github.com/noah-isme/institute-registry-api/pkg/storage"
)

// @title Institute Registry API
// @version 1.0.0
// @description Staff backend for client registration, diploma enrollment, reporting and certificates
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("catalog cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			checks["redis"] = redisRepo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cacheRepo != nil)

	assets, err := storage.NewAssetStore(cfg.Certificates.AssetDir)
	if err != nil {
		return fmt.Errorf("certificate assets: %w", err)
	}

	deps := buildDependencies(cfg, db, cacheSvc, metrics, assets, logr)
	deps.readiness = handler.NewMetricsHandler(metrics, checks, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, deps, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logr.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type dependencies struct {
	users        *repository.UserRepository
	auth         *service.AuthService
	authHandler  *handler.AuthHandler
	userHandler  *handler.UserHandler
	clients      *handler.ClientHandler
	enrollments  *handler.EnrollmentHandler
	certificates *handler.CertificateHandler
	diplomas     *handler.DiplomaHandler
	institutes   *handler.InstituteHandler
	reports      *handler.ReportHandler
	readiness    *handler.MetricsHandler
	metrics      *service.MetricsService
	assetDir     string
}

func buildDependencies(cfg *config.Config, db *sqlx.DB, cacheSvc *service.CacheService, metrics *service.MetricsService, assets *storage.AssetStore, logr *zap.Logger) *dependencies {
	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	diplomaRepo := repository.NewDiplomaRepository(db)
	instituteRepo := repository.NewInstituteRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "institute-registry-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	clientSvc := service.NewClientService(clientRepo, enrollmentRepo, metrics, validate, logr)
	diplomaSvc := service.NewDiplomaService(diplomaRepo, cacheSvc, cfg.Catalog.CacheTTL, validate, logr)
	instituteSvc := service.NewInstituteService(instituteRepo, cacheSvc, cfg.Catalog.CacheTTL, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, clientRepo, diplomaRepo, instituteRepo, clientSvc, metrics, validate, logr)
	reportSvc := service.NewReportService(enrollmentRepo, metrics, logr)
	exportSvc := service.NewExportService(reportSvc,
		export.NewCSVExporter(true),
		export.NewPDFExporter(cfg.Certificates.FontPath),
		service.ExportConfig{MaxRows: cfg.Reports.ExportMaxRows, PDFTitle: cfg.Reports.PDFTitle},
		logr)
	certificateSvc := service.NewCertificateService(enrollmentRepo, clientRepo, diplomaRepo, assets,
		export.NewCertificateRenderer(cfg.Certificates.FontPath),
		service.CertificateConfig{BaseURL: cfg.Certificates.BaseURL, StaticPrefix: cfg.Certificates.StaticPrefix},
		logr)

	return &dependencies{
		users:        userRepo,
		auth:         authSvc,
		authHandler:  handler.NewAuthHandler(authSvc),
		userHandler:  handler.NewUserHandler(userSvc),
		clients:      handler.NewClientHandler(clientSvc, enrollmentSvc, reportSvc),
		enrollments:  handler.NewEnrollmentHandler(enrollmentSvc),
		certificates: handler.NewCertificateHandler(certificateSvc),
		diplomas:     handler.NewDiplomaHandler(diplomaSvc),
		institutes:   handler.NewInstituteHandler(instituteSvc),
		reports:      handler.NewReportHandler(reportSvc, exportSvc),
		metrics:      metrics,
		assetDir:     assets.Dir(),
	}
}

package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/institute-registry-api/api/swagger"
	"github.com/noah-isme/institute-registry-api/internal/middleware"
	"github.com/noah-isme/institute-registry-api/internal/models"
	"github.com/noah-isme/institute-registry-api/pkg/config"
	"github.com/noah-isme/institute-registry-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/institute-registry-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/institute-registry-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, deps *dependencies, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}))
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.readiness.Health)
	r.GET("/ready", deps.readiness.Ready)
	r.GET("/metrics", deps.readiness.Prometheus)
	r.Static(cfg.Certificates.StaticPrefix, deps.assetDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	adminsOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), middleware.Self)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", deps.authHandler.Login)
	auth.POST("/refresh", deps.authHandler.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))

	secured.POST("/auth/logout", deps.authHandler.Logout)
	secured.POST("/auth/change-password", deps.authHandler.ChangePassword)
	secured.GET("/auth/me", deps.authHandler.Me)

	users := secured.Group("/users")
	users.GET("", admins, deps.userHandler.List)
	users.POST("", admins, deps.userHandler.Create)
	users.GET("/:id", adminsOrSelf, deps.userHandler.Get)
	users.PUT("/:id", adminsOrSelf, deps.userHandler.Update)
	users.DELETE("/:id", admins, deps.userHandler.Delete)

	clients := secured.Group("/clients")
	clients.GET("", deps.clients.List)
	clients.POST("", deps.clients.Register)
	clients.GET("/:id", deps.clients.Get)
	clients.PUT("/:id", deps.clients.Update)
	clients.DELETE("/:id", admins, middleware.Audit(deps.users, logr, models.AuditActionClientDelete, "clients"), deps.clients.Delete)
	clients.POST("/:id/enrollments", deps.enrollments.Create)
	clients.GET("/:id/diplomas/:diplomaId/certificate", deps.certificates.Download)

	diplomas := secured.Group("/diplomas")
	diplomas.GET("", deps.diplomas.List)
	diplomas.GET("/:id", deps.diplomas.Get)
	diplomas.POST("", admins, deps.diplomas.Create)
	diplomas.PUT("/:id", admins, deps.diplomas.Update)
	diplomas.DELETE("/:id", admins, middleware.Audit(deps.users, logr, models.AuditActionDiplomaDelete, "diplomas"), deps.diplomas.Delete)

	institutes := secured.Group("/institutes")
	institutes.GET("", deps.institutes.List)
	institutes.GET("/:id", deps.institutes.Get)
	institutes.POST("", admins, deps.institutes.Create)
	institutes.PUT("/:id", admins, deps.institutes.Update)
	institutes.DELETE("/:id", admins, middleware.Audit(deps.users, logr, models.AuditActionInstituteDelete, "institutes"), deps.institutes.Delete)

	reports := secured.Group("/reports")
	reports.GET("/enrollments", deps.reports.Enrollments)
	reports.GET("/enrollments/export", deps.reports.Export)

	return r
}

package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/docvault/document-service/docs"
	"github.com/docvault/document-service/internal/api/handler"
	"github.com/docvault/document-service/internal/api/metrics"
	"github.com/docvault/document-service/internal/api/middleware"
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
	"github.com/docvault/document-service/internal/infrastructure/http/handlers"
)

// Deps carries everything the router needs. Registry may be nil, in which
// case the router creates its own.
type Deps struct {
	Log            zerolog.Logger
	Prefix         string
	Auth           ports.AuthService
	Categories     ports.CategoryService
	Documents      ports.DocumentService
	MaxUploadBytes int64
	Readiness      map[string]handlers.Checker
	Registry       *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(reg)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "docvault",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, m)
	categoryHandler := handler.NewCategoryHandler(d.Categories)
	documentHandler := handler.NewDocumentHandler(d.Documents, m, d.MaxUploadBytes)
	authMiddleware := middleware.Auth(d.Auth)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	api := e.Group(d.Prefix)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Readiness)
	api.GET("/health", healthHandler.Liveness)
	api.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/profile", authHandler.Profile, authMiddleware)
	auth.POST("/logout", authHandler.Logout, authMiddleware)
	auth.GET("/users", authHandler.ListUsers, authMiddleware, adminOnly)
	auth.DELETE("/users/:id", authHandler.DeleteUser, authMiddleware, adminOnly)

	// --- Category routes ---
	categories := api.Group("/categories", authMiddleware)
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create, adminOnly)
	categories.PUT("/:id", categoryHandler.Update, adminOnly)
	categories.DELETE("/:id", categoryHandler.Delete, adminOnly)
	categories.GET("/:id/documents", categoryHandler.Documents)

	// --- Document routes ---
	documents := api.Group("/documents", authMiddleware)
	documents.GET("", documentHandler.List)
	documents.POST("/upload", documentHandler.Upload)
	documents.GET("/stats", documentHandler.Stats)
	documents.GET("/:id", documentHandler.Get)
	documents.GET("/:id/download", documentHandler.Download)
	documents.GET("/:id/activity", documentHandler.Activity)
	documents.PUT("/:id", documentHandler.Update)
	documents.DELETE("/:id", documentHandler.Delete)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	return e
}

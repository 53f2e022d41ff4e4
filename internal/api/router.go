// Package api assembles the HTTP boundary: routing, middleware, and error
// translation.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	_ "github.com/usermgmt/user-management-api/docs"
	"github.com/usermgmt/user-management-api/internal/api/handler"
	"github.com/usermgmt/user-management-api/internal/api/middleware"
	"github.com/usermgmt/user-management-api/internal/core/ports"
)

// RouterConfig carries everything the router needs; all dependencies are
// built by the caller so the boundary stays free of wiring decisions.
type RouterConfig struct {
	Users   ports.UserService
	Tokens  ports.TokenManager
	Log     zerolog.Logger
	Pingers []handler.Pinger
	DevMode bool

	// Registry defaults to the process-wide Prometheus registerer; tests
	// inject a fresh one to avoid duplicate collector registration.
	Registry prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "usermgmt",
		Registerer: registry,
	}))

	// --- Handlers ---
	userHandler := handler.NewUserHandler(cfg.Users)
	authMiddleware := middleware.Auth(cfg.Tokens)

	// --- User routes ---
	users := e.Group("/api/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.GET("/protected", userHandler.Protected, authMiddleware)
	users.GET("/all", userHandler.ListAll, authMiddleware)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(cfg.Pingers...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – is the store reachable?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	if cfg.DevMode {
		e.GET("/swagger/*", echoswagger.WrapHandler)
	}

	return e
}

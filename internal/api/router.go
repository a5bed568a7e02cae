package api

import (
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/console-auth/internal/api/docs"
	"github.com/99minutos/console-auth/internal/api/handler"
	"github.com/99minutos/console-auth/internal/api/middleware"
	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
	"github.com/99minutos/console-auth/internal/pkg/metrics"
)

// Deps is everything the agent routes need.
type Deps struct {
	Store        handler.ActionStore
	AuthService  ports.AuthService
	Session      middleware.SessionReader
	Views        handler.ViewTracker
	Checks       map[string]handler.Check
	AwaitTimeout time.Duration
	Log          zerolog.Logger
}

// The echoprometheus collectors register on metrics.Registry, which rejects a
// second registration.
var (
	promOnce       sync.Once
	promMiddleware echo.MiddlewareFunc
)

func prometheusMiddleware() echo.MiddlewareFunc {
	promOnce.Do(func() {
		promMiddleware = echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "console_auth",
			Subsystem:  "agent",
			Registerer: metrics.Registry,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		})
	})
	return promMiddleware
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(prometheusMiddleware())

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Store, d.AuthService, d.Views, d.AwaitTimeout)
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/social/:provider", authHandler.SocialSignIn)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/state", authHandler.State)

	// --- Session routes ---
	requireSession := middleware.RequireSession(d.Session)
	auth.GET("/me", handler.Me, requireSession)
	auth.GET("/admin", handler.AdminCheck, requireSession, middleware.RequireRole(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: metrics.Registry}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

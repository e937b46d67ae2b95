package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/communityboard/board-system/docs"
	"github.com/communityboard/board-system/internal/api/handler"
	"github.com/communityboard/board-system/internal/api/middleware"
	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

// Deps is everything the router needs. Media may be nil, in which case the
// storage route is not mounted.
type Deps struct {
	Log            zerolog.Logger
	AnonKey        string
	ServiceRoleKey string

	Auth      ports.AuthService
	LostFound ports.RecordService[domain.LostFoundRecord, domain.LostFoundDraft, domain.LostFoundPatch]
	Jobs      ports.RecordService[domain.JobRecord, domain.JobDraft, domain.JobPatch]
	News      ports.RecordService[domain.NewsRecord, domain.NewsDraft, domain.NewsPatch]
	Media     ports.MediaStore

	Readiness map[string]handler.Pinger

	// Registerer and Gatherer back the HTTP metrics and /metrics. A private
	// registry is used when either is nil.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// @title                       Community Board API
// @version                     1.0
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        apikey
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	reg, gatherer := d.Registerer, d.Gatherer
	if reg == nil || gatherer == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "board",
		Registerer: reg,
	}))

	// --- Ops routes (no api key) ---
	health := handler.NewHealthHandler(d.Readiness)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	apiKey := middleware.APIKey(d.AnonKey, d.ServiceRoleKey)
	optionalAuth := middleware.Auth(d.Auth, false)
	requiredAuth := middleware.Auth(d.Auth, true)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/auth/v1", apiKey)
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/token", authHandler.Token)
	auth.GET("/user", authHandler.User, requiredAuth)
	auth.POST("/logout", authHandler.Logout, requiredAuth)
	auth.DELETE("/admin/users/:id", authHandler.AdminDeleteUser, middleware.RequireServiceRole())

	// --- Table routes ---
	rest := e.Group("/rest/v1", apiKey, optionalAuth)
	rest.POST("/rpc/delete_user", authHandler.DeleteSelf)

	handler.NewTableHandler(d.LostFound).Register(rest.Group("/" + string(domain.TableLostFound)))
	handler.NewTableHandler(d.Jobs).Register(rest.Group("/" + string(domain.TableJobs)))
	handler.NewTableHandler(d.News).Register(
		rest.Group("/"+string(domain.TableNews)),
		middleware.AdminWrites(),
	)

	// --- Storage ---
	if d.Media != nil {
		mediaHandler := handler.NewMediaHandler(d.Media)
		storage := e.Group("/storage/v1", apiKey, requiredAuth)
		storage.POST("/images", mediaHandler.Upload, echomiddleware.BodyLimit("6M"))
	}

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			role, _ := c.Get(middleware.KeyRole).(string)
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("role", role).
				Msg("request")
			return nil
		},
	})
}

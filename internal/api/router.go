package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tokenline/queue-display/internal/api/handler"
	"github.com/tokenline/queue-display/internal/api/middleware"
	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/ports"
	"github.com/tokenline/queue-display/internal/hub"
	"github.com/tokenline/queue-display/internal/syncer"
)

// Deps carries everything the router wires into handlers. Services are
// constructed in main so their lifecycles (announcer workers, synchronizer
// loop) outlive individual requests.
type Deps struct {
	Auth      ports.AuthService
	Queue     ports.QueueService
	Views     ports.ViewService
	Store     ports.StateStore
	Hub       *hub.Hub
	Syncer    *syncer.Synchronizer
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	queueHandler := handler.NewQueueHandler(deps.Queue)
	boardHandler := handler.NewBoardHandler(deps.Store, deps.Views, deps.Hub, deps.Syncer)
	authMW := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Token issuing (staff or kiosk) ---
	e.POST("/tokens", queueHandler.IssueToken, authMW, middleware.RBAC(domain.RoleStaff, domain.RoleKiosk))

	// --- Counter operations (staff only) ---
	staff := middleware.RBAC(domain.RoleStaff)
	e.POST("/queue/next", queueHandler.CallNext, authMW, staff)
	e.POST("/queue/repeat", queueHandler.RepeatCall, authMW, staff)
	e.PUT("/queue/sector", queueHandler.SetSector, authMW, staff)
	e.GET("/views/admin", boardHandler.AdminView, authMW, staff)

	// --- Public board ---
	e.GET("/views/lobby", boardHandler.LobbyView)
	e.GET("/board/stream", boardHandler.Stream)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

package api

import (
	"net"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/clickclean/civic-platform/internal/api/handler"
	"github.com/clickclean/civic-platform/internal/api/middleware"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// Deps carries everything the router needs to build its handlers.
type Deps struct {
	Auth        ports.AuthService
	Events      handler.SessionEventSource
	Profiles    ports.ProfileService
	Issues      ports.IssueService
	Training    ports.TrainingService
	Marketplace ports.MarketplaceService
	Community   ports.CommunityService
	Health      map[string]handler.Pinger

	// Policy defaults to domain.DefaultPolicy.
	Policy domain.AccessPolicy
	// LoginRateLimit is the signup/login budget per client IP per minute.
	LoginRateLimit int
	// TrustedProxies lists the CIDRs (or single IPs) whose X-Forwarded-For
	// is believed. Empty means the peer address is the client.
	TrustedProxies []string
	// Registry receives the HTTP metrics. Nil uses the prometheus default.
	Registry    *prometheus.Registry
	Development bool
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	e.IPExtractor = ipExtractor(d.TrustedProxies, d.Logger)

	policy := d.Policy
	if policy == nil {
		policy = domain.DefaultPolicy
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "civic_http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/auth/events"
		},
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	if d.Development {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Health probes (no auth required) ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)

	auth := middleware.Auth(d.Auth)
	optional := middleware.OptionalAuth(d.Auth)
	gate := func(a domain.Action) echo.MiddlewareFunc { return middleware.RequireAction(policy, a) }

	// --- Auth ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Events)
	limiter := middleware.NewIPRateLimiter(d.LoginRateLimit).Middleware()

	ag := e.Group("/auth")
	ag.POST("/signup", authHandler.SignUp, limiter)
	ag.POST("/login", authHandler.Login, limiter)
	ag.POST("/refresh", authHandler.Refresh)
	ag.POST("/logout", authHandler.Logout, auth)
	ag.GET("/session", authHandler.Session, auth)
	ag.GET("/events", authHandler.Events, auth)

	// --- Profiles ---
	profileHandler := handler.NewProfileHandler(d.Profiles)
	pg := e.Group("/profiles", auth)
	pg.PATCH("/me", profileHandler.UpdateMe, gate(domain.ActionViewProfile))
	pg.GET("/:id", profileHandler.Get, gate(domain.ActionViewProfile))
	pg.PUT("/:id/role", profileHandler.SetRole, gate(domain.ActionSetRole))

	// --- Issues ---
	issueHandler := handler.NewIssueHandler(d.Issues)
	v1 := e.Group("/v1")
	v1.POST("/issues", issueHandler.Create, auth, gate(domain.ActionReportIssue))
	v1.GET("/issues", issueHandler.List, optional, gate(domain.ActionViewTracking))
	v1.GET("/issues/:id", issueHandler.Get, optional, gate(domain.ActionViewTracking))
	v1.PATCH("/issues/:id/status", issueHandler.UpdateStatus, auth, gate(domain.ActionUpdateIssueStatus))
	v1.PATCH("/issues/:id/assign", issueHandler.Assign, auth, gate(domain.ActionAssignIssue))

	// --- Pages ---
	pages := handler.NewPageHandler(d.Community, d.Training, d.Marketplace)
	v1.GET("/dashboard", pages.Dashboard, gate(domain.ActionViewDashboard))
	v1.GET("/departments", pages.Departments, gate(domain.ActionViewTracking))
	v1.GET("/training", pages.Training, optional, gate(domain.ActionViewTraining))
	v1.POST("/training/:id/advance", pages.AdvanceTraining, auth, gate(domain.ActionAdvanceTraining))
	v1.GET("/leaderboard", pages.Leaderboard, gate(domain.ActionViewLeaderboard))
	v1.GET("/rewards", pages.Rewards, gate(domain.ActionViewMarketplace))
	v1.GET("/cart", pages.Cart, auth, gate(domain.ActionRedeemReward))
	v1.POST("/cart/items", pages.AddToCart, auth, gate(domain.ActionRedeemReward))
	v1.DELETE("/cart/items/:id", pages.RemoveFromCart, auth, gate(domain.ActionRedeemReward))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func ipExtractor(trusted []string, log zerolog.Logger) echo.IPExtractor {
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, raw := range trusted {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			if ip := net.ParseIP(raw); ip != nil && ip.To4() != nil {
				raw += "/32"
			} else {
				raw += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			log.Warn().Str("proxy", raw).Msg("ignoring invalid trusted proxy")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	if len(opts) == 3 {
		return echo.ExtractIPDirect()
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/config"
	"github.com/ztas-io/analytics-api/internal/handler"
	"github.com/ztas-io/analytics-api/internal/repository"
	"github.com/ztas-io/analytics-api/internal/service"
	"github.com/ztas-io/analytics-api/internal/utils"
	"github.com/ztas-io/analytics-api/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry.Duration)

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	siteService := service.NewSiteService(repos.Site)
	statsService := service.NewStatsService(infra.Redis(), cfg.Tracking.StatsRetention.Duration)
	keyService := service.NewAPIKeyService(repos.APIKey)

	authService := service.NewAuthService(
		repos.User,
		repos.ResetToken,
		siteService,
		jwtManager,
		cfg.Security.BCryptCost,
		cfg.Security.TrialPeriod.Duration,
		cfg.Security.ResetTokenExpiry.Duration,
	)

	oauthService := service.NewOAuthService(
		infra.Redis(),
		repos.User,
		jwtManager,
		cfg.OAuth,
		cfg.Security.TrialPeriod.Duration,
	)

	billingService := service.NewBillingService(repos.User, cfg.Stripe, logger)

	handlers := routeHandlers{
		auth:    handler.NewAuthHandler(authService, logger),
		oauth:   handler.NewOAuthHandler(oauthService, cfg.Stripe.FrontendURL, logger),
		sites:   handler.NewSiteHandler(siteService),
		stats:   handler.NewStatsHandler(statsService, siteService, logger),
		track:   handler.NewTrackHandler(statsService, siteService, logger),
		keys:    handler.NewAPIKeyHandler(keyService),
		billing: handler.NewBillingHandler(billingService, logger),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("analytics-api"))
	router.Use(handler.LoggerMiddleware(logger))

	// Global so preflights reach it even for unmatched method/path pairs.
	// The tracking endpoint carries its own origin logic.
	corsMw := handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)
	router.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/track") {
			c.Next()
			return
		}
		corsMw(c)
	})

	setupRoutes(router, cfg, handlers, authService, rateLimiter, logger, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

type routeHandlers struct {
	auth    *handler.AuthHandler
	oauth   *handler.OAuthHandler
	sites   *handler.SiteHandler
	stats   *handler.StatsHandler
	track   *handler.TrackHandler
	keys    *handler.APIKeyHandler
	billing *handler.BillingHandler
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h routeHandlers,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	logger *zap.Logger,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.MethodNotAllowed)
	router.NoRoute(handler.NotFound)

	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/api/health", healthChecker.Handler)

	// The tracking endpoint is open to any origin; it validates the request
	// Origin against the site's registered domain instead.
	track := router.Group("/api/track")
	track.Use(h.track.CORS)
	{
		track.POST("", h.track.Track)
		track.OPTIONS("", func(c *gin.Context) {})
	}

	api := router.Group("/api")

	window := cfg.Security.RateLimitWindow.Duration

	auth := api.Group("/auth")
	{
		auth.POST("/register",
			handler.RateLimitMiddleware(rateLimiter, logger, "register", cfg.Security.RegisterRateLimit, window),
			h.auth.Register,
		)
		auth.POST("/login",
			handler.RateLimitMiddleware(rateLimiter, logger, "login", cfg.Security.LoginRateLimit, window),
			h.auth.Login,
		)
		auth.POST("/forgot", h.auth.ForgotPassword)
		auth.POST("/reset", h.auth.ResetPassword)
		auth.GET("/verify-reset-token",
			handler.RateLimitMiddleware(rateLimiter, logger, "verify", cfg.Security.VerifyRateLimit, window),
			h.auth.VerifyResetToken,
		)

		auth.GET("/github", h.oauth.Begin("github"))
		auth.GET("/google", h.oauth.Begin("google"))
		auth.GET("/callback/:provider", h.oauth.Callback)
	}

	authenticated := api.Group("")
	authenticated.Use(handler.AuthMiddleware(authService))
	{
		authenticated.GET("/user/status", h.auth.UserStatus)

		authenticated.GET("/sites/list", h.sites.List)
		authenticated.POST("/sites/create", h.sites.Create)
		authenticated.POST("/sites/update", h.sites.Update)

		authenticated.GET("/stats", h.stats.Summary)

		authenticated.GET("/keys", h.keys.List)
		authenticated.POST("/keys", h.keys.Create)
		authenticated.PATCH("/keys", h.keys.Rename)
		authenticated.DELETE("/keys", h.keys.Revoke)

		authenticated.POST("/stripe/checkout", h.billing.Checkout)
		authenticated.POST("/stripe/portal", h.billing.Portal)
	}

	// The webhook authenticates with its signature, not a session token.
	api.POST("/stripe/webhook", h.billing.Webhook)
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"washpulse/internal/config"
	apierrors "washpulse/internal/errors"
	"washpulse/internal/gate"
	"washpulse/internal/infrastructure"
	custommw "washpulse/internal/middleware"
	"washpulse/internal/services"
	"washpulse/internal/store"
	handlers "washpulse/internal/transport/http"
	ws "washpulse/internal/websocket"
)

const (
	VERSION = "1.4.0"
	AppName = "WashPulse - Car Wash Analytics"
)

// BuildTime is set at compile time via -ldflags.
var BuildTime = time.Now().Format(time.RFC3339)

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.PipelineMetrics
	Store            *store.Store
	Keeper           *gate.Keeper
	WebSocketHub     *ws.Hub
	SnapshotService  *services.SnapshotService
	DashboardService *services.DashboardService
	MetaService      *services.MetaService
	HealthService    *services.HealthService

	otelMiddleware *custommw.OTelMiddleware
	systemMetrics  *infrastructure.SystemMetrics
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the single infrastructure logger
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", cfg.Server.Port))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	// Initialize OpenTelemetry
	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	// The HTTP middleware owns the pipeline instruments; services record on
	// the same set so counters line up across transport and loader.
	otelMiddleware, err := custommw.NewOTelMiddleware(otelProviders)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	app := &Application{
		Config:         cfg,
		Logger:         logger,
		OTelProviders:  otelProviders,
		Metrics:        otelMiddleware.Metrics(),
		otelMiddleware: otelMiddleware,
	}

	// Runtime gauges ride the same meter as the pipeline metrics. Losing
	// them is not worth failing startup over.
	if sm, err := infrastructure.NewSystemMetrics(otelProviders.Meter); err != nil {
		logger.Warn("Failed to register runtime metrics", slog.String("error", err.Error()))
	} else {
		app.systemMetrics = sm
	}

	// Initialize services in order
	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Setup router
	app.setupRouter()

	// Create HTTP server
	app.createServer()

	return app, nil
}

// initializeServices builds the store, gate and dashboard services in
// dependency order.
func (a *Application) initializeServices() error {
	ctx := context.Background()

	// Bring the local extract schema up to date before the snapshot strategy
	// is tried, so a fresh install can come up without a reachable warehouse.
	if a.Config.Store.SnapshotPath != "" {
		if err := store.InitSnapshot(a.Config.Store.SnapshotPath); err != nil {
			a.Logger.Warn("Failed to prepare local snapshot extract",
				slog.String("path", a.Config.Store.SnapshotPath),
				slog.String("error", err.Error()))
		}
	}

	st, err := store.Connect(ctx, store.StrategiesFromConfig(a.Config), a.Logger, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to connect to a data source: %w", err)
	}
	a.Store = st

	loader := store.NewLoader(st, a.Config.Store.QueryTimeout, a.Logger, a.Metrics)

	// WebSocket hub for snapshot refresh notifications
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	// Access gate
	a.Keeper = gate.NewKeeper(a.Config.Gate, a.Logger, a.Metrics)
	if !a.Keeper.Configured() {
		a.Logger.Warn("Access gate has no password configured, gated routes will refuse requests",
			slog.String("hint", "set WASH_GATE_PASSWORD or WASH_GATE_PASSWORD_HASH"))
	}

	a.SnapshotService = services.NewSnapshotService(loader, hub, a.Config.Cache, a.Config.Store.SnapshotPath, a.Logger)
	a.DashboardService = services.NewDashboardService(a.SnapshotService, a.Logger, a.Metrics)
	a.MetaService = services.NewMetaService(a.SnapshotService)
	a.HealthService = services.NewHealthService(VERSION, BuildTime, st, a.SnapshotService, hub, a.Keeper, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Apply MINIMAL middleware that won't interfere with the WebSocket
	// upgrade. These are safe because they don't wrap the ResponseWriter.
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	// WebSocket route with minimal middleware and tracing.
	// MUST be registered after minimal middleware but before the group.
	r.With(custommw.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	// Everything else gets the full middleware chain.
	r.Group(func(r chi.Router) {
		r.Use(a.otelMiddleware.Handler)
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))

		secureHeaders := custommw.DefaultSecureHeaders()
		secureHeaders.DevMode = a.Config.Logging.Development
		r.Use(secureHeaders.Handler)

		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		// Password gate. Auth and health endpoints stay on its exclusion
		// list so a locked-out operator can still log in and probe.
		gateValidator := custommw.NewGateValidator(a.Keeper, a.Logger)
		if gateMetrics, err := custommw.NewGateMetrics(a.OTelProviders.Meter); err != nil {
			a.Logger.Error("Failed to register gate metrics", slog.String("error", err.Error()))
		} else {
			gateValidator.SetMetrics(gateMetrics)
		}
		r.Use(gateValidator.Handler)

		// Sign-in page; the gate redirects locked-out browsers here.
		r.Get("/login", handlers.ServeLoginPage())
		r.Get("/", handlers.RedirectToLogin)

		a.setupAPIRoutes(r)
	})

	// Prometheus metrics endpoint (outside the middleware group)
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
		validation := custommw.NewValidationMiddleware(a.Logger, errorHandler)

		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Compress(5))
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(validation.ValidateRequest)

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		// Health handler
		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		// Dashboard aggregates
		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes())

		// Filter bounds and snapshot provenance
		metaHandler := handlers.NewMetaHandler(a.MetaService, a.Logger)
		r.Mount("/meta", metaHandler.Routes())

		// Login, refresh and download requests carry an audit trail.
		r.Group(func(r chi.Router) {
			r.Use(custommw.AuditLog(a.Logger))

			authHandler := handlers.NewAuthHandler(a.Keeper, a.Logger, errorHandler)
			r.Mount("/auth", authHandler.Routes())

			refreshHandler := handlers.NewRefreshHandler(a.SnapshotService, a.Logger)
			r.Mount("/refresh", refreshHandler.Routes())

			exportHandler := handlers.NewExportHandler(a.DashboardService, a.Logger, errorHandler, a.Metrics)
			r.Mount("/export", exportHandler.Routes())
		})
	})
}

// getCORSConfig returns the CORS configuration for the dashboard frontend.
func (a *Application) getCORSConfig() custommw.CORSConfig {
	return custommw.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		// The session rides on a cookie, so credentialed requests must be
		// allowed for any cross-origin frontend.
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("source", a.Store.Source()),
		slog.Bool("gate_configured", a.Keeper.Configured()))

	// Start server
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	if a.systemMetrics != nil {
		go a.systemMetrics.Run(ctx, 30*time.Second)
	}

	// Warm the snapshot cache so the first dashboard request does not pay
	// the warehouse round trip.
	go func() {
		warmCtx, warmCancel := context.WithTimeout(
			infrastructure.EnsureTraceID(context.Background()), a.Config.Server.RequestTimeout)
		defer warmCancel()

		snap := a.SnapshotService.Snapshot(warmCtx)
		a.Logger.InfoContext(warmCtx, "Snapshot cache warmed",
			slog.String("source", snap.Source),
			slog.Int("wash_records", len(snap.Wash)),
			slog.Int("subscription_records", len(snap.Subscriptions)),
			slog.Int("sales_records", len(snap.Sales)),
			slog.Int("issues", len(snap.Issues)))
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Stop server
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Stop background services
	a.WebSocketHub.Stop()
	a.Keeper.Close()

	if err := a.Store.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing store", slog.String("error", err.Error()))
	}

	// Shutdown OpenTelemetry providers
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	// Last so the shutdown itself still reaches the file.
	if err := infrastructure.CloseLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
	}
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start application
	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	// Graceful shutdown on a fresh context; the run context may already be
	// cancelled when the server died on its own.
	return a.Stop(context.Background())
}

// handleWebSocket handles WebSocket connections
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Extract any available request ID (might not have middleware)
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("host", r.Host))

	// The gate middleware does not cover /ws, so the session is checked
	// here before the upgrade.
	token := custommw.ExtractSessionToken(r)
	if err := a.Keeper.VerifySession(ctx, token); err != nil {
		a.Logger.WarnContext(ctx, "WebSocket upgrade refused, no valid session",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Allow if no origin (local file or non-browser client)
			if origin == "" {
				return true
			}

			// Same host is always fine
			if origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}

			for _, allowed := range a.Config.Security.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}

			a.Logger.WarnContext(ctx, "WebSocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", a.Config.Security.AllowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	ws.ServeWS(a.WebSocketHub, conn, a.Logger)
}

// performStartupHealthCheck verifies writable directories and store
// reachability. Failures are reported as warnings, not fatal errors.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"data":    a.Config.Paths.DataDir,
		"exports": a.Config.Paths.ExportsDir,
		"logs":    a.Config.Paths.LogsDir,
	}

	for name, dir := range directories {
		// Try to create a test file to verify write access
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, a.Config.Store.ConnectTimeout)
	defer pingCancel()
	if err := a.Store.Ping(pingCtx); err != nil {
		warnings = append(warnings, fmt.Sprintf("store unreachable: %v", err))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup checks: %s", strings.Join(warnings, "; "))
	}
	return nil
}

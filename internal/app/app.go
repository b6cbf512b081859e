package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"evinsights/internal/config"
	apperrors "evinsights/internal/errors"
	"evinsights/internal/infrastructure"
	custommw "evinsights/internal/middleware"
	"evinsights/internal/services"
	handlers "evinsights/internal/transport/http"
	ws "evinsights/internal/websocket"
	"evinsights/pkg/contracts"
)

const AppName = "EV Market Insights"

var (
	// Version defaults to the contract version; -ldflags may override it.
	Version = contracts.Version
	// BuildTime is stamped by the build via -ldflags.
	BuildTime = contracts.BuildTime
)

// Application wires the dashboard's services, transport and observability
// into one runnable unit.
type Application struct {
	Config           *config.Config
	Paths            *config.Paths
	Router           *chi.Mux
	Server           *http.Server
	WebSocketHub     *ws.Hub
	DatasetService   *services.DatasetService
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Logger           *slog.Logger
	Metrics          *infrastructure.Metrics
	OTelProviders    *infrastructure.OTelProviders
	SystemCollector  *infrastructure.SystemMetricsCollector
	FrontendFS       fs.FS

	collectorCancel context.CancelFunc
}

// NewApplication creates the application with dependency injection: config
// first, then logging and telemetry, then services, then routes.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("build_time", BuildTime))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	// Config may point the source files somewhere else
	paths.GeoCSV = cfg.GetGeoFilePath()
	paths.ConcernsCSV = cfg.GetConcernsFilePath()

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	// Missing source files are not fatal at startup: the dashboard comes up
	// and surfaces the load error to the user, and readiness reports it.
	if err := paths.ValidateRequiredFiles(); err != nil {
		logger.Warn("Source data files missing",
			slog.String("error", err.Error()),
			slog.String("action", "Dashboard will report the missing files until they appear"))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		Metrics:       infrastructure.NewMetrics(),
		OTelProviders: otelProviders,
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the service graph in dependency order.
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	clock := clockwork.NewRealClock()

	a.DatasetService = services.NewDatasetService(a.Paths, a.Logger, clock, a.Metrics, hub)
	a.DashboardService = services.NewDashboardService(a.DatasetService, a.Config.Dashboard, clock, a.Logger)

	collector, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, 30*time.Second)
	if err != nil {
		a.Logger.Warn("System metrics collector unavailable",
			slog.String("error", err.Error()))
	} else {
		a.SystemCollector = collector
	}

	a.HealthService = services.NewHealthService(
		Version, a.Paths, a.DatasetService, hub, a.SystemCollector, clock, a.Logger)

	return nil
}

// setupRouter configures the HTTP router. The WebSocket route and static
// assets sit outside the full middleware stack: wrapping the
// ResponseWriter breaks the upgrade, and assets don't need per-request
// tracing.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(middleware.RealIP)

	r.With(custommw.WebSocketTraceMiddleware(a.Logger)).HandleFunc(config.WebSocketEndpoint, a.handleWebSocket)

	a.setupStaticAssets(r)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := custommw.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware",
				slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
			r.Use(custommw.BusinessMetricsMiddleware(otelMiddleware.BusinessMetrics()))
		}

		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.CORS(a.corsConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)

		if a.FrontendFS != nil {
			r.Get("/", handlers.ServeMainApp(a.FrontendFS))
		}
	})

	// Prometheus scrape endpoint, outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	} else {
		r.Handle(config.MetricsEndpoint, handlers.MetricsHandler())
	}

	a.Router = r
}

// setupAPIRoutes registers the dashboard API under /api.
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
		validation := custommw.NewValidationMiddleware(a.Logger, errorHandler)

		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(apperrors.RecoveryMiddleware(errorHandler))
		r.Use(custommw.ContentTypeValidator("application/json"))
		r.Use(validation.ValidateRequest)

		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, validation, a.Logger, errorHandler)
		r.Get("/dashboard", dashboardHandler.GetDashboard)
		r.Get("/zips/top", dashboardHandler.GetTopZips)
		r.Get("/concerns", dashboardHandler.GetConcerns)
		r.Get("/recommendations", dashboardHandler.GetRecommendations)

		exportHandler := handlers.NewExportHandler(a.DashboardService, validation, a.Metrics, a.Logger, errorHandler)
		r.Mount("/export", exportHandler.Routes())

		refreshHandler := handlers.NewRefreshHandler(a.DatasetService, a.Logger, errorHandler)
		r.Mount("/refresh", refreshHandler.Routes())

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
	})
}

// setupStaticAssets serves the embedded frontend assets with caching and
// compression but without the API middleware stack.
func (a *Application) setupStaticAssets(r chi.Router) {
	if a.FrontendFS == nil {
		return
	}

	r.Route("/assets", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(middleware.SetHeader("Cache-Control", "public, max-age=86400"))
		r.Handle("/*", http.StripPrefix("/assets/", handlers.StaticFiles(a.FrontendFS)))
	})

	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(a.FrontendFS, "favicon.ico")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/x-icon")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write(data)
	})
}

// corsConfig builds the CORS policy from the security configuration. The
// server's own origin is always allowed since the frontend is embedded.
func (a *Application) corsConfig() custommw.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Security.EnableCORS {
		origins = append(origins, a.Config.Security.AllowedOrigins...)
	}

	return custommw.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer builds the http.Server around the router with the
// configured timeouts.
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

// Start brings the application up: background collectors, a snapshot
// warm-up, the HTTP listener, and finally the local browser.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port))

	if a.SystemCollector != nil {
		collectorCtx, collectorCancel := context.WithCancel(context.Background())
		a.collectorCancel = collectorCancel
		go a.SystemCollector.Start(collectorCtx)
	}

	// Warm the snapshot cache so the first dashboard render doesn't pay
	// the load. Failure is already logged and surfaces through the API.
	go func() {
		if _, err := a.DatasetService.Snapshot(context.Background()); err != nil {
			a.Logger.Warn("Snapshot warm-up failed",
				slog.String("error", err.Error()))
		}
	}()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings",
			slog.String("warnings", err.Error()))
	}

	addr := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", addr))

	go a.openBrowserWhenReady(ctx, addr)

	return nil
}

// openBrowserWhenReady polls the health endpoint until the server answers,
// then opens the local browser. The dashboard is a desk tool; failing to
// open a browser only costs a printed URL.
func (a *Application) openBrowserWhenReady(ctx context.Context, addr string) {
	healthURL := addr + config.HealthEndpoint

	for i := 0; i < 10; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				if err := openBrowser(addr); err != nil {
					a.Logger.Warn("Failed to open browser",
						slog.String("error", err.Error()),
						slog.String("url", addr))
					fmt.Printf("\n%s is running.\nOpen your browser at: %s\n\n", AppName, addr)
				}
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	a.Logger.Warn("Server did not become ready for browser opening",
		slog.String("url", addr))
}

// Stop drains the HTTP server within the shutdown timeout, then closes
// the hub, the metrics collector and the telemetry providers.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.collectorCancel != nil {
		a.collectorCancel()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run starts the server and blocks until SIGINT, SIGTERM, or a startup
// failure cancels the context.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades the connection and hands it to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = infrastructure.GenerateTraceID()
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin and file:// clients carry no Origin header
				return true
			}
			if parsed, err := url.Parse(origin); err == nil && parsed.Host == r.Host {
				return true
			}
			for _, allowed := range a.Config.Security.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			a.Logger.WarnContext(ctx, "WebSocket origin rejected",
				slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	ws.ServeWS(a.WebSocketHub, conn, reqID, a.Logger)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))
}

// performStartupHealthCheck verifies critical paths and resources, and
// returns the accumulated warnings. None of them abort startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Reports": a.Paths.ReportsDir,
		"Logs":    a.Paths.LogsDir,
	}
	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if err := a.Paths.ValidateRequiredFiles(); err != nil {
		warnings = append(warnings, err.Error())
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}

// openBrowser opens the default browser to the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/josephfalocco/finance-consolidation-dashboard/internal/config"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/consolidate"
	apierrors "github.com/josephfalocco/finance-consolidation-dashboard/internal/errors"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/exporter"
	"github.com/josephfalocco/finance-consolidation-dashboard/internal/infrastructure"
	custommw "github.com/josephfalocco/finance-consolidation-dashboard/internal/middleware"
	handlers "github.com/josephfalocco/finance-consolidation-dashboard/internal/transport/http"
	ws "github.com/josephfalocco/finance-consolidation-dashboard/internal/websocket"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Application is the composed dashboard server.
type Application struct {
	Config       *config.Config
	Logger       *slog.Logger
	Router       *chi.Mux
	Server       *http.Server
	Store        *consolidate.Store
	Consolidator *consolidate.Consolidator
	Hub          *ws.Hub
	OTel         *infrastructure.OTelProviders
}

// NewApplication wires the application with dependency injection.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	otelProviders, err := infrastructure.InitializeOTel(Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	store := consolidate.NewStore()
	consolidator := consolidate.New(cfg, store, metrics, logger)
	hub := ws.NewHub(logger)

	a := &Application{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Consolidator: consolidator,
		Hub:          hub,
		OTel:         otelProviders,
	}
	a.Router = a.setupRouter()
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(custommw.RequestID)
	r.Use(custommw.Logging(a.Logger))
	r.Use(custommw.Recovery(errorHandler))
	if a.Config.Server.RateLimit.Enabled {
		r.Use(custommw.RateLimit(a.Config.Server.RateLimit.RPS, a.Config.Server.RateLimit.Burst))
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	places := a.Config.Pipeline.DecimalPlaces
	csvWriter := exporter.NewCSVWriter(places, a.Logger)
	excelWriter := exporter.NewExcelWriter(places, a.Logger)

	dashboard := handlers.NewDashboardHandler(a.Store, a.Logger, errorHandler)
	operations := handlers.NewOperationsHandler(a.Consolidator, a.Hub, a.Logger, errorHandler)
	data := handlers.NewDataHandler(a.Store, csvWriter, excelWriter, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", dashboard.Routes())
		r.Mount("/operations", operations.Routes())
		r.Mount("/data", data.Routes())
	})

	r.Method(http.MethodGet, "/healthz", handlers.NewHealthHandler(Version))
	r.Method(http.MethodGet, "/metrics", infrastructure.MetricsHandler())
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(a.Hub, w, req)
	})

	return r
}

// Run starts the hub and HTTP server, performs the initial
// consolidation, and blocks until shutdown.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Hub.Run(ctx)
		return nil
	})

	// Initial run: a failure is logged, not fatal. The server comes up
	// serving "no dataset yet" until a run succeeds.
	g.Go(func() error {
		if _, err := a.Consolidator.Run(ctx); err != nil {
			a.Logger.Error("initial consolidation failed",
				slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

func (a *Application) shutdown() error {
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http server shutdown failed", slog.String("error", err.Error()))
	}
	if err := a.OTel.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		return err
	}

	// Give in-flight log writes a moment before the process exits
	time.Sleep(50 * time.Millisecond)
	return nil
}

// Package server wires the KidsBank sync server together: storage, services,
// the HTTP API and the gRPC health endpoint, and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/logging"
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	"github.com/dmitrijs2005/kidsbank/internal/server/config"
	"github.com/dmitrijs2005/kidsbank/internal/server/httpapi"
	"github.com/dmitrijs2005/kidsbank/internal/server/metrics"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kidsbank/internal/server/services"
	"github.com/dmitrijs2005/kidsbank/internal/server/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/kidsbank/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	router   *gin.Engine
	health   *gs.HealthServer
	shutdown func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	shutdown, err := telemetry.Init(ctx, c.TraceStdout, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mx := metrics.New(reg)

	issuer := auth.NewIssuer(c.SecretKey, c.TokenValidityDuration)

	h := httpapi.NewHandler(
		services.NewAccountService(db, rm, c, issuer, logger, mx),
		services.NewClientService(db, rm, logger),
		services.NewSyncService(db, rm, logger, mx),
		services.NewExportService(db, rm, c, logger, mx),
		issuer,
		db,
		mx,
		logger,
	)

	if logging.ParseLevel(c.LogLevel) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		router:   httpapi.NewRouter(h, c.TraceStdout),
		health:   gs.NewHealthServer(c.EndpointAddrGRPC, db, c.HealthCheckInterval, logger),
		shutdown: shutdown,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until a signal arrives or one of the servers fails, then
// stops the others and releases resources.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startHTTPServer(gctx) })
	g.Go(func() error { return app.health.Run(gctx) })

	err := g.Wait()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := app.shutdown(sctx); serr != nil {
		app.logger.Warn(sctx, "telemetry shutdown", "error", serr)
	}
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(sctx, "db close", "error", cerr)
	}

	app.logger.Info(sctx, "App stopped")
	return err
}

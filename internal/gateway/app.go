// Package gateway initializes and runs the auth-gateway service: the local
// mirror store, the session orchestrator, the background session sweep, and
// the public HTTP API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/gateway/auth"
	"github.com/dmitrijs2005/authbridge/internal/gateway/config"
	"github.com/dmitrijs2005/authbridge/internal/gateway/db"
	"github.com/dmitrijs2005/authbridge/internal/gateway/httpapi"
	"github.com/dmitrijs2005/authbridge/internal/gateway/iamclient"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	handler  http.Handler
	metrics  *httpapi.Metrics
	sessions sessionSweeper
}

type sessionSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	m, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ic := iamclient.NewClient(c.IamBaseURL, c.IamTimeout, logger)
	as := auth.NewService(m.Conn(), m.Users(), m.Mappings(), m.Sessions(), ic, c, logger)

	metrics := httpapi.NewMetrics()
	h := httpapi.NewHandler(as, metrics, c.CookieSecure, c.AccessTokenValidity, logger)

	return &App{
		config:   c,
		logger:   logger,
		handler:  httpapi.NewRouter(h, metrics, c, logger),
		metrics:  metrics,
		sessions: m.Sessions(),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: app.handler}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting gateway HTTP server", "address", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startSessionSweep periodically removes refresh-token records whose expiry
// has passed. Expired rows are already unusable; the sweep only reclaims
// space and keeps lookups honest.
func (app *App) startSessionSweep(ctx context.Context) {

	ticker := time.NewTicker(app.config.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.sessions.DeleteExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "session sweep failed", "error", err.Error())
				continue
			}
			app.metrics.ObserveSweep(removed)
			if removed > 0 {
				app.logger.Info(ctx, "session sweep", "removed", removed)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startSessionSweep(ctx)
	}()

	wg.Wait()
}

// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/dmitrijs2005/todokeeper/internal/server/storage"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.HTTPServer
}

// NewApp opens the database, applies migrations and builds the HTTP server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	pictures, err := storage.NewS3PictureStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.TokenIssuer, c.TokenAudience, c.AccessTokenValidityDuration)
	us := services.NewUserService(db, rm, c, tokens)
	ts := services.NewTaskService(db, rm)

	srv := httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, httpapi.Deps{
		Users:    us,
		Tasks:    ts,
		Pictures: pictures,
		Tokens:   tokens,
		Policy:   rbac.NewPolicy(rbac.DefaultTable()),
	})

	return &App{config: c, logger: logger, db: db, http: srv}, nil
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
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}

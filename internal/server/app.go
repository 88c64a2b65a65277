// Package server initializes and runs the auth server: it opens the
// database and Redis connections, applies migrations, wires the services
// and starts the HTTP endpoint together with the cleanup sweeper.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/agropath/farmauth/internal/logging"
	"github.com/agropath/farmauth/internal/server/config"
	"github.com/agropath/farmauth/internal/server/httpapi"
	"github.com/agropath/farmauth/internal/server/repositories/repomanager"
	"github.com/agropath/farmauth/internal/server/services"
	"github.com/agropath/farmauth/internal/server/sweeper"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/agropath/farmauth/internal/server/repositories/otp"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	handler *httpapi.AuthHandler
	sweeper *sweeper.Sweeper
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	sessionService := services.NewSessionService(db, m, logger, c)
	userService := services.NewUserService(db, m, logger)
	otpService := services.NewOtpService(
		otp.NewRedisRepository(rdb),
		&services.LogSender{Logger: logger},
		logger,
		c.OtpValidityDuration,
	)

	handler := httpapi.NewAuthHandler(sessionService, userService, otpService, logger)
	sw := sweeper.New(db, m, logger, c.CleanupInterval)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		redis:   rdb,
		handler: handler,
		sweeper: sw,
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := gin.New()
	router.Use(gin.Recovery())
	app.handler.Register(router)

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
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
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close error", "error", err)
	}
}

// Package server wires configuration, storage, authentication, the
// completion gateway and the HTTP API into a runnable application, and
// handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/logging"
	"github.com/dmitrijs2005/gophcoach/internal/server/auth"
	"github.com/dmitrijs2005/gophcoach/internal/server/config"
	"github.com/dmitrijs2005/gophcoach/internal/server/httpapi"
	"github.com/dmitrijs2005/gophcoach/internal/server/llm"
	"github.com/dmitrijs2005/gophcoach/internal/server/metrics"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophcoach/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *httpapi.Handler
}

// NewApp opens the store, applies migrations and builds the service graph.
// The caller owns the returned App and must call Close.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, dialect, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, dialect dbx.Dialect) (*App, error) {
	rm, err := repomanager.New(dialect)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(c.JWTSecret), c.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	hasher := auth.NewPasswordHasher(auth.DefaultHashParams)
	mtr := metrics.New()

	gateway := llm.NewClient(llm.Config{
		APIKey:      c.LLMAPIKey,
		URL:         c.LLMAPIURL,
		Model:       c.LLMModel,
		Temperature: c.LLMTemperature,
		MaxTokens:   c.LLMMaxTokens,
		Timeout:     c.LLMTimeout,
	}, logger)

	var counter services.TokenCounter = services.RuneEstimate{}
	if c.ContextMaxTokens > 0 {
		counter = services.NewTiktokenCounter(c.TokenEncoding)
	}
	assembler := services.NewContextAssembler(db, rm, services.ContextConfig{
		SystemPrompt: c.SystemPrompt,
		MaxTurns:     c.ContextMaxTurns,
		MaxChars:     c.ContextMaxChars,
		MaxTokens:    c.ContextMaxTokens,
		HistoryFetch: c.ContextHistoryFetch,
	}, counter)

	us := services.NewUserService(db, rm, hasher, tokens)
	cs := services.NewChatService(db, rm, assembler, gateway, services.ChatConfig{
		HistoryLimit:    c.HistoryLimit,
		MaxMessageChars: c.MaxMessageChars,
	}, logger, mtr)

	h := httpapi.NewHandler(us, cs, auth.NewAuthenticator(tokens), db.PingContext,
		httpapi.Config{AuthRPS: c.AuthRPS, AuthBurst: c.AuthBurst}, logger, mtr)

	return &App{config: c, logger: logger, db: db, handler: h}, nil
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
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.handler.Routes(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a shutdown signal arrives.
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

	app.logger.Info(ctx, "App stopped")
}

func (app *App) Close() error {
	return app.db.Close()
}

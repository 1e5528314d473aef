// Package server wires configuration, key material, storage, mail delivery
// and the HTTP API into a runnable application, and owns its lifecycle.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophreddit/internal/cryptox"
	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/auth"
	"github.com/dmitrijs2005/gophreddit/internal/server/config"
	"github.com/dmitrijs2005/gophreddit/internal/server/httpapi"
	"github.com/dmitrijs2005/gophreddit/internal/server/keystore"
	"github.com/dmitrijs2005/gophreddit/internal/server/mail"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophreddit/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *mail.Dispatcher
	server     *httpapi.Server
}

// seams for tests
var (
	logOutput io.Writer = os.Stdout
	openDB              = repomanager.Open
	newRepos            = repomanager.NewPostgresRepositoryManager
)

// NewApp builds the application. A keystore that cannot be loaded is fatal:
// the returned error wraps common.ErrKeyStore.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewJSON(logOutput, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	ks, err := keystore.Load(c.KeyStorePath, c.KeyStorePassphrase)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(ks, c.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}
	logger.Info(ctx, "keystore loaded", "path", c.KeyStorePath, "alg", ks.Algorithm())

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm := newRepos()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	dispatcher := mail.NewDispatcher(newSender(c, logger), logger, c.MailQueueSize, c.MailWorkers)
	notifier := services.NewNotifier(mail.NewContentBuilder(), dispatcher, logger)
	hasher := cryptox.NewBcryptHasher(c.BcryptCost)

	users, err := services.NewUserService(db, rm, tokens, hasher, notifier, services.UserServiceConfig{
		BaseURL:              c.BaseURL,
		VerificationTokenTTL: c.VerificationTokenTTL,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	srv := httpapi.NewServer(httpapi.Options{
		Address:         c.HTTPAddress,
		LoginRateLimit:  c.LoginRateLimit,
		ShutdownTimeout: c.ShutdownTimeout,
	}, httpapi.Deps{
		Tokens:     tokens,
		Auth:       users,
		Votes:      services.NewVoteService(db, rm, logger),
		Subreddits: services.NewSubredditService(db, rm, logger),
		Posts:      services.NewPostService(db, rm, logger),
		Comments:   services.NewCommentService(db, rm, notifier, c.BaseURL, logger),
	}, logger)

	return &App{config: c, logger: logger, db: db, dispatcher: dispatcher, server: srv}, nil
}

// newSender picks SMTP delivery when a host is configured and logs mail otherwise.
func newSender(c *config.Config, l logging.Logger) mail.Sender {
	if c.SMTPHost == "" {
		return mail.NewLogSender(l.With("module", "mail_log"))
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
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

// Run serves until ctx ends or a termination signal arrives. On the way out
// the HTTP server drains first, then queued mail, then the database pool.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	runErr := app.server.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server stopped", "error", runErr)
	}

	return app.shutdown(runErr)
}

func (app *App) shutdown(runErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.dispatcher.Close(ctx); err != nil {
		app.logger.Warn(ctx, "mail queue not drained", "error", err, "stats", app.dispatcher.Stats())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}

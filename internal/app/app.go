// Package app wires configuration, storage, services, and the HTTP server
// into a running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/storyloom/storyloom-backend/internal/adapter/postgres"
	"github.com/storyloom/storyloom-backend/internal/adapter/postgres/appsetting"
	"github.com/storyloom/storyloom-backend/internal/adapter/postgres/emaillog"
	mentionrepo "github.com/storyloom/storyloom-backend/internal/adapter/postgres/mention"
	"github.com/storyloom/storyloom-backend/internal/adapter/postgres/unsubtoken"
	userrepo "github.com/storyloom/storyloom-backend/internal/adapter/postgres/user"
	"github.com/storyloom/storyloom-backend/internal/adapter/provider/resend"
	"github.com/storyloom/storyloom-backend/internal/config"
	"github.com/storyloom/storyloom-backend/internal/service/mailer"
	"github.com/storyloom/storyloom-backend/internal/service/mention"
	"github.com/storyloom/storyloom-backend/internal/transport/middleware"
	"github.com/storyloom/storyloom-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, builds the services, and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	users := userrepo.New(pool)
	mentions := mentionrepo.New(pool)
	entries := emaillog.New(pool)
	tokens := unsubtoken.New(pool)
	settings := appsetting.New(pool)

	provider := resend.NewClientWithURL(cfg.Email.ProviderBaseURL, cfg.Email.ProviderAPIKey, logger)

	tokenIssuer := mailer.NewTokenIssuer(logger, []byte(cfg.Email.UnsubscribeSecret), tokens, users, txManager)
	mailerSvc := mailer.NewService(logger, mailer.Config{
		SenderAddress:      cfg.Email.SenderAddress,
		SubjectPrefix:      cfg.Email.SubjectPrefix,
		UnsubscribeBaseURL: cfg.Email.UnsubscribeBaseURL,
		DayLocation:        cfg.DayLocation(),
	}, entries, settings, provider, tokenIssuer)
	mentionSvc := mention.NewService(logger, users, mentions)

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	handler := newRouter(cfg, logger, pool, mailerSvc, mentionSvc, tokenIssuer, rateLimiter)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	pool interface{ Ping(ctx context.Context) error },
	mailerSvc *mailer.Service,
	mentionSvc *mention.Service,
	tokenIssuer *mailer.TokenIssuer,
	rateLimiter *middleware.RateLimiter,
) http.Handler {
	healthHandler := rest.NewHealthHandler(pool, BuildVersion())
	webhookHandler := rest.NewWebhookHandler(logger, mailerSvc)
	unsubscribeHandler := rest.NewUnsubscribeHandler(logger, tokenIssuer)
	mentionHandler := rest.NewMentionHandler(logger, mentionSvc, cfg.DayLocation())

	webhookChain := middleware.Chain(
		rateLimiter.Limit(cfg.Server.WebhookRatePerMin),
		middleware.VerifySignature([]byte(cfg.Email.WebhookSecret)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("POST /webhooks/email", webhookChain(http.HandlerFunc(webhookHandler.DeliveryStatus)))
	mux.HandleFunc("GET /unsubscribe", unsubscribeHandler.Unsubscribe)
	mux.HandleFunc("POST /unsubscribe", unsubscribeHandler.Unsubscribe)
	mux.HandleFunc("POST /internal/mentions", mentionHandler.Record)

	base := middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	)

	return base(mux)
}

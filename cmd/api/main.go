package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"frutico/backend/internal/config"
	"frutico/backend/internal/db"
	"frutico/backend/internal/fulfillment"
	"frutico/backend/internal/http/handlers"
	"frutico/backend/internal/http/middleware"
	"frutico/backend/internal/integrations"
	"frutico/backend/internal/logging"
	"frutico/backend/internal/models"
	"frutico/backend/internal/repository"
	"frutico/backend/internal/ticketing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "api")
	slog.SetDefault(logger)

	if cfg.WebhookSecret == "" {
		logger.Warn("config", "status", "webhook_secret_missing", "detail", "payment webhooks will be rejected")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("migrate error", "error", err)
			os.Exit(1)
		}
	}

	repo := repository.New(pool)

	dates, err := ticketing.NewDateFormatter(cfg.Ticket.Timezone)
	if err != nil {
		logger.Error("ticket timezone error", "error", err)
		os.Exit(1)
	}
	renderer, err := ticketing.NewRenderer(dates)
	if err != nil {
		logger.Error("ticket template error", "error", err)
		os.Exit(1)
	}

	var mailer fulfillment.Mailer
	if cfg.SMTP.Host != "" {
		mailer = integrations.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn("config", "status", "smtp_disabled", "detail", "tickets will not be emailed")
	}

	var archive fulfillment.Archive
	if cfg.S3.Bucket != "" {
		s3Archive, err := integrations.NewS3Archive(cfg.S3)
		if err != nil {
			logger.Error("s3 error", "error", err)
			os.Exit(1)
		}
		archive = s3Archive
	}

	service := fulfillment.NewService(fulfillment.Options{
		Renderer: renderer,
		Mailer:   mailer,
		Archive:  archive,
		Recorder: repo,
		Subject:  cfg.Ticket.Subject,
		Logger:   logger,
		Alert: func(ctx context.Context, order models.Order, err error) {
			logger.Error("ticket_delivery_alert", "order_id", order.OrderID, "id", order.ID, "email_domain", emailDomain(order.Email), "error", err)
		},
	})
	runner := fulfillment.NewRunner(service, logger)

	h := handlers.New(repo, runner, service, renderer, cfg, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(45 * time.Second))
	h.Mount(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("shutdown", "status", "http_forced", "error", err)
	}
	if err := runner.Shutdown(ctxShutdown); err != nil {
		logger.Warn("shutdown", "status", "fulfillment_abandoned", "error", err)
	}
}

func emailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}

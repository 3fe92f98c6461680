package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frutico/backend/internal/config"
	"frutico/backend/internal/db"
	"frutico/backend/internal/logging"
	"frutico/backend/internal/models"
	"frutico/backend/internal/repository"
	"frutico/backend/internal/ticketing"
)

const followupBatch = 200

type undeliveredLister interface {
	ListUndeliveredOrders(ctx context.Context, limit int) ([]models.Order, error)
}

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
	logger = logger.With("service", "worker")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)

	logger.Info("worker_started", "interval", cfg.Followup.Interval.String(), "min_age", cfg.Followup.MinAge.String())
	ticker := time.NewTicker(cfg.Followup.Interval)
	defer ticker.Stop()
	for {
		if _, err := reportUndelivered(ctx, repo, time.Now(), cfg.Followup.MinAge, logger); err != nil {
			logger.Error("followup_scan_error", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("shutdown", "service", "worker")
			return
		case <-ticker.C:
		}
	}
}

// reportUndelivered logs every paid order whose ticket has not gone out for operator follow-up.
// Orders reconciled less than minAge ago are skipped unless a delivery attempt already failed,
// since the api may still be sending them.
func reportUndelivered(ctx context.Context, lister undeliveredLister, now time.Time, minAge time.Duration, logger *slog.Logger) (int, error) {
	scanCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	orders, err := lister.ListUndeliveredOrders(scanCtx, followupBatch)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, order := range orders {
		if order.TicketError == "" && now.Sub(order.UpdatedAt) < minAge {
			continue
		}
		flagged++
		logger.Error("ticket_followup",
			"order_id", order.OrderID,
			"id", order.ID,
			"ticket_id", ticketing.TicketID(order.ID),
			"paid_at", order.UpdatedAt,
			"ticket_error", order.TicketError,
		)
	}
	if flagged > 0 {
		logger.Warn("followup_scan", "status", "pending_tickets", "count", flagged)
	}
	return flagged, nil
}

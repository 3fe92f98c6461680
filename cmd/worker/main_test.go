package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"frutico/backend/internal/models"
)

type stubLister struct {
	orders []models.Order
	err    error
	limit  int
}

func (s *stubLister) ListUndeliveredOrders(ctx context.Context, limit int) ([]models.Order, error) {
	s.limit = limit
	return s.orders, s.err
}

func TestReportUndelivered(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	lister := &stubLister{orders: []models.Order{
		{ID: "aaaaaaaa-0000-0000-0000-000000000001", OrderID: "order_old", Status: models.OrderStatusPaid, UpdatedAt: now.Add(-time.Hour)},
		{ID: "bbbbbbbb-0000-0000-0000-000000000002", OrderID: "order_fresh", Status: models.OrderStatusPaid, UpdatedAt: now.Add(-time.Minute)},
		{ID: "cccccccc-0000-0000-0000-000000000003", OrderID: "order_failed", Status: models.OrderStatusPaid, UpdatedAt: now.Add(-time.Minute), TicketError: "smtp: 421"},
	}}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	flagged, err := reportUndelivered(context.Background(), lister, now, 10*time.Minute, logger)
	if err != nil {
		t.Fatalf("reportUndelivered(): %v", err)
	}
	if flagged != 2 {
		t.Fatalf("expected 2 flagged orders, got %d", flagged)
	}
	if lister.limit != followupBatch {
		t.Fatalf("expected batch %d, got %d", followupBatch, lister.limit)
	}
	out := buf.String()
	if !strings.Contains(out, "order_old") || !strings.Contains(out, "order_failed") {
		t.Fatalf("expected flagged orders in log, got %s", out)
	}
	if strings.Contains(out, "order_fresh") {
		t.Fatalf("fresh order must not be flagged yet")
	}
	if !strings.Contains(out, "ticket_id=CCCCCCCC") {
		t.Fatalf("expected ticket id in log, got %s", out)
	}
}

func TestReportUndeliveredListError(t *testing.T) {
	lister := &stubLister{err: errors.New("db down")}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if _, err := reportUndelivered(context.Background(), lister, time.Now(), time.Minute, logger); err == nil {
		t.Fatalf("expected error")
	}
}

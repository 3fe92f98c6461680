package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"frutico/backend/internal/config"
	authmw "frutico/backend/internal/http/middleware"
	"frutico/backend/internal/integrations/razorpay"
	"frutico/backend/internal/models"
	"frutico/backend/internal/rate"
	"frutico/backend/internal/ticketing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// OrderStore is the slice of the repository the HTTP layer needs.
type OrderStore interface {
	MarkOrderPaid(ctx context.Context, params models.MarkPaidParams) (models.Order, bool, error)
	GetOrderByID(ctx context.Context, id string) (models.Order, error)
	ListUndeliveredOrders(ctx context.Context, limit int) ([]models.Order, error)
	Ping(ctx context.Context) error
}

// TicketLauncher starts ticket fulfillment in the background.
type TicketLauncher interface {
	Launch(order models.Order) bool
}

// TicketDeliverer sends a ticket synchronously.
type TicketDeliverer interface {
	Deliver(ctx context.Context, order models.Order) error
}

type Handler struct {
	orders        OrderStore
	launcher      TicketLauncher
	deliverer     TicketDeliverer
	verifier      *razorpay.Verifier
	renderer      *ticketing.Renderer
	qr            *ticketing.QRRenderer
	cfg           *config.Config
	logger        *slog.Logger
	ticketLimiter *rate.WindowLimiter
	loginLimiter  *rate.WindowLimiter
	now           func() time.Time
}

func New(orders OrderStore, launcher TicketLauncher, deliverer TicketDeliverer, renderer *ticketing.Renderer, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orders:        orders,
		launcher:      launcher,
		deliverer:     deliverer,
		verifier:      razorpay.NewVerifier(cfg.WebhookSecret),
		renderer:      renderer,
		qr:            ticketing.NewQRRenderer(ticketing.DefaultQROptions()),
		cfg:           cfg,
		logger:        logger,
		ticketLimiter: rate.NewWindowLimiter(60, time.Minute),
		loginLimiter:  rate.NewWindowLimiter(5, time.Minute),
		now:           time.Now,
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if login, ok := authmw.AdminLoginFromContext(r.Context()); ok {
		logger = logger.With("admin", login)
	}
	return logger
}

// Healthz reports whether the service can reach its database.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	if err := h.orders.Ping(ctx); err != nil {
		h.loggerForRequest(r).Warn("action", "action", "healthz", "status", "db_unreachable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

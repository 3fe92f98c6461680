package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"frutico/backend/internal/models"
	"frutico/backend/internal/repository"
	"frutico/backend/internal/ticketing"

	"github.com/go-chi/chi/v5"
)

const resendTimeout = 30 * time.Second

type undeliveredResponse struct {
	Items []models.Order `json:"items"`
	Total int            `json:"total"`
}

// ListUndeliveredOrders lists paid orders whose ticket email never went out.
func (h *Handler) ListUndeliveredOrders(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	limit := parseIntQuery(r, "limit", 100)

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	orders, err := h.orders.ListUndeliveredOrders(ctx, limit)
	if err != nil {
		logger.Error("action", "action", "admin_undelivered", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, undeliveredResponse{Items: orders, Total: len(orders)})
}

// ResendTicket delivers the ticket of a paid order again and waits for the result.
func (h *Handler) ResendTicket(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := h.withTimeout(r.Context())
	order, err := h.orders.GetOrderByID(ctx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrInvalidID) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		logger.Error("action", "action", "admin_resend_ticket", "status", "db_error", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if !order.IsPaid() {
		logger.Warn("action", "action", "admin_resend_ticket", "status", "not_paid", "id", order.ID, "order_status", order.Status)
		writeError(w, http.StatusConflict, "order is not paid")
		return
	}
	if h.deliverer == nil {
		writeError(w, http.StatusServiceUnavailable, "ticket delivery unavailable")
		return
	}

	sendCtx, sendCancel := context.WithTimeout(r.Context(), resendTimeout)
	defer sendCancel()
	if err := h.deliverer.Deliver(sendCtx, order); err != nil {
		logger.Error("action", "action", "admin_resend_ticket", "status", "delivery_failed", "id", order.ID, "error", err)
		writeError(w, http.StatusBadGateway, "ticket delivery failed")
		return
	}
	logger.Info("action", "action", "admin_resend_ticket", "status", "sent", "id", order.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "ticketId": ticketing.TicketID(order.ID)})
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

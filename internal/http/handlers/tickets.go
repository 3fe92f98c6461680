package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"frutico/backend/internal/models"
	"frutico/backend/internal/repository"
	"frutico/backend/internal/ticketing"

	"github.com/go-chi/chi/v5"
)

// TicketPage renders the public ticket document a QR code points at.
func (h *Handler) TicketPage(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	order, ok := h.loadTicketOrder(w, r, "ticket_page")
	if !ok {
		return
	}

	qrSrc := ""
	if order.IsPaid() {
		qrSrc = ticketing.TicketURL(h.cfg.BaseURL, order.ID) + "/qr.png"
	}
	page, err := h.renderer.RenderPage(h.renderer.ViewFor(order), qrSrc)
	if err != nil {
		logger.Error("action", "action", "ticket_page", "status", "render_failed", "id", order.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "render error")
		return
	}
	writeHTML(w, http.StatusOK, page)
}

// TicketQR serves the QR image of a paid ticket.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	order, ok := h.loadTicketOrder(w, r, "ticket_qr")
	if !ok {
		return
	}
	if !order.IsPaid() || order.QRTarget == "" {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	png, err := h.qr.RenderPNG(order.QRTarget)
	if err != nil {
		logger.Error("action", "action", "ticket_qr", "status", "render_failed", "id", order.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "render error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) loadTicketOrder(w http.ResponseWriter, r *http.Request, action string) (models.Order, bool) {
	logger := h.loggerForRequest(r)
	if ok, retry := h.ticketLimiter.Allow(clientIP(r)); !ok {
		logger.Warn("action", "action", action, "status", "rate_limited")
		writeTooManyRequests(w, retry)
		return models.Order{}, false
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusNotFound, "ticket not found")
		return models.Order{}, false
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	order, err := h.orders.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrInvalidID) {
			writeError(w, http.StatusNotFound, "ticket not found")
			return models.Order{}, false
		}
		logger.Error("action", "action", action, "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return models.Order{}, false
	}
	return order, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

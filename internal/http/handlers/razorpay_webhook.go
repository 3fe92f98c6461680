package handlers

import (
	"errors"
	"io"
	"net/http"

	"frutico/backend/internal/integrations/razorpay"
	"frutico/backend/internal/models"
)

const maxWebhookBodyBytes = 1 << 20

// RazorpayWebhook verifies a payment notification and reconciles the matching order.
// The ticket is sent after the response, on the fulfillment runner.
func (h *Handler) RazorpayWebhook(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		logger.Warn("action", "action", "razorpay_webhook", "status", "read_failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(razorpay.SignatureHeader)); err != nil {
		switch {
		case errors.Is(err, razorpay.ErrSecretNotConfigured):
			logger.Error("action", "action", "razorpay_webhook", "status", "secret_not_configured")
			writeError(w, http.StatusInternalServerError, "server configuration error")
		case errors.Is(err, razorpay.ErrMissingSignature):
			logger.Warn("action", "action", "razorpay_webhook", "status", "missing_signature")
			writeError(w, http.StatusBadRequest, "missing signature")
		default:
			logger.Warn("action", "action", "razorpay_webhook", "status", "invalid_signature")
			writeError(w, http.StatusBadRequest, "invalid signature")
		}
		return
	}

	event, err := razorpay.ParseEvent(body)
	if err != nil {
		logger.Warn("action", "action", "razorpay_webhook", "status", "invalid_payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	switch ev := event.(type) {
	case razorpay.PaymentCaptured:
		h.reconcilePayment(w, r, ev)
	default:
		logger.Info("action", "action", "razorpay_webhook", "status", "ignored", "event", event.EventType())
		writeJSON(w, http.StatusOK, map[string]bool{"ignored": true})
	}
}

func (h *Handler) reconcilePayment(w http.ResponseWriter, r *http.Request, ev razorpay.PaymentCaptured) {
	logger := h.loggerForRequest(r).With("event", ev.Type, "order_id", ev.OrderID, "payment_id", ev.PaymentID)

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	order, reconciled, err := h.orders.MarkOrderPaid(ctx, models.MarkPaidParams{
		OrderID:       ev.OrderID,
		PaymentID:     ev.PaymentID,
		AmountMinor:   ev.AmountMinor,
		TicketBaseURL: h.cfg.BaseURL,
	})
	if err != nil {
		logger.Error("action", "action", "razorpay_webhook", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "webhook processing error")
		return
	}
	if !reconciled {
		logger.Info("action", "action", "razorpay_webhook", "status", "no_pending_order")
		writeJSON(w, http.StatusOK, map[string]bool{"notFound": true})
		return
	}

	logger.Info("action", "action", "razorpay_webhook", "status", "paid", "id", order.ID, "amount", order.Amount)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	if h.launcher == nil || !h.launcher.Launch(order) {
		logger.Error("action", "action", "razorpay_webhook", "status", "fulfillment_not_started", "id", order.ID)
	}
}

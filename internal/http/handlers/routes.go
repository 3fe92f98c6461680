package handlers

import (
	authmw "frutico/backend/internal/http/middleware"

	"github.com/go-chi/chi/v5"
)

// Mount registers every endpoint on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/healthz", h.Healthz)

	r.Post("/webhook/razorpay", h.RazorpayWebhook)

	r.Get("/ticket/{id}", h.TicketPage)
	r.Get("/ticket/{id}/qr.png", h.TicketQR)

	r.Post("/auth/admin", h.AuthAdmin)

	r.Group(func(r chi.Router) {
		r.Use(authmw.AdminMiddleware(h.cfg.JWTSecret))
		r.Get("/admin/orders/undelivered", h.ListUndeliveredOrders)
		r.Post("/admin/orders/{id}/resend-ticket", h.ResendTicket)
	})
}

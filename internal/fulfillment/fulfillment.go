package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"frutico/backend/internal/integrations"
	"frutico/backend/internal/models"
	"frutico/backend/internal/ticketing"
)

var (
	ErrNotPaid              = errors.New("order is not paid")
	ErrMailerNotConfigured  = errors.New("email delivery is not configured")
	ErrMissingRecipient     = errors.New("order has no email address")
	ErrRendererNotAvailable = errors.New("ticket renderer is not configured")
)

type Mailer interface {
	Send(ctx context.Context, email integrations.Email) error
}

type QRRenderer interface {
	RenderPNG(target string) ([]byte, error)
}

type Archive interface {
	ArchiveTicket(ctx context.Context, orderID string, html string, qrPNG []byte) error
}

// OutcomeRecorder remembers whether an order's ticket went out. It never touches payment status.
type OutcomeRecorder interface {
	MarkTicketDelivered(ctx context.Context, id string, at time.Time) error
	MarkTicketFailed(ctx context.Context, id string, reason string) error
}

// AlertFunc is called for every failed delivery; paid-but-undelivered orders need a human.
type AlertFunc func(ctx context.Context, order models.Order, err error)

type Options struct {
	QR       QRRenderer
	Renderer *ticketing.Renderer
	Mailer   Mailer
	Archive  Archive
	Recorder OutcomeRecorder
	Subject  string
	Alert    AlertFunc
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service turns a paid order into an emailed ticket.
type Service struct {
	qr       QRRenderer
	renderer *ticketing.Renderer
	mailer   Mailer
	archive  Archive
	recorder OutcomeRecorder
	subject  string
	alert    AlertFunc
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	qr := opts.QR
	if qr == nil {
		qr = ticketing.NewQRRenderer(ticketing.DefaultQROptions())
	}
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		subject = "Your Frutico Ice Cream Ticket"
	}
	return &Service{
		qr:       qr,
		renderer: opts.Renderer,
		mailer:   opts.Mailer,
		archive:  opts.Archive,
		recorder: opts.Recorder,
		subject:  subject,
		alert:    opts.Alert,
		logger:   logger,
		now:      now,
	}
}

// Deliver renders and emails the ticket for a paid order, then records the outcome.
func (s *Service) Deliver(ctx context.Context, order models.Order) error {
	if err := s.deliver(ctx, order); err != nil {
		s.RecordFailure(ctx, order, err)
		return err
	}
	if s.recorder != nil {
		if err := s.recorder.MarkTicketDelivered(ctx, order.ID, s.now()); err != nil {
			s.logger.Warn("ticket_fulfillment", "status", "record_delivery_failed", "order_id", order.OrderID, "id", order.ID, "error", err)
		}
	}
	s.logger.Info("ticket_fulfillment", "status", "delivered", "order_id", order.OrderID, "id", order.ID, "ticket_id", ticketing.TicketID(order.ID))
	return nil
}

// RecordFailure logs a failed delivery, stores the reason and fires the alert hook.
func (s *Service) RecordFailure(ctx context.Context, order models.Order, cause error) {
	s.logger.Error("ticket_fulfillment", "status", "failed", "order_id", order.OrderID, "id", order.ID, "error", cause)
	if s.recorder != nil {
		if err := s.recorder.MarkTicketFailed(context.WithoutCancel(ctx), order.ID, cause.Error()); err != nil {
			s.logger.Warn("ticket_fulfillment", "status", "record_failure_failed", "order_id", order.OrderID, "id", order.ID, "error", err)
		}
	}
	if s.alert != nil {
		s.alert(ctx, order, cause)
	}
}

func (s *Service) deliver(ctx context.Context, order models.Order) error {
	if !order.IsPaid() {
		return ErrNotPaid
	}
	if s.renderer == nil {
		return ErrRendererNotAvailable
	}
	if strings.TrimSpace(order.Email) == "" {
		return ErrMissingRecipient
	}

	qrPNG, err := s.qr.RenderPNG(order.QRTarget)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	view := s.renderer.ViewFor(order)
	html, err := s.renderer.RenderEmail(view)
	if err != nil {
		return err
	}

	if s.mailer == nil {
		return ErrMailerNotConfigured
	}
	if err := s.mailer.Send(ctx, integrations.Email{
		To:      order.Email,
		Subject: s.subject,
		HTML:    html,
		Inline: []integrations.InlineAttachment{{
			Filename:  ticketing.QRFileName,
			Content:   qrPNG,
			ContentID: ticketing.QRContentID,
		}},
	}); err != nil {
		return fmt.Errorf("send ticket email: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.ArchiveTicket(ctx, order.ID, html, qrPNG); err != nil {
			s.logger.Warn("ticket_fulfillment", "status", "archive_failed", "order_id", order.OrderID, "id", order.ID, "error", err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"frutico/backend/internal/models"
	"frutico/backend/internal/ticketing"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `id::text, order_id, COALESCE(payment_id, ''), name, email, phone, persons, location,
	visit_date, COALESCE(amount, 0)::float8, status, COALESCE(qr_target, ''), is_used,
	ticket_sent_at, COALESCE(ticket_error, ''), created_at, updated_at`

// GetOrderByID returns the order with the given record id.
func (r *Repository) GetOrderByID(ctx context.Context, id string) (models.Order, error) {
	return r.fetchOrder(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid`, strings.TrimSpace(id))
}

// GetOrderByOrderID returns the order with the given provider order reference.
func (r *Repository) GetOrderByOrderID(ctx context.Context, orderID string) (models.Order, error) {
	return r.fetchOrder(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, strings.TrimSpace(orderID))
}

// MarkOrderPaid moves a pending order to paid exactly once.
// The pending row is locked before the conditional update, so of several concurrent
// deliveries for one order only the first sees it; the rest get reconciled=false.
func (r *Repository) MarkOrderPaid(ctx context.Context, params models.MarkPaidParams) (models.Order, bool, error) {
	orderID := strings.TrimSpace(params.OrderID)
	if orderID == "" {
		return models.Order{}, false, nil
	}

	var out models.Order
	reconciled := false
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		pending, err := r.fetchOrder(ctx, tx, `
SELECT `+orderColumns+`
FROM orders
WHERE order_id = $1
	AND status = $2
FOR UPDATE;`, orderID, models.OrderStatusPending)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				return nil
			}
			return err
		}

		updated, err := r.fetchOrder(ctx, tx, `
UPDATE orders
SET payment_id = $2,
	status = $3,
	amount = $4,
	qr_target = $5,
	updated_at = now()
WHERE id = $1::uuid
	AND status = $6
RETURNING `+orderColumns+`;`,
			pending.ID,
			strings.TrimSpace(params.PaymentID),
			models.OrderStatusPaid,
			ticketing.MinorToMajor(params.AmountMinor),
			ticketing.TicketURL(params.TicketBaseURL, pending.ID),
			models.OrderStatusPending,
		)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				return nil
			}
			return err
		}
		out = updated
		reconciled = true
		return nil
	})
	if err != nil {
		return models.Order{}, false, fmt.Errorf("mark order paid: %w", err)
	}
	return out, reconciled, nil
}

// MarkTicketDelivered records a successful ticket email. Status is left alone.
func (r *Repository) MarkTicketDelivered(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET ticket_sent_at = $2,
	ticket_error = NULL,
	updated_at = now()
WHERE id = $1::uuid;`, strings.TrimSpace(id), at.UTC())
	if err != nil {
		if isInvalidUUID(err) {
			return ErrInvalidID
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkTicketFailed records why fulfillment failed so operators can follow up.
func (r *Repository) MarkTicketFailed(ctx context.Context, id string, reason string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET ticket_error = $2,
	updated_at = now()
WHERE id = $1::uuid;`, strings.TrimSpace(id), nullString(truncate(reason, 500)))
	if err != nil {
		if isInvalidUUID(err) {
			return ErrInvalidID
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListUndeliveredOrders returns paid orders whose ticket has not gone out, oldest first.
func (r *Repository) ListUndeliveredOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE status = $1
	AND ticket_sent_at IS NULL
ORDER BY updated_at ASC
LIMIT $2;`, models.OrderStatusPaid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

func (r *Repository) fetchOrder(ctx context.Context, q queryRunner, query string, args ...interface{}) (models.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, ErrOrderNotFound
		}
		if isInvalidUUID(err) {
			return models.Order{}, ErrInvalidID
		}
		return models.Order{}, err
	}
	return order, nil
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var out models.Order
	if err := row.Scan(
		&out.ID,
		&out.OrderID,
		&out.PaymentID,
		&out.Name,
		&out.Email,
		&out.Phone,
		&out.Persons,
		&out.Location,
		&out.VisitDate,
		&out.Amount,
		&out.Status,
		&out.QRTarget,
		&out.IsUsed,
		&out.TicketSentAt,
		&out.TicketError,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	return out, nil
}

// truncate caps s at max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

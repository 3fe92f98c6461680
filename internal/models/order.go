package models

import "time"

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

const (
	LocationAnnanagar  = "annanagar"
	LocationKulithalai = "kulithalai"
)

// Order is a visit booking awaiting or holding payment.
// ID is the store's record identity; OrderID is the payment provider's order reference.
type Order struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"orderId"`
	PaymentID    string     `json:"paymentId,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Persons      int        `json:"persons"`
	Location     string     `json:"location"`
	VisitDate    time.Time  `json:"visitDate"`
	Amount       float64    `json:"amount"`
	Status       string     `json:"status"`
	QRTarget     string     `json:"qrTarget,omitempty"`
	IsUsed       bool       `json:"isUsed"`
	TicketSentAt *time.Time `json:"ticketSentAt,omitempty"`
	TicketError  string     `json:"ticketError,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsPaid reports whether the order has been reconciled.
func (o Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// MarkPaidParams carries a captured payment into the store.
type MarkPaidParams struct {
	OrderID       string
	PaymentID     string
	AmountMinor   int64
	TicketBaseURL string
}

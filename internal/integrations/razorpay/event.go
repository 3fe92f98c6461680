package razorpay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

var ErrInvalidPayload = errors.New("invalid webhook payload")

var validate = validator.New()

// Event is one of the webhook variants this service understands.
type Event interface {
	EventType() string
}

// PaymentCaptured reports money captured against a provider order.
type PaymentCaptured struct {
	Type        string
	PaymentID   string
	OrderID     string
	AmountMinor int64
	Currency    string
}

func (e PaymentCaptured) EventType() string { return e.Type }

// UnknownEvent is any event type that is acknowledged and ignored.
type UnknownEvent struct {
	Type string
}

func (e UnknownEvent) EventType() string { return e.Type }

type envelope struct {
	Event   string          `json:"event" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type paymentPayload struct {
	Payment *struct {
		Entity *paymentEntity `json:"entity" validate:"required"`
	} `json:"payment" validate:"required"`
}

type paymentEntity struct {
	ID       string `json:"id" validate:"required"`
	// order_id is null for payments made outside an order.
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount" validate:"gte=0"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	env.Event = strings.TrimSpace(env.Event)
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch env.Event {
	case EventPaymentCaptured, EventOrderPaid:
		return parsePaymentCaptured(env)
	default:
		return UnknownEvent{Type: env.Event}, nil
	}
}

func parsePaymentCaptured(env envelope) (Event, error) {
	var payload paymentPayload
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	entity := payload.Payment.Entity
	return PaymentCaptured{
		Type:        env.Event,
		PaymentID:   strings.TrimSpace(entity.ID),
		OrderID:     strings.TrimSpace(entity.OrderID),
		AmountMinor: entity.Amount,
		Currency:    strings.ToUpper(strings.TrimSpace(entity.Currency)),
	}, nil
}

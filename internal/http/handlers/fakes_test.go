package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"frutico/backend/internal/config"
	"frutico/backend/internal/models"
	"frutico/backend/internal/repository"
	"frutico/backend/internal/ticketing"

	"github.com/go-chi/chi/v5"
)

const (
	testBaseURL = "https://tickets.frutico.test"
	testSecret  = "whsec_test"
)

// fakeStore keeps orders in memory and applies the same pending->paid guard as the database.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	markErr  error
	getErr   error
	pingErr  error
	markHits int
}

func newFakeStore(orders ...models.Order) *fakeStore {
	s := &fakeStore{orders: make(map[string]*models.Order)}
	for i := range orders {
		o := orders[i]
		s.orders[o.ID] = &o
	}
	return s
}

func (s *fakeStore) MarkOrderPaid(ctx context.Context, params models.MarkPaidParams) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markHits++
	if s.markErr != nil {
		return models.Order{}, false, s.markErr
	}
	for _, o := range s.orders {
		if o.OrderID != params.OrderID || o.Status != models.OrderStatusPending {
			continue
		}
		o.Status = models.OrderStatusPaid
		o.PaymentID = params.PaymentID
		o.Amount = ticketing.MinorToMajor(params.AmountMinor)
		o.QRTarget = ticketing.TicketURL(params.TicketBaseURL, o.ID)
		return *o, true, nil
	}
	return models.Order{}, false, nil
}

func (s *fakeStore) GetOrderByID(ctx context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return models.Order{}, s.getErr
	}
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, repository.ErrOrderNotFound
	}
	return *o, nil
}

func (s *fakeStore) ListUndeliveredOrders(ctx context.Context, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.IsPaid() && o.TicketSentAt == nil {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkTicketDelivered(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.TicketSentAt = &at
	o.TicketError = ""
	return nil
}

func (s *fakeStore) MarkTicketFailed(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.TicketError = reason
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	return s.pingErr
}

func (s *fakeStore) get(id string) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

type fakeLauncher struct {
	mu       sync.Mutex
	launched []models.Order
}

func (l *fakeLauncher) Launch(order models.Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched = append(l.launched, order)
	return true
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

type fakeDeliverer struct {
	err       error
	delivered []models.Order
}

func (d *fakeDeliverer) Deliver(ctx context.Context, order models.Order) error {
	if d.err != nil {
		return d.err
	}
	d.delivered = append(d.delivered, order)
	return nil
}

var errStoreDown = errors.New("connection refused")

func pendingOrder() models.Order {
	return models.Order{
		ID:        "6f1c2a9e-4b7d-4c1a-9e2f-0a1b2c3d4e5f",
		OrderID:   "order_N5xYz",
		Name:      "Priya",
		Email:     "priya@example.com",
		Phone:     "+919800000000",
		Persons:   3,
		Location:  models.LocationAnnanagar,
		VisitDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:    models.OrderStatusPending,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:       testBaseURL,
		WebhookSecret: testSecret,
		JWTSecret:     "jwt-secret",
		Ticket:        config.TicketConfig{Timezone: "Asia/Kolkata"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T) *ticketing.Renderer {
	t.Helper()
	dates, err := ticketing.NewDateFormatter("Asia/Kolkata")
	if err != nil {
		t.Fatalf("date formatter: %v", err)
	}
	renderer, err := ticketing.NewRenderer(dates)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return renderer
}

func newTestRouter(t *testing.T, store OrderStore, launcher TicketLauncher, deliverer TicketDeliverer, cfg *config.Config) (http.Handler, *Handler) {
	t.Helper()
	h := New(store, launcher, deliverer, newTestRenderer(t), cfg, discardLogger())
	r := chi.NewRouter()
	h.Mount(r)
	return r, h
}

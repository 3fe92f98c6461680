package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"frutico/backend/internal/models"
)

// Deliverer is the unit of work a Runner executes.
type Deliverer interface {
	Deliver(ctx context.Context, order models.Order) error
	RecordFailure(ctx context.Context, order models.Order, cause error)
}

// Runner executes deliveries detached from the request that triggered them.
// Tasks share a process-lifetime context that is only canceled when Shutdown gives up waiting.
type Runner struct {
	deliverer Deliverer
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(deliverer Deliverer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		deliverer: deliverer,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Launch starts delivery for order and returns immediately.
// It reports false when the runner is shutting down and the task was not started.
func (r *Runner) Launch(order models.Order) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("ticket_fulfillment", "status", "rejected_shutting_down", "order_id", order.OrderID, "id", order.ID)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(order)
	return true
}

func (r *Runner) run(order models.Order) {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.deliverer.RecordFailure(r.ctx, order, fmt.Errorf("fulfillment panic: %v", rec))
		}
	}()
	// Deliver records and logs its own failures.
	_ = r.deliverer.Deliver(r.ctx, order)
}

// Shutdown stops accepting tasks and waits for in-flight ones.
// If ctx ends first, the remaining tasks are canceled and ctx.Err() is returned without
// waiting for them to observe it.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

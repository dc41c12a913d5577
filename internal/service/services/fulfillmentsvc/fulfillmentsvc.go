package fulfillmentsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/event"
	"github.com/corray333/food-ordering/internal/service/models/order"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Step moves an order to Status once After has passed since placement.
type Step struct {
	Status order.Status
	After  time.Duration
}

// DefaultSteps is the kitchen simulation used when no steps are configured.
func DefaultSteps() []Step {
	return []Step{
		{Status: order.StatusConfirmed, After: 2 * time.Second},
		{Status: order.StatusPreparing, After: 5 * time.Second},
		{Status: order.StatusReady, After: 15 * time.Second},
	}
}

// ParseSteps reads steps written as "status@duration", e.g. "confirmed@2s".
func ParseSteps(raw []string) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for _, r := range raw {
		name, after, ok := strings.Cut(strings.TrimSpace(r), "@")
		if !ok {
			return nil, fmt.Errorf("step %q: want status@duration", r)
		}

		st, err := order.ParseStatus(name)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", r, err)
		}
		d, err := time.ParseDuration(after)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", r, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("step %q: negative delay", r)
		}
		if len(steps) > 0 && d < steps[len(steps)-1].After {
			return nil, fmt.Errorf("step %q: delays must not decrease", r)
		}

		steps = append(steps, Step{Status: st, After: d})
	}

	return steps, nil
}

type statusClient interface {
	GetStatus(ctx context.Context, orderID int64) (*order.StatusSnapshot, error)
	UpdateStatus(ctx context.Context, orderID int64, st order.Status) error
}

// FulfillmentService walks placed orders through the kitchen steps by calling the order admin API.
type FulfillmentService struct {
	client statusClient
	steps  []Step
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// option is a function that configures the FulfillmentService.
type option func(*FulfillmentService)

// MustNewFulfillmentService creates a new FulfillmentService.
func MustNewFulfillmentService(opts ...option) *FulfillmentService {
	s := &FulfillmentService{
		steps: DefaultSteps(),
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		panic("fulfillment service needs an order status client")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithStatusClient(client statusClient) option {
	return func(s *FulfillmentService) {
		s.client = client
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithSteps(steps []Step) option {
	return func(s *FulfillmentService) {
		if len(steps) > 0 {
			s.steps = steps
		}
	}
}

// Advance runs the remaining steps for a placed order. It is safe to call again for
// the same order: steps the order already reached are skipped, and a cancelled or
// delivered order is left alone.
func (s *FulfillmentService) Advance(ctx context.Context, placed event.OrderPlaced) error {
	ctx, span := otel.Tracer("fulfillmentsvc").Start(ctx, "FulfillmentService.Advance")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", placed.OrderID))

	start := placed.PlacedAt
	if start.IsZero() {
		start = s.now()
	}

	for _, step := range s.steps {
		if wait := start.Add(step.After).Sub(s.now()); wait > 0 {
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
		}

		snap, err := s.client.GetStatus(ctx, placed.OrderID)
		if errs.IsNotFound(err) {
			slog.Warn("Order disappeared during fulfillment", "order_id", placed.OrderID)

			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read order status: %w", err)
		}

		if snap.Status.IsFinal() {
			slog.Info("Order is final, fulfillment stopped", "order_id", placed.OrderID, "status", snap.Status)

			return nil
		}
		if snap.Status.Reached(step.Status) {
			continue
		}

		if err := s.client.UpdateStatus(ctx, placed.OrderID, step.Status); err != nil {
			return fmt.Errorf("failed to move order to %s: %w", step.Status, err)
		}

		slog.Info("Order advanced", "order_id", placed.OrderID, "status", step.Status)
	}

	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

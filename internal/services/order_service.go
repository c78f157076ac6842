package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/repositories"
)

var (
	errOrderStateRequired    = errors.New("order service: state manager is required")
	errOrderRepoRequired     = errors.New("order service: order repository is required")
	errOrderCountersRequired = errors.New("order service: counter repository is required")
	errOrderClockRequired    = errors.New("order service: clock is required")
)

var (
	// ErrOrderEmptyCart indicates submission was attempted with nothing in the cart.
	ErrOrderEmptyCart = errors.New("order service: cart is empty")
	// ErrOrderMissingContact indicates the session never captured contact info.
	ErrOrderMissingContact = errors.New("order service: contact info missing")
	// ErrOrderNotFound indicates no order exists with the given ID.
	ErrOrderNotFound = errors.New("order service: order not found")
	// ErrOrderInvalidInput indicates a malformed identifier, status, or filter.
	ErrOrderInvalidInput = errors.New("order service: invalid input")
	// ErrOrderInvalidTransition indicates a status change the lifecycle forbids.
	ErrOrderInvalidTransition = errors.New("order service: invalid status transition")
	// ErrOrderUnavailable indicates the backing store rejected the operation.
	ErrOrderUnavailable = errors.New("order service: storage unavailable")
)

const notifyTimeout = 10 * time.Second

// SubmitOrderResult reports the persisted order back to the review page.
type SubmitOrderResult struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	OrderType     OrderType `json:"orderType"`
	TotalQuantity int       `json:"totalQuantity"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// ListOrdersQuery narrows the admin order listing.
type ListOrdersQuery struct {
	Status    string
	OrderType string
	Limit     int
}

// UpdateOrderStatusCommand moves an order along its lifecycle.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  string
}

// OrderService turns a session's cart into a persisted order and exposes the
// admin lifecycle operations over submitted orders.
type OrderService interface {
	Submit(ctx context.Context, sessionID string) (SubmitOrderResult, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error)
}

// OrderServiceDeps wires persistence and notification behind the service.
// Publisher and Mailer are optional; submission succeeds without them.
type OrderServiceDeps struct {
	State        *StateManager
	Orders       repositories.OrderRepository
	Counters     repositories.CounterRepository
	Publisher    OrderEventPublisher
	Mailer       Mailer
	CounterID    string
	NumberPrefix string
	Clock        func() time.Time
	IDGenerator  func() string
	Logger       func(ctx context.Context, msg string, fields map[string]any)
}

type orderService struct {
	state        *StateManager
	orders       repositories.OrderRepository
	counters     repositories.CounterRepository
	publisher    OrderEventPublisher
	mailer       Mailer
	counterID    string
	numberPrefix string
	now          func() time.Time
	newID        func() string
	log          func(ctx context.Context, msg string, fields map[string]any)
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.State == nil {
		return nil, errOrderStateRequired
	}
	if deps.Orders == nil {
		return nil, errOrderRepoRequired
	}
	if deps.Counters == nil {
		return nil, errOrderCountersRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	counterID := strings.TrimSpace(deps.CounterID)
	if counterID == "" {
		counterID = "orders"
	}
	prefix := strings.TrimSpace(deps.NumberPrefix)
	if prefix == "" {
		prefix = "ORD"
	}
	return &orderService{
		state:        deps.State,
		orders:       deps.Orders,
		counters:     deps.Counters,
		publisher:    deps.Publisher,
		mailer:       deps.Mailer,
		counterID:    counterID,
		numberPrefix: prefix,
		now:          func() time.Time { return deps.Clock().UTC() },
		newID:        newID,
		log:          logger,
	}, nil
}

// Submit persists the session's cart as an order. The cart is cleared only
// after the order write succeeds, so a failed submission leaves the session
// exactly as it was. Contact info survives for the next order.
func (s *orderService) Submit(ctx context.Context, sessionID string) (SubmitOrderResult, error) {
	var order domain.Order

	_, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if len(state.Cart) == 0 {
			return ErrOrderEmptyCart
		}
		if state.Contact == nil {
			return ErrOrderMissingContact
		}

		sequence, err := s.counters.Next(ctx, s.counterID)
		if err != nil {
			return fmt.Errorf("%w: allocate order number: %v", ErrOrderUnavailable, err)
		}

		now := s.now()
		order = domain.Order{
			ID:            s.newID(),
			Number:        fmt.Sprintf("%s-%06d", s.numberPrefix, sequence),
			OrderType:     state.Cart[0].OrderType,
			Contact:       *state.Contact,
			Items:         append([]domain.CartItem(nil), state.Cart...),
			TotalQuantity: domain.TotalQuantity(state.Cart),
			Status:        domain.OrderStatusNew,
			SessionID:     sessionID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.orders.Insert(ctx, order); err != nil {
			return s.translateRepoError("insert order", err)
		}

		state.Cart = nil
		state.Conflict = nil
		state.ResetUploads()
		state.Wizard = domain.WizardState{Flow: order.OrderType}
		return nil
	})
	if err != nil {
		return SubmitOrderResult{}, err
	}

	s.notify(ctx, order)

	return SubmitOrderResult{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		OrderType:     order.OrderType,
		TotalQuantity: order.TotalQuantity,
		SubmittedAt:   order.CreatedAt,
	}, nil
}

// Get returns one order by ID.
func (s *orderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.translateRepoError("find order", err)
	}
	return order, nil
}

// List returns submitted orders, newest first, narrowed by the query.
func (s *orderService) List(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter := repositories.OrderFilter{Limit: query.Limit}

	if status := strings.TrimSpace(query.Status); status != "" {
		parsed := domain.OrderStatus(status)
		if !parsed.Valid() {
			return nil, ErrOrderInvalidInput
		}
		filter.Status = parsed
	}
	if orderType := strings.TrimSpace(query.OrderType); orderType != "" {
		parsed := domain.OrderType(orderType)
		if !parsed.Valid() {
			return nil, ErrOrderInvalidInput
		}
		filter.OrderType = parsed
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.translateRepoError("list orders", err)
	}
	return orders, nil
}

// UpdateStatus advances an order along its lifecycle.
func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}
	next := domain.OrderStatus(strings.TrimSpace(cmd.Status))
	if !next.Valid() {
		return domain.Order{}, ErrOrderInvalidInput
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.translateRepoError("find order", err)
	}
	if !order.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, order.Status, next)
	}

	now := s.now()
	if err := s.orders.UpdateStatus(ctx, orderID, next, now); err != nil {
		return domain.Order{}, s.translateRepoError("update order status", err)
	}

	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

// notify fires confirmation email and the order event without blocking the
// response. Failures are logged and never surface to the caller.
func (s *orderService) notify(ctx context.Context, order domain.Order) {
	detached := context.WithoutCancel(ctx)

	if s.mailer != nil {
		go func() {
			sendCtx, cancel := context.WithTimeout(detached, notifyTimeout)
			defer cancel()
			if err := s.mailer.SendOrderConfirmation(sendCtx, order); err != nil {
				s.log(sendCtx, "order confirmation email failed", map[string]any{
					"orderId":     order.ID,
					"orderNumber": order.Number,
					"error":       err.Error(),
				})
			}
		}()
	}

	if s.publisher != nil {
		go func() {
			publishCtx, cancel := context.WithTimeout(detached, notifyTimeout)
			defer cancel()
			if _, err := s.publisher.PublishOrderEvent(publishCtx, OrderEventMessage{
				Event:         "order.submitted",
				OrderID:       order.ID,
				OrderNumber:   order.Number,
				OrderType:     string(order.OrderType),
				SessionID:     order.SessionID,
				ItemCount:     len(order.Items),
				TotalQuantity: order.TotalQuantity,
				SubmittedAt:   order.CreatedAt,
			}); err != nil {
				s.log(publishCtx, "order event publish failed", map[string]any{
					"orderId":     order.ID,
					"orderNumber": order.Number,
					"error":       err.Error(),
				})
			}
		}()
	}
}

func (s *orderService) translateRepoError(op string, err error) error {
	switch {
	case isRepoNotFound(err):
		return ErrOrderNotFound
	case isRepoConflict(err):
		return fmt.Errorf("%w: %s", ErrOrderUnavailable, op)
	case isRepoUnavailable(err):
		return fmt.Errorf("%w: %s", ErrOrderUnavailable, op)
	default:
		return fmt.Errorf("order service: %s: %w", op, err)
	}
}

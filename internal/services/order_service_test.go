package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/repositories"
)

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return "stub repository error" }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

type stubOrderRepository struct {
	insertFunc       func(ctx context.Context, order domain.Order) error
	findFunc         func(ctx context.Context, orderID string) (domain.Order, error)
	listFunc         func(ctx context.Context, filter repositories.OrderFilter) ([]domain.Order, error)
	updateStatusFunc func(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, order)
	}
	return nil
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFunc != nil {
		return s.findFunc(ctx, orderID)
	}
	return domain.Order{}, stubRepoError{notFound: true}
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]domain.Order, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return nil, nil
}

func (s *stubOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	if s.updateStatusFunc != nil {
		return s.updateStatusFunc(ctx, orderID, status, updatedAt)
	}
	return nil
}

type stubCounterRepository struct {
	nextFunc func(ctx context.Context, counterID string) (int64, error)
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string) (int64, error) {
	if s.nextFunc != nil {
		return s.nextFunc(ctx, counterID)
	}
	return 1, nil
}

type capturingPublisher struct {
	mu       sync.Mutex
	messages []OrderEventMessage
	done     chan struct{}
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{done: make(chan struct{}, 1)}
}

func (p *capturingPublisher) PublishOrderEvent(_ context.Context, message OrderEventMessage) (string, error) {
	p.mu.Lock()
	p.messages = append(p.messages, message)
	p.mu.Unlock()
	p.done <- struct{}{}
	return "msg-1", nil
}

func (p *capturingPublisher) wait(t *testing.T) OrderEventMessage {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("order event never published")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[len(p.messages)-1]
}

type capturingMailer struct {
	mu     sync.Mutex
	orders []domain.Order
	done   chan struct{}
	err    error
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{done: make(chan struct{}, 1)}
}

func (m *capturingMailer) SendOrderConfirmation(_ context.Context, order domain.Order) error {
	m.mu.Lock()
	m.orders = append(m.orders, order)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.err
}

func (m *capturingMailer) wait(t *testing.T) domain.Order {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email never sent")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[len(m.orders)-1]
}

func newTestOrderService(t *testing.T, manager *StateManager, deps OrderServiceDeps) OrderService {
	t.Helper()
	deps.State = manager
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepository{}
	}
	if deps.Counters == nil {
		deps.Counters = &stubCounterRepository{}
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return wizardTestTime }
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = sequentialIDs("ord")
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func seedSubmittableSession(t *testing.T, manager *StateManager) string {
	t.Helper()
	const sessionID = "order-session"
	contact := schoolsContact()
	_, err := manager.Update(context.Background(), sessionID, func(state *SessionState, _ bool) error {
		state.Contact = &contact
		state.Wizard = domain.WizardState{
			Flow:       domain.OrderTypeSchools,
			Phase:      domain.PhaseCompleted,
			Categories: []string{"shirts"},
		}
		state.Cart = []domain.CartItem{
			{ID: "a", ProductID: "bl1", OrderType: domain.OrderTypeSchools, Quantity: 5, Sizes: domain.SizeMatrix{"10": 5}},
			{ID: "b", ProductID: "ps1", OrderType: domain.OrderTypeSchools, Quantity: 5, Sizes: domain.SizeMatrix{"M": 3, "L": 2}},
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return sessionID
}

func TestOrderSubmit(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	var inserted domain.Order
	repo := &stubOrderRepository{
		insertFunc: func(_ context.Context, order domain.Order) error {
			inserted = order
			return nil
		},
	}
	counters := &stubCounterRepository{
		nextFunc: func(_ context.Context, counterID string) (int64, error) {
			if counterID != "orders" {
				t.Errorf("counter ID = %q", counterID)
			}
			return 42, nil
		},
	}
	publisher := newCapturingPublisher()
	mailer := newCapturingMailer()

	svc := newTestOrderService(t, manager, OrderServiceDeps{
		Orders:    repo,
		Counters:  counters,
		Publisher: publisher,
		Mailer:    mailer,
	})
	sessionID := seedSubmittableSession(t, manager)

	result, err := svc.Submit(ctx, sessionID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.OrderNumber != "ORD-000042" {
		t.Fatalf("order number = %q, want ORD-000042", result.OrderNumber)
	}
	if result.OrderType != domain.OrderTypeSchools || result.TotalQuantity != 10 {
		t.Fatalf("result = %+v", result)
	}

	if inserted.Number != "ORD-000042" || len(inserted.Items) != 2 {
		t.Fatalf("persisted order = %+v", inserted)
	}
	if inserted.Status != domain.OrderStatusNew {
		t.Fatalf("persisted status = %q, want new", inserted.Status)
	}
	if inserted.Contact.Organization != "Al Noor School" {
		t.Fatalf("persisted contact = %+v", inserted.Contact)
	}
	if !inserted.CreatedAt.Equal(wizardTestTime) {
		t.Fatalf("created at = %v", inserted.CreatedAt)
	}

	// Session resets for the next order but keeps the contact.
	state, err := manager.View(ctx, sessionID)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(state.Cart) != 0 {
		t.Fatalf("cart survived submission: %d items", len(state.Cart))
	}
	if state.Contact == nil {
		t.Fatal("contact dropped on submission")
	}
	if len(state.Wizard.Categories) != 0 {
		t.Fatalf("categories survived submission: %v", state.Wizard.Categories)
	}

	event := publisher.wait(t)
	if event.Event != "order.submitted" || event.OrderNumber != "ORD-000042" || event.ItemCount != 2 {
		t.Fatalf("event = %+v", event)
	}
	mailed := mailer.wait(t)
	if mailed.Number != "ORD-000042" {
		t.Fatalf("mailed order = %+v", mailed)
	}
}

func TestOrderSubmitGuards(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)
	svc := newTestOrderService(t, manager, OrderServiceDeps{})

	if _, err := svc.Submit(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Submit(missing) = %v, want ErrSessionNotFound", err)
	}

	const emptySession = "empty-session"
	contact := schoolsContact()
	_, err := manager.Update(ctx, emptySession, func(state *SessionState, _ bool) error {
		state.Contact = &contact
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Submit(ctx, emptySession); !errors.Is(err, ErrOrderEmptyCart) {
		t.Fatalf("Submit(empty cart) = %v, want ErrOrderEmptyCart", err)
	}

	const noContactSession = "no-contact-session"
	_, err = manager.Update(ctx, noContactSession, func(state *SessionState, _ bool) error {
		state.Cart = []domain.CartItem{{ID: "a", OrderType: domain.OrderTypeStudents, Quantity: 1}}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Submit(ctx, noContactSession); !errors.Is(err, ErrOrderMissingContact) {
		t.Fatalf("Submit(no contact) = %v, want ErrOrderMissingContact", err)
	}
}

func TestOrderSubmitFailurePreservesCart(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	repo := &stubOrderRepository{
		insertFunc: func(context.Context, domain.Order) error {
			return stubRepoError{unavailable: true}
		},
	}
	svc := newTestOrderService(t, manager, OrderServiceDeps{Orders: repo})
	sessionID := seedSubmittableSession(t, manager)

	if _, err := svc.Submit(ctx, sessionID); !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("Submit = %v, want ErrOrderUnavailable", err)
	}

	state, err := manager.View(ctx, sessionID)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(state.Cart) != 2 {
		t.Fatalf("failed submission altered the cart: %d items", len(state.Cart))
	}
}

func TestOrderSubmitCounterFailure(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	counters := &stubCounterRepository{
		nextFunc: func(context.Context, string) (int64, error) {
			return 0, errors.New("transaction aborted")
		},
	}
	svc := newTestOrderService(t, manager, OrderServiceDeps{Counters: counters})
	sessionID := seedSubmittableSession(t, manager)

	if _, err := svc.Submit(ctx, sessionID); !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("Submit = %v, want ErrOrderUnavailable", err)
	}
}

func TestOrderGet(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	stored := domain.Order{ID: "ord-1", Number: "ORD-000007", Status: domain.OrderStatusNew}
	repo := &stubOrderRepository{
		findFunc: func(_ context.Context, orderID string) (domain.Order, error) {
			if orderID != "ord-1" {
				return domain.Order{}, stubRepoError{notFound: true}
			}
			return stored, nil
		},
	}
	svc := newTestOrderService(t, manager, OrderServiceDeps{Orders: repo})

	order, err := svc.Get(ctx, "ord-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if order.Number != "ORD-000007" {
		t.Fatalf("order = %+v", order)
	}

	if _, err := svc.Get(ctx, "ord-2"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Get(unknown) = %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.Get(ctx, " "); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("Get(blank) = %v, want ErrOrderInvalidInput", err)
	}
}

func TestOrderList(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	var captured repositories.OrderFilter
	repo := &stubOrderRepository{
		listFunc: func(_ context.Context, filter repositories.OrderFilter) ([]domain.Order, error) {
			captured = filter
			return []domain.Order{{ID: "ord-1"}}, nil
		},
	}
	svc := newTestOrderService(t, manager, OrderServiceDeps{Orders: repo})

	orders, err := svc.List(ctx, ListOrdersQuery{Status: "new", OrderType: "schools", Limit: 25})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("orders = %+v", orders)
	}
	if captured.Status != domain.OrderStatusNew || captured.OrderType != domain.OrderTypeSchools || captured.Limit != 25 {
		t.Fatalf("filter = %+v", captured)
	}

	if _, err := svc.List(ctx, ListOrdersQuery{Status: "shipped"}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("List(bad status) = %v, want ErrOrderInvalidInput", err)
	}
	if _, err := svc.List(ctx, ListOrdersQuery{OrderType: "wholesale"}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("List(bad type) = %v, want ErrOrderInvalidInput", err)
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	current := domain.Order{ID: "ord-1", Status: domain.OrderStatusNew}
	var updatedTo domain.OrderStatus
	repo := &stubOrderRepository{
		findFunc: func(context.Context, string) (domain.Order, error) {
			return current, nil
		},
		updateStatusFunc: func(_ context.Context, _ string, status domain.OrderStatus, updatedAt time.Time) error {
			updatedTo = status
			if !updatedAt.Equal(wizardTestTime) {
				t.Errorf("updated at = %v", updatedAt)
			}
			return nil
		},
	}
	svc := newTestOrderService(t, manager, OrderServiceDeps{Orders: repo})

	order, err := svc.UpdateStatus(ctx, UpdateOrderStatusCommand{OrderID: "ord-1", Status: "processing"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if order.Status != domain.OrderStatusProcessing || updatedTo != domain.OrderStatusProcessing {
		t.Fatalf("status = %q repo %q", order.Status, updatedTo)
	}

	if _, err := svc.UpdateStatus(ctx, UpdateOrderStatusCommand{OrderID: "ord-1", Status: "delivered"}); !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("skip ahead = %v, want ErrOrderInvalidTransition", err)
	}
	if _, err := svc.UpdateStatus(ctx, UpdateOrderStatusCommand{OrderID: "ord-1", Status: "shipped"}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("unknown status = %v, want ErrOrderInvalidInput", err)
	}

	current.Status = domain.OrderStatusDelivered
	if _, err := svc.UpdateStatus(ctx, UpdateOrderStatusCommand{OrderID: "ord-1", Status: "cancelled"}); !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("cancel delivered = %v, want ErrOrderInvalidTransition", err)
	}
}

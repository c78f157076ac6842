package services

import (
	"context"
	"errors"
	"strings"

	"github.com/uniformline/api/internal/domain"
)

var errCartStateRequired = errors.New("cart service: state manager is required")

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartItemNotFound indicates the item does not exist in the session's cart.
var ErrCartItemNotFound = errors.New("cart service: item not found")

// CartView is the cart as shown on the review page.
type CartView struct {
	Items         []domain.CartItem `json:"items"`
	TotalQuantity int               `json:"totalQuantity"`
	OrderType     OrderType         `json:"orderType,omitempty"`
}

// CartService exposes the per-session cart to the review page. All mutations
// run under the session lock, so they serialize with wizard operations.
type CartService interface {
	Get(ctx context.Context, sessionID string) (CartView, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (CartView, error)
	Clear(ctx context.Context, sessionID string) (CartView, error)
}

// CartServiceDeps wires the state manager behind the cart operations.
type CartServiceDeps struct {
	State *StateManager
}

type cartService struct {
	state *StateManager
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.State == nil {
		return nil, errCartStateRequired
	}
	return &cartService{state: deps.State}, nil
}

// Get returns the current cart contents.
func (s *cartService) Get(ctx context.Context, sessionID string) (CartView, error) {
	state, err := s.state.View(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return cartView(state.Cart), nil
}

// RemoveItem deletes a single item from the cart.
func (s *cartService) RemoveItem(ctx context.Context, sessionID, itemID string) (CartView, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return CartView{}, ErrCartInvalidInput
	}

	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		index := domain.FindCartItem(state.Cart, itemID)
		if index < 0 {
			return ErrCartItemNotFound
		}
		state.Cart = append(state.Cart[:index], state.Cart[index+1:]...)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return cartView(state.Cart), nil
}

// Clear empties the cart, leaving the wizard and contact info untouched.
func (s *cartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		state.Cart = nil
		state.Conflict = nil
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return cartView(state.Cart), nil
}

func cartView(items []domain.CartItem) CartView {
	view := CartView{
		Items:         make([]domain.CartItem, len(items)),
		TotalQuantity: domain.TotalQuantity(items),
	}
	copy(view.Items, items)
	if len(items) > 0 {
		view.OrderType = items[0].OrderType
	}
	return view
}

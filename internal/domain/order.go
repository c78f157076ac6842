package domain

import "time"

// OrderStatus tracks an order through the admin workflow.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the status is a known value.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the workflow permits moving to next.
// Forward-only through new, processing, ready, delivered; cancellation is
// allowed from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() || s == next {
		return false
	}
	if s == OrderStatusDelivered || s == OrderStatusCancelled {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	order := map[OrderStatus]int{
		OrderStatusNew:        0,
		OrderStatusProcessing: 1,
		OrderStatusReady:      2,
		OrderStatusDelivered:  3,
	}
	current, ok := order[s]
	if !ok {
		return false
	}
	target, ok := order[next]
	if !ok {
		return false
	}
	return target == current+1
}

// Order is the unit written on submission: the cart contents plus the contact
// snapshot and a generated human-readable order number.
type Order struct {
	ID            string      `json:"id" firestore:"-"`
	Number        string      `json:"number" firestore:"number"`
	OrderType     OrderType   `json:"orderType" firestore:"order_type"`
	Contact       ContactInfo `json:"contact" firestore:"contact"`
	Items         []CartItem  `json:"items" firestore:"items"`
	TotalQuantity int         `json:"totalQuantity" firestore:"total_quantity"`
	Status        OrderStatus `json:"status" firestore:"status"`
	SessionID     string      `json:"sessionId,omitempty" firestore:"session_id,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" firestore:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" firestore:"updated_at"`
}

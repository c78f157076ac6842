package domain

import "github.com/uniformline/api/internal/platform/locale"

// CartItem is the immutable record produced by finalizing a customization
// draft. Display fields are denormalized from the catalog at creation time.
type CartItem struct {
	ID            string           `json:"id" firestore:"id"`
	ProductID     string           `json:"productId" firestore:"product_id"`
	ProductCode   string           `json:"productCode" firestore:"product_code"`
	Name          locale.Bilingual `json:"name" firestore:"name"`
	ImageURL      string           `json:"imageUrl,omitempty" firestore:"image_url,omitempty"`
	OrderType     OrderType        `json:"orderType" firestore:"order_type"`
	Customization Customization    `json:"customization" firestore:"customization"`
	Sizes         SizeMatrix       `json:"sizes" firestore:"sizes"`
	Quantity      int              `json:"quantity" firestore:"quantity"`
}

// ConflictDecision resolves a cart order-type conflict.
type ConflictDecision string

const (
	// DecisionCancel discards the candidate item and leaves the cart unchanged.
	DecisionCancel ConflictDecision = "cancel"
	// DecisionClearAndAdd empties the cart and adds the candidate.
	DecisionClearAndAdd ConflictDecision = "clear_and_add"
)

// Valid reports whether the decision is a known value.
func (d ConflictDecision) Valid() bool {
	return d == DecisionCancel || d == DecisionClearAndAdd
}

// HasConflict reports whether adding an item of candidateType to the cart
// would cross order types: true iff the cart is non-empty and every resident
// item belongs to the other type.
func HasConflict(items []CartItem, candidateType OrderType) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.OrderType == candidateType {
			return false
		}
	}
	return true
}

// ResolveConflict applies the decision and returns the resulting cart. The
// input slice is never mutated.
func ResolveConflict(items []CartItem, candidate CartItem, decision ConflictDecision) []CartItem {
	switch decision {
	case DecisionClearAndAdd:
		return []CartItem{candidate}
	default:
		out := make([]CartItem, len(items))
		copy(out, items)
		return out
	}
}

// TotalQuantity sums the aggregate quantity of every item in the cart.
func TotalQuantity(items []CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// FindCartItem returns the index of the item with the given ID, or -1.
func FindCartItem(items []CartItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

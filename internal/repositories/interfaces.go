// Package repositories defines the persistence interfaces the service layer
// depends on, together with the error taxonomy implementations must honour.
package repositories

import (
	"context"
	"time"

	"github.com/uniformline/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with the
// categorisation services use for translation.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status    domain.OrderStatus
	OrderType domain.OrderType
	Limit     int
}

// OrderRepository persists submitted orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
}

// CounterRepository allocates monotonically increasing values, used for
// human-readable order numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string) (int64, error)
}

package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/uniformline/api/internal/domain"
	pfirestore "github.com/uniformline/api/internal/platform/firestore"
	"github.com/uniformline/api/internal/repositories"
)

const ordersCollection = "orders"

type orderDocument struct {
	Number        string             `firestore:"number"`
	OrderType     string             `firestore:"order_type"`
	Contact       domain.ContactInfo `firestore:"contact"`
	Items         []domain.CartItem  `firestore:"items"`
	TotalQuantity int                `firestore:"total_quantity"`
	Status        string             `firestore:"status"`
	SessionID     string             `firestore:"session_id,omitempty"`
	CreatedAt     time.Time          `firestore:"created_at"`
	UpdatedAt     time.Time          `firestore:"updated_at"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	orders *pfirestore.Collection[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		orders: pfirestore.NewCollection[orderDocument](provider, ordersCollection),
	}, nil
}

// Insert writes a new order document under the order's ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	return r.orders.Set(ctx, order.ID, toOrderDocument(order))
}

// FindByID fetches an order by its document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return fromOrderDocument(doc.ID, doc.Data), nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]domain.Order, error) {
	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.Status != "" {
			query = query.Where("status", "==", string(filter.Status))
		}
		if filter.OrderType != "" {
			query = query.Where("order_type", "==", string(filter.OrderType))
		}
		query = query.OrderBy("created_at", firestore.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, fromOrderDocument(doc.ID, doc.Data))
	}
	return orders, nil
}

// UpdateStatus patches the status and update timestamp of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	ref, err := r.orders.Doc(ctx, orderID)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updated_at", Value: updatedAt.UTC()},
	})
	return pfirestore.WrapError("orders.update_status", err)
}

func toOrderDocument(order domain.Order) orderDocument {
	return orderDocument{
		Number:        order.Number,
		OrderType:     string(order.OrderType),
		Contact:       order.Contact,
		Items:         order.Items,
		TotalQuantity: order.TotalQuantity,
		Status:        string(order.Status),
		SessionID:     order.SessionID,
		CreatedAt:     order.CreatedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
}

func fromOrderDocument(id string, doc orderDocument) domain.Order {
	return domain.Order{
		ID:            id,
		Number:        doc.Number,
		OrderType:     domain.OrderType(doc.OrderType),
		Contact:       doc.Contact,
		Items:         doc.Items,
		TotalQuantity: doc.TotalQuantity,
		Status:        domain.OrderStatus(doc.Status),
		SessionID:     doc.SessionID,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

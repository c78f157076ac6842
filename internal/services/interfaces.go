// Package services implements the application core: the configuration wizard
// phase machine, the per-session cart, uploads, size recommendation, and
// order submission.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/repositories"
)

// Re-exported domain types so callers can depend on the service package alone.
type (
	ContactInfo      = domain.ContactInfo
	OrderType        = domain.OrderType
	CartItem         = domain.CartItem
	Customization    = domain.Customization
	SizeMatrix       = domain.SizeMatrix
	Order            = domain.Order
	ConflictDecision = domain.ConflictDecision
)

// OrderEventMessage is published after a successful order submission.
type OrderEventMessage struct {
	Event         string    `json:"event"`
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	OrderType     string    `json:"orderType"`
	SessionID     string    `json:"sessionId,omitempty"`
	ItemCount     int       `json:"itemCount"`
	TotalQuantity int       `json:"totalQuantity"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// OrderEventPublisher fans submitted orders out to interested consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}

// Mailer sends the order confirmation email. Failures never affect submission.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order domain.Order) error
}

// ValidationError carries field-keyed messages for a rejected transition.
// Validation failures block only the offending transition and are rendered as
// state, never as a fatal failure.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed for fields %v", keys)
}

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsConflict()
	}
	return false
}

func isRepoUnavailable(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsUnavailable()
	}
	return false
}

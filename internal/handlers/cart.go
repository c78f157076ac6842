package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/httpx"
	"github.com/uniformline/api/internal/services"
)

const maxCartBodySize = 8 * 1024

// CartHandlers exposes the session cart to the review page.
type CartHandlers struct {
	carts   services.CartService
	wizards services.WizardService
}

// NewCartHandlers constructs handlers over the cart and wizard services. The
// wizard service resolves cart conflicts because a decision also moves the
// wizard loop forward.
func NewCartHandlers(carts services.CartService, wizards services.WizardService) *CartHandlers {
	return &CartHandlers{carts: carts, wizards: wizards}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Delete("/items/{itemId}", h.removeItem)
	r.Post("/conflict", h.resolveConflict)
}

type conflictRequest struct {
	Decision string `json:"decision"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.carts.Clear(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.carts.RemoveItem(ctx, sessionID, chi.URLParam(r, "itemId"))
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *CartHandlers) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req conflictRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.wizards.ResolveConflict(ctx, sessionID, domain.ConflictDecision(req.Decision))
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid cart input", http.StatusBadRequest))
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "session does not exist or has expired", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "cart operation failed", http.StatusInternalServerError))
	}
}

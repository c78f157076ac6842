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

const maxWizardBodySize = 32 * 1024

// WizardHandlers exposes the configuration wizard over HTTP. The session is
// identified by the X-Session-ID header; POST /wizard issues one when absent.
type WizardHandlers struct {
	wizards services.WizardService
	uploads services.UploadService
}

// NewWizardHandlers constructs handlers over the wizard and upload services.
func NewWizardHandlers(wizards services.WizardService, uploads services.UploadService) *WizardHandlers {
	return &WizardHandlers{wizards: wizards, uploads: uploads}
}

// Routes wires the /wizard endpoints onto the provided router.
func (h *WizardHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.start)
	r.Get("/", h.state)
	r.Post("/contact", h.submitContact)
	r.Post("/selection", h.submitSelection)
	r.Post("/style", h.chooseStyle)
	r.Post("/customization", h.saveCustomization)
	r.Post("/back", h.back)
	r.Post("/restart", h.restart)
	r.Post("/uploads/{slot}", h.storeUpload)
	r.Get("/uploads", h.uploadStates)
}

type startWizardRequest struct {
	Flow       string `json:"flow"`
	EditItemID string `json:"editItemId,omitempty"`
}

type contactRequest struct {
	Organization string `json:"organization,omitempty"`
	Person       string `json:"person"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

type selectionRequest struct {
	Categories []string `json:"categories"`
}

type styleRequest struct {
	ProductID string `json:"productId"`
}

type customizationRequest struct {
	Color         services.ColorInput `json:"color"`
	Fabric        string              `json:"fabric"`
	LogoType      string              `json:"logoType"`
	LogoPlacement string              `json:"logoPlacement"`
	Notes         string              `json:"notes,omitempty"`
	Stage         string              `json:"stage"`
	Sizes         map[string]int      `json:"sizes"`
}

func (h *WizardHandlers) start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req startWizardRequest
	if err := decodeJSONBody(r, maxWizardBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.wizards.Start(ctx, services.StartWizardCommand{
		SessionID:  sessionIDFromRequest(r),
		Flow:       domain.OrderType(req.Flow),
		EditItemID: req.EditItemID,
	})
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}

	w.Header().Set(sessionHeader, view.SessionID)
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) state(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.wizards.State(ctx, sessionID)
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) submitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req contactRequest
	if err := decodeJSONBody(r, maxWizardBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.wizards.SubmitContact(ctx, sessionID, services.ContactInfo{
		Organization: req.Organization,
		Person:       req.Person,
		Email:        req.Email,
		Phone:        req.Phone,
	})
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) submitSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := decodeJSONBody(r, maxWizardBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.wizards.SubmitSelection(ctx, sessionID, req.Categories)
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) chooseStyle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req styleRequest
	if err := decodeJSONBody(r, maxWizardBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.wizards.ChooseStyle(ctx, sessionID, req.ProductID)
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) saveCustomization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var req customizationRequest
	if err := decodeJSONBody(r, maxWizardBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.wizards.SaveCustomization(ctx, sessionID, services.CustomizationCommand{
		Color:         req.Color,
		Fabric:        req.Fabric,
		LogoType:      domain.LogoType(req.LogoType),
		LogoPlacement: domain.LogoPlacement(req.LogoPlacement),
		Notes:         req.Notes,
		Stage:         domain.SchoolStage(req.Stage),
		Sizes:         domain.SizeMatrix(req.Sizes),
	})
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) back(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.wizards.Back(ctx, sessionID)
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *WizardHandlers) restart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	view, err := h.wizards.Restart(ctx, sessionID)
	if err != nil {
		writeWizardError(ctx, w, err, view)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

// writeWizardError maps service failures onto the HTTP error envelope. A
// pending cart conflict is rendered as 409 with the full wizard view so the
// client can present the decision dialog from the same response.
func writeWizardError(ctx context.Context, w http.ResponseWriter, err error, view services.WizardView) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeValidationError(ctx, w, vErr)
	case errors.Is(err, services.ErrWizardConflict):
		httpx.WriteJSON(w, http.StatusConflict, map[string]any{
			"error":   "cart_conflict",
			"message": "cart holds items of the other order type",
			"state":   view,
		})
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "session does not exist or has expired", http.StatusNotFound))
	case errors.Is(err, services.ErrWizardItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrWizardWrongPhase):
		httpx.WriteError(ctx, w, httpx.NewError("wrong_phase", "operation not allowed in the current wizard phase", http.StatusConflict))
	case errors.Is(err, services.ErrWizardNoConflict):
		httpx.WriteError(ctx, w, httpx.NewError("no_conflict_pending", "no cart conflict awaits a decision", http.StatusConflict))
	case errors.Is(err, services.ErrWizardInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid wizard input", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "wizard operation failed", http.StatusInternalServerError))
	}
}

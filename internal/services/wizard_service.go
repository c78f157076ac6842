package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/uniformline/api/internal/catalog"
	"github.com/uniformline/api/internal/domain"
)

var (
	errWizardStateRequired = errors.New("wizard service: state manager is required")
	errWizardClockRequired = errors.New("wizard service: clock is required")
)

const (
	maxNotesLength       = 2000
	maxColorNameLength   = 120
	maxContactNameLength = 200
)

// ErrWizardInvalidInput indicates the caller supplied invalid input.
var ErrWizardInvalidInput = errors.New("wizard service: invalid input")

// ErrWizardWrongPhase indicates the operation is not allowed in the wizard's
// current phase.
var ErrWizardWrongPhase = errors.New("wizard service: operation not allowed in current phase")

// ErrWizardConflict indicates finalizing the draft is deferred behind a
// pending cart order-type conflict awaiting an explicit decision.
var ErrWizardConflict = errors.New("wizard service: cart conflict pending")

// ErrWizardNoConflict indicates a conflict decision arrived with no conflict pending.
var ErrWizardNoConflict = errors.New("wizard service: no conflict pending")

// ErrWizardItemNotFound indicates the edit target does not exist in the cart.
var ErrWizardItemNotFound = errors.New("wizard service: cart item not found")

// StartWizardCommand opens or reuses a wizard session.
type StartWizardCommand struct {
	SessionID  string
	Flow       OrderType
	EditItemID string
}

// ColorInput captures the caller's color choice: a palette entry, or the
// custom branch with a free-text name.
type ColorInput struct {
	PaletteID  int    `json:"paletteId"`
	Custom     bool   `json:"custom"`
	CustomName string `json:"customName"`
}

// CustomizationCommand is the detail-form submission for the current category.
type CustomizationCommand struct {
	Color         ColorInput           `json:"color"`
	Fabric        string               `json:"fabric"`
	LogoType      domain.LogoType      `json:"logoType"`
	LogoPlacement domain.LogoPlacement `json:"logoPlacement"`
	Notes         string               `json:"notes"`
	Stage         domain.SchoolStage   `json:"stage"`
	Sizes         domain.SizeMatrix    `json:"sizes"`
}

// CartSummary is the cart as seen from the wizard.
type CartSummary struct {
	Items         []domain.CartItem `json:"items"`
	TotalQuantity int               `json:"totalQuantity"`
}

// WizardView is the full client-facing snapshot returned by every operation.
type WizardView struct {
	SessionID       string                                 `json:"sessionId"`
	Flow            OrderType                              `json:"flow"`
	Phase           domain.Phase                           `json:"phase"`
	SubState        domain.SubState                        `json:"subState,omitempty"`
	Categories      []string                               `json:"categories,omitempty"`
	Index           int                                    `json:"index"`
	CurrentCategory string                                 `json:"currentCategory,omitempty"`
	Draft           *domain.Draft                          `json:"draft,omitempty"`
	EditMode        bool                                   `json:"editMode"`
	Contact         *domain.ContactInfo                    `json:"contact,omitempty"`
	Uploads         map[domain.UploadSlot]domain.SlotState `json:"uploads,omitempty"`
	Cart            CartSummary                            `json:"cart"`
	Conflict        *ConflictState                         `json:"conflict,omitempty"`
}

// WizardService drives the configuration wizard phase machine. One
// parameterized machine serves both order flows; the flow selects the contact
// schema and the order-type tag stamped on finalized items.
type WizardService interface {
	Start(ctx context.Context, cmd StartWizardCommand) (WizardView, error)
	State(ctx context.Context, sessionID string) (WizardView, error)
	SubmitContact(ctx context.Context, sessionID string, contact ContactInfo) (WizardView, error)
	SubmitSelection(ctx context.Context, sessionID string, categories []string) (WizardView, error)
	ChooseStyle(ctx context.Context, sessionID, productID string) (WizardView, error)
	SaveCustomization(ctx context.Context, sessionID string, cmd CustomizationCommand) (WizardView, error)
	ResolveConflict(ctx context.Context, sessionID string, decision ConflictDecision) (WizardView, error)
	Back(ctx context.Context, sessionID string) (WizardView, error)
	Restart(ctx context.Context, sessionID string) (WizardView, error)
}

// WizardServiceDeps wires the state manager and ambient dependencies.
type WizardServiceDeps struct {
	State       *StateManager
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type wizardService struct {
	state  *StateManager
	now    func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewWizardService constructs a WizardService enforcing dependency validation.
func NewWizardService(deps WizardServiceDeps) (WizardService, error) {
	if deps.State == nil {
		return nil, errWizardStateRequired
	}
	if deps.Clock == nil {
		return nil, errWizardClockRequired
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &wizardService{
		state:  deps.State,
		now:    func() time.Time { return deps.Clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Start opens a wizard session. A fresh session begins at the contact phase;
// a session that already holds contact info and a non-empty cart skips
// straight to selection. With an edit target the wizard short-circuits to the
// detail form seeded from the stored item.
func (s *wizardService) Start(ctx context.Context, cmd StartWizardCommand) (WizardView, error) {
	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		sessionID = s.newID()
	}

	editItemID := strings.TrimSpace(cmd.EditItemID)
	if editItemID == "" && !cmd.Flow.Valid() {
		return WizardView{}, ErrWizardInvalidInput
	}

	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, _ bool) error {
		if editItemID != "" {
			return seedEditMode(state, editItemID)
		}

		phase := domain.PhaseContact
		if state.Contact != nil && len(state.Cart) > 0 {
			phase = domain.PhaseSelection
		}
		state.Wizard = domain.WizardState{
			Flow:  cmd.Flow,
			Phase: phase,
		}
		state.Conflict = nil
		state.ResetUploads()
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	s.logger(ctx, "wizard session started", map[string]any{
		"sessionId": sessionID,
		"flow":      string(state.Wizard.Flow),
		"editMode":  editItemID != "",
	})
	return s.view(sessionID, state), nil
}

func seedEditMode(state *SessionState, itemID string) error {
	index := domain.FindCartItem(state.Cart, itemID)
	if index < 0 {
		return ErrWizardItemNotFound
	}
	item := state.Cart[index]

	product, ok := catalog.ProductByID(item.ProductID)
	if !ok {
		return ErrWizardItemNotFound
	}

	sizes := make(domain.SizeMatrix, len(item.Sizes))
	for token, quantity := range item.Sizes {
		sizes[token] = quantity
	}

	state.Wizard = domain.WizardState{
		Flow:       item.OrderType,
		Phase:      domain.PhaseCustomization,
		SubState:   domain.SubStateDetailForm,
		Categories: []string{product.CategoryID},
		Index:      0,
		Draft: &domain.Draft{
			Customization: item.Customization,
			Sizes:         sizes,
		},
		EditItemID: item.ID,
	}
	state.Conflict = nil
	state.ResetUploads()
	return nil
}

// State returns the current wizard snapshot.
func (s *wizardService) State(ctx context.Context, sessionID string) (WizardView, error) {
	state, err := s.state.View(ctx, sessionID)
	if err != nil {
		return WizardView{}, err
	}
	return s.view(sessionID, state), nil
}

// SubmitContact validates and stores the contact info, advancing to selection.
func (s *wizardService) SubmitContact(ctx context.Context, sessionID string, contact ContactInfo) (WizardView, error) {
	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if state.Wizard.Phase != domain.PhaseContact {
			return ErrWizardWrongPhase
		}

		cleaned := ContactInfo{
			Organization: sanitizeFreeText(contact.Organization, maxContactNameLength),
			Person:       sanitizeFreeText(contact.Person, maxContactNameLength),
			Email:        strings.TrimSpace(contact.Email),
			Phone:        domain.NormalizePhone(contact.Phone),
		}
		if fieldErrs := domain.ValidateContact(cleaned, state.Wizard.Flow); fieldErrs != nil {
			return NewValidationError(fieldErrs)
		}

		state.Contact = &cleaned
		state.Wizard.Phase = domain.PhaseSelection
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	return s.view(sessionID, state), nil
}

// SubmitSelection stores the chosen category set and begins the customization
// loop at index 0.
func (s *wizardService) SubmitSelection(ctx context.Context, sessionID string, categories []string) (WizardView, error) {
	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if state.Wizard.Phase != domain.PhaseSelection {
			return ErrWizardWrongPhase
		}

		chosen := dedupeCategories(categories)
		if len(chosen) == 0 {
			return NewValidationError(map[string]string{"categories": "choose at least one category"})
		}
		for _, id := range chosen {
			if _, ok := catalog.CategoryByID(id); !ok {
				return NewValidationError(map[string]string{"categories": "unknown category " + id})
			}
		}

		state.Wizard.Categories = chosen
		state.Wizard.Index = 0
		state.Wizard.Phase = domain.PhaseCustomization
		state.Wizard.SubState = domain.SubStateStylePick
		state.Wizard.Draft = nil
		state.ResetUploads()
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	return s.view(sessionID, state), nil
}

// ChooseStyle picks a product from the current category's slice and opens the
// detail form.
func (s *wizardService) ChooseStyle(ctx context.Context, sessionID, productID string) (WizardView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return WizardView{}, ErrWizardInvalidInput
	}

	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if state.Wizard.Phase != domain.PhaseCustomization || state.Wizard.SubState != domain.SubStateStylePick {
			return ErrWizardWrongPhase
		}

		product, ok := catalog.ProductByID(productID)
		if !ok || product.CategoryID != state.Wizard.CurrentCategory() {
			return NewValidationError(map[string]string{"productId": "product does not belong to the current category"})
		}

		state.Wizard.Draft = &domain.Draft{
			Customization: domain.Customization{ProductID: product.ID},
			Sizes:         domain.SizeMatrix{},
		}
		state.Wizard.SubState = domain.SubStateDetailForm
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	return s.view(sessionID, state), nil
}

// SaveCustomization validates the detail form and finalizes the draft into a
// cart item ("save & next"). In edit mode the original item is replaced and
// the wizard terminates; otherwise the loop advances to the next category or
// completes. A cross-type candidate raises a pending conflict instead of
// being added.
func (s *wizardService) SaveCustomization(ctx context.Context, sessionID string, cmd CustomizationCommand) (WizardView, error) {
	var conflictRaised bool

	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if state.Wizard.Phase != domain.PhaseCustomization || state.Wizard.SubState != domain.SubStateDetailForm || state.Wizard.Draft == nil {
			return ErrWizardWrongPhase
		}

		item, err := s.finalizeDraft(state, cmd)
		if err != nil {
			return err
		}

		if state.Wizard.EditMode() {
			index := domain.FindCartItem(state.Cart, state.Wizard.EditItemID)
			if index < 0 {
				return ErrWizardItemNotFound
			}
			// Replacement keeps the cart position; the old ID disappears.
			state.Cart[index] = item
			state.Wizard = domain.WizardState{
				Flow:  state.Wizard.Flow,
				Phase: domain.PhaseCompleted,
			}
			state.ResetUploads()
			return nil
		}

		if domain.HasConflict(state.Cart, item.OrderType) {
			state.Conflict = &ConflictState{Candidate: item, RaisedAt: s.now()}
			conflictRaised = true
			return nil
		}

		state.Cart = append(state.Cart, item)
		advanceAfterFinalize(state)
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}

	view := s.view(sessionID, state)
	if conflictRaised {
		return view, ErrWizardConflict
	}
	return view, nil
}

// ResolveConflict applies the caller's decision to a pending cart conflict.
// Cancel discards the candidate and leaves the form open; clear-and-add
// empties the cart, adds the candidate, and advances the loop.
func (s *wizardService) ResolveConflict(ctx context.Context, sessionID string, decision ConflictDecision) (WizardView, error) {
	if !decision.Valid() {
		return WizardView{}, ErrWizardInvalidInput
	}

	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}
		if state.Conflict == nil {
			return ErrWizardNoConflict
		}

		candidate := state.Conflict.Candidate
		state.Cart = domain.ResolveConflict(state.Cart, candidate, decision)
		state.Conflict = nil

		if decision == domain.DecisionClearAndAdd {
			advanceAfterFinalize(state)
		}
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	s.logger(ctx, "cart conflict resolved", map[string]any{
		"sessionId": sessionID,
		"decision":  string(decision),
		"cartSize":  len(state.Cart),
	})
	return s.view(sessionID, state), nil
}

// Back navigates one hierarchical step backwards.
func (s *wizardService) Back(ctx context.Context, sessionID string) (WizardView, error) {
	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}

		w := &state.Wizard
		switch {
		case w.Phase == domain.PhaseCustomization && w.SubState == domain.SubStateDetailForm:
			// Change style: drop the product choice, keep the index.
			w.Draft = nil
			w.SubState = domain.SubStateStylePick
			state.ResetUploads()
		case w.Phase == domain.PhaseCustomization && w.SubState == domain.SubStateStylePick && w.Index > 0:
			w.Index--
		case w.Phase == domain.PhaseCustomization && w.SubState == domain.SubStateStylePick:
			w.Phase = domain.PhaseSelection
			w.SubState = ""
			w.Index = 0
			w.Draft = nil
		case w.Phase == domain.PhaseSelection:
			w.Phase = domain.PhaseContact
		default:
			return ErrWizardWrongPhase
		}
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	return s.view(sessionID, state), nil
}

// Restart begins a new order pass: the persisted category selection and all
// working state reset, finalized cart items stay untouched.
func (s *wizardService) Restart(ctx context.Context, sessionID string) (WizardView, error) {
	state, err := s.state.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			return ErrSessionNotFound
		}

		phase := domain.PhaseSelection
		if state.Contact == nil {
			phase = domain.PhaseContact
		}
		state.Wizard = domain.WizardState{
			Flow:  state.Wizard.Flow,
			Phase: phase,
		}
		state.Conflict = nil
		state.ResetUploads()
		return nil
	})
	if err != nil {
		return WizardView{}, err
	}
	return s.view(sessionID, state), nil
}

func (s *wizardService) finalizeDraft(state *SessionState, cmd CustomizationCommand) (domain.CartItem, error) {
	draft := state.Wizard.Draft
	product, ok := catalog.ProductByID(draft.Customization.ProductID)
	if !ok {
		return domain.CartItem{}, ErrWizardInvalidInput
	}

	// In edit mode the seeded draft carries the stored upload references.
	// They survive unless a fresh upload for the same slot completed.
	stored := draft.Customization

	fieldErrs := make(map[string]string)

	color := domain.ColorSelection{}
	if cmd.Color.Custom {
		name := sanitizeFreeText(cmd.Color.CustomName, maxColorNameLength)
		if name == "" {
			fieldErrs["color"] = "custom color requires a name"
		} else {
			details := &domain.CustomColorDetails{Name: name}
			if sample := state.SlotState(domain.SlotColorSample); sample.Status == domain.SlotDone {
				details.SampleURL = sample.URL
			} else if stored.Color.Custom != nil {
				details.SampleURL = stored.Color.Custom.SampleURL
			}
			color.Custom = details
		}
	} else if cmd.Color.PaletteID < 1 || cmd.Color.PaletteID > domain.PaletteSize {
		fieldErrs["color"] = "color selection is required"
	} else {
		color.PaletteID = cmd.Color.PaletteID
	}

	fabric := strings.TrimSpace(cmd.Fabric)
	if fabric == "" {
		fieldErrs["fabric"] = "fabric is required"
	} else if !catalog.FabricAllowed(product.ID, fabric) {
		fieldErrs["fabric"] = "fabric is not available for this product"
	}

	if !cmd.LogoType.Valid() {
		fieldErrs["logoType"] = "logo type is required"
	}
	if !cmd.LogoPlacement.Valid() {
		fieldErrs["logoPlacement"] = "logo placement is required"
	}
	if !cmd.Stage.Valid() {
		fieldErrs["stage"] = "school stage is required"
	}

	sizes := cmd.Sizes.Normalize()
	if cmd.Stage.Valid() {
		for token := range sizes {
			if !catalog.SizeAllowed(cmd.Stage, token) {
				fieldErrs["sizes"] = "size " + token + " is not valid for this stage"
			}
		}
	}
	if sizes.Total() < 1 {
		fieldErrs["sizes"] = "at least one size quantity is required"
	}

	// A slot still settling blocks finalization; its reference would
	// otherwise be dropped silently.
	for _, slot := range domain.UploadSlots() {
		if state.SlotState(slot).Status == domain.SlotUploading {
			fieldErrs["uploads"] = "an upload is still in progress"
			break
		}
	}

	if len(fieldErrs) > 0 {
		return domain.CartItem{}, NewValidationError(fieldErrs)
	}

	customization := domain.Customization{
		ProductID:     product.ID,
		Color:         color,
		Fabric:        fabric,
		LogoType:      cmd.LogoType,
		LogoPlacement: cmd.LogoPlacement,
		Notes:         sanitizeFreeText(cmd.Notes, maxNotesLength),
		Stage:         cmd.Stage,
	}
	if logo := state.SlotState(domain.SlotLogo); logo.Status == domain.SlotDone {
		customization.LogoURL = logo.URL
	} else {
		customization.LogoURL = stored.LogoURL
	}
	if reference := state.SlotState(domain.SlotReference); reference.Status == domain.SlotDone {
		customization.ReferenceURL = reference.URL
	} else {
		customization.ReferenceURL = stored.ReferenceURL
	}

	return domain.CartItem{
		ID:            s.newID(),
		ProductID:     product.ID,
		ProductCode:   product.Code,
		Name:          product.Name,
		ImageURL:      product.ImageURL,
		OrderType:     state.Wizard.Flow,
		Customization: customization,
		Sizes:         sizes,
		Quantity:      sizes.Total(),
	}, nil
}

func advanceAfterFinalize(state *SessionState) {
	w := &state.Wizard
	if w.Index >= len(w.Categories)-1 {
		w.Phase = domain.PhaseCompleted
		w.SubState = ""
		w.Draft = nil
	} else {
		w.Index++
		w.SubState = domain.SubStateStylePick
		w.Draft = nil
	}
	state.ResetUploads()
}

func dedupeCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, id := range categories {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *wizardService) view(sessionID string, state SessionState) WizardView {
	items := make([]domain.CartItem, len(state.Cart))
	copy(items, state.Cart)

	uploads := make(map[domain.UploadSlot]domain.SlotState, len(domain.UploadSlots()))
	for _, slot := range domain.UploadSlots() {
		uploads[slot] = state.SlotState(slot)
	}

	return WizardView{
		SessionID:       sessionID,
		Flow:            state.Wizard.Flow,
		Phase:           state.Wizard.Phase,
		SubState:        state.Wizard.SubState,
		Categories:      append([]string(nil), state.Wizard.Categories...),
		Index:           state.Wizard.Index,
		CurrentCategory: state.Wizard.CurrentCategory(),
		Draft:           state.Wizard.Draft,
		EditMode:        state.Wizard.EditMode(),
		Contact:         state.Contact,
		Uploads:         uploads,
		Cart: CartSummary{
			Items:         items,
			TotalQuantity: domain.TotalQuantity(items),
		},
		Conflict: state.Conflict,
	}
}

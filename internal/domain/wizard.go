package domain

// Phase is the wizard's top-level state.
type Phase string

const (
	PhaseContact       Phase = "contact"
	PhaseSelection     Phase = "selection"
	PhaseCustomization Phase = "customization"
	PhaseCompleted     Phase = "completed"
)

// SubState refines the customization phase: picking a product for the current
// category, or editing the detail form for the chosen product.
type SubState string

const (
	SubStateStylePick  SubState = "style_pick"
	SubStateDetailForm SubState = "detail_form"
)

// Draft is the in-progress customization plus size matrix for the category
// currently being configured.
type Draft struct {
	Customization Customization `json:"customization" firestore:"customization"`
	Sizes         SizeMatrix    `json:"sizes" firestore:"sizes"`
}

// WizardState is the resumable snapshot of the phase machine, persisted to the
// session store on every successful transition.
type WizardState struct {
	Flow       OrderType `json:"flow" firestore:"flow"`
	Phase      Phase     `json:"phase" firestore:"phase"`
	SubState   SubState  `json:"subState,omitempty" firestore:"sub_state,omitempty"`
	Categories []string  `json:"categories,omitempty" firestore:"categories,omitempty"`
	Index      int       `json:"index" firestore:"index"`
	Draft      *Draft    `json:"draft,omitempty" firestore:"draft,omitempty"`
	EditItemID string    `json:"editItemId,omitempty" firestore:"edit_item_id,omitempty"`
}

// CurrentCategory returns the category the customization loop is positioned
// on, or "" outside the customization phase.
func (w WizardState) CurrentCategory() string {
	if w.Phase != PhaseCustomization {
		return ""
	}
	if w.Index < 0 || w.Index >= len(w.Categories) {
		return ""
	}
	return w.Categories[w.Index]
}

// EditMode reports whether the wizard is replacing an existing cart item.
func (w WizardState) EditMode() bool {
	return w.EditItemID != ""
}

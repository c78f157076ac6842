package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/session"
)

var wizardTestTime = time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

func newTestStateManager(t *testing.T) *StateManager {
	t.Helper()
	manager, err := NewStateManager(StateManagerDeps{
		Store: session.NewMemoryStore(),
		Clock: func() time.Time { return wizardTestTime },
	})
	if err != nil {
		t.Fatalf("NewStateManager: %v", err)
	}
	return manager
}

func sequentialIDs(prefix string) func() string {
	var counter int
	return func() string {
		counter++
		return fmt.Sprintf("%s-%03d", prefix, counter)
	}
}

func newTestWizard(t *testing.T) (WizardService, *StateManager) {
	t.Helper()
	manager := newTestStateManager(t)
	svc, err := NewWizardService(WizardServiceDeps{
		State:       manager,
		Clock:       func() time.Time { return wizardTestTime },
		IDGenerator: sequentialIDs("id"),
	})
	if err != nil {
		t.Fatalf("NewWizardService: %v", err)
	}
	return svc, manager
}

func schoolsContact() ContactInfo {
	return ContactInfo{
		Organization: "Al Noor School",
		Person:       "Ahmad",
		Email:        "a@x.com",
		Phone:        "+966500000000",
	}
}

func shirtCustomization() CustomizationCommand {
	return CustomizationCommand{
		Color:         ColorInput{PaletteID: 6},
		Fabric:        "Oxford",
		LogoType:      domain.LogoEmbroidery,
		LogoPlacement: domain.PlacementChest,
		Stage:         domain.StagePrimary,
		Sizes:         domain.SizeMatrix{"10": 5},
	}
}

func poloCustomization() CustomizationCommand {
	return CustomizationCommand{
		Color:         ColorInput{PaletteID: 1},
		Fabric:        "Pika (Lacoste)",
		LogoType:      domain.LogoPrinting,
		LogoPlacement: domain.PlacementChest,
		Stage:         domain.StageIntermediate,
		Sizes:         domain.SizeMatrix{"M": 3, "L": 2},
	}
}

func mustAddItem(t *testing.T, svc WizardService, sessionID, productID string, cmd CustomizationCommand) WizardView {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.ChooseStyle(ctx, sessionID, productID); err != nil {
		t.Fatalf("ChooseStyle(%s): %v", productID, err)
	}
	view, err := svc.SaveCustomization(ctx, sessionID, cmd)
	if err != nil {
		t.Fatalf("SaveCustomization(%s): %v", productID, err)
	}
	return view
}

func TestWizardSchoolsFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if view.SessionID == "" {
		t.Fatal("Start returned empty session ID")
	}
	if view.Phase != domain.PhaseContact {
		t.Fatalf("phase after Start = %q, want %q", view.Phase, domain.PhaseContact)
	}
	sessionID := view.SessionID

	view, err = svc.SubmitContact(ctx, sessionID, schoolsContact())
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if view.Phase != domain.PhaseSelection {
		t.Fatalf("phase after contact = %q, want %q", view.Phase, domain.PhaseSelection)
	}

	view, err = svc.SubmitSelection(ctx, sessionID, []string{"shirts", "polo"})
	if err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if view.CurrentCategory != "shirts" || view.SubState != domain.SubStateStylePick {
		t.Fatalf("selection landed at category %q substate %q", view.CurrentCategory, view.SubState)
	}

	view = mustAddItem(t, svc, sessionID, "bl1", shirtCustomization())
	if view.CurrentCategory != "polo" || view.Index != 1 {
		t.Fatalf("after first item: category %q index %d, want polo/1", view.CurrentCategory, view.Index)
	}
	if view.Draft != nil {
		t.Fatal("draft survived finalization")
	}

	view = mustAddItem(t, svc, sessionID, "ps1", poloCustomization())
	if view.Phase != domain.PhaseCompleted {
		t.Fatalf("phase after last category = %q, want %q", view.Phase, domain.PhaseCompleted)
	}
	if len(view.Cart.Items) != 2 {
		t.Fatalf("cart holds %d items, want 2", len(view.Cart.Items))
	}
	if view.Cart.TotalQuantity != 10 {
		t.Fatalf("cart total quantity = %d, want 10", view.Cart.TotalQuantity)
	}
	for _, item := range view.Cart.Items {
		if item.OrderType != domain.OrderTypeSchools {
			t.Fatalf("item %s tagged %q, want schools", item.ID, item.OrderType)
		}
	}
	if got := view.Cart.Items[0].ProductCode; got != "BL-1" {
		t.Fatalf("first item code = %q, want BL-1", got)
	}
	if got := view.Cart.Items[1].Customization.Fabric; got != "Pika (Lacoste)" {
		t.Fatalf("second item fabric = %q", got)
	}
}

func TestWizardContactValidationBlocksAdvance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID

	invalid := ContactInfo{Person: "Ahmad", Email: "not-an-email", Phone: "123"}
	_, err = svc.SubmitContact(ctx, sessionID, invalid)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("SubmitContact error = %v, want ValidationError", err)
	}
	for _, field := range []string{"organization", "email", "phone"} {
		if _, ok := vErr.Fields[field]; !ok {
			t.Errorf("missing field error for %q: %v", field, vErr.Fields)
		}
	}

	view, err = svc.State(ctx, sessionID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if view.Phase != domain.PhaseContact {
		t.Fatalf("phase advanced to %q despite validation failure", view.Phase)
	}
	if view.Contact != nil {
		t.Fatal("invalid contact was stored")
	}
}

func TestWizardRejectsOperationsOutOfPhase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeStudents})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID

	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); !errors.Is(err, ErrWizardWrongPhase) {
		t.Fatalf("ChooseStyle in contact phase: %v, want ErrWizardWrongPhase", err)
	}
	if _, err := svc.SaveCustomization(ctx, sessionID, shirtCustomization()); !errors.Is(err, ErrWizardWrongPhase) {
		t.Fatalf("SaveCustomization in contact phase: %v, want ErrWizardWrongPhase", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); !errors.Is(err, ErrWizardWrongPhase) {
		t.Fatalf("SubmitSelection in contact phase: %v, want ErrWizardWrongPhase", err)
	}
}

func TestWizardUnknownSessionReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	if _, err := svc.State(ctx, "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("State(unknown) = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.SubmitContact(ctx, "no-such-session", schoolsContact()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("SubmitContact(unknown) = %v, want ErrSessionNotFound", err)
	}
}

func seedCompletedSchoolsCart(t *testing.T, svc WizardService) string {
	t.Helper()
	ctx := context.Background()

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	mustAddItem(t, svc, sessionID, "bl1", shirtCustomization())
	return sessionID
}

func TestWizardConflictCancelKeepsCartAndForm(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)
	sessionID := seedCompletedSchoolsCart(t, svc)

	// Rejoin in the opposite flow; existing contact and cart skip the
	// contact phase.
	view, err := svc.Start(ctx, StartWizardCommand{SessionID: sessionID, Flow: domain.OrderTypeStudents})
	if err != nil {
		t.Fatalf("Start(rejoin): %v", err)
	}
	if view.Phase != domain.PhaseSelection {
		t.Fatalf("rejoin phase = %q, want %q", view.Phase, domain.PhaseSelection)
	}

	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"polo"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "ps1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}

	view, err = svc.SaveCustomization(ctx, sessionID, poloCustomization())
	if !errors.Is(err, ErrWizardConflict) {
		t.Fatalf("SaveCustomization across types = %v, want ErrWizardConflict", err)
	}
	if view.Conflict == nil {
		t.Fatal("view carries no pending conflict")
	}
	if got := view.Conflict.Candidate.OrderType; got != domain.OrderTypeStudents {
		t.Fatalf("candidate tagged %q, want students", got)
	}
	if len(view.Cart.Items) != 1 {
		t.Fatalf("cart mutated while conflict pending: %d items", len(view.Cart.Items))
	}

	view, err = svc.ResolveConflict(ctx, sessionID, domain.DecisionCancel)
	if err != nil {
		t.Fatalf("ResolveConflict(cancel): %v", err)
	}
	if view.Conflict != nil {
		t.Fatal("conflict survived cancellation")
	}
	if len(view.Cart.Items) != 1 || view.Cart.Items[0].OrderType != domain.OrderTypeSchools {
		t.Fatalf("cancel altered the cart: %+v", view.Cart.Items)
	}
	if view.SubState != domain.SubStateDetailForm || view.Draft == nil {
		t.Fatalf("cancel should leave the detail form open, got substate %q", view.SubState)
	}
}

func TestWizardConflictClearAndAddReplacesCart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)
	sessionID := seedCompletedSchoolsCart(t, svc)

	if _, err := svc.Start(ctx, StartWizardCommand{SessionID: sessionID, Flow: domain.OrderTypeStudents}); err != nil {
		t.Fatalf("Start(rejoin): %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"polo"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "ps1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}
	if _, err := svc.SaveCustomization(ctx, sessionID, poloCustomization()); !errors.Is(err, ErrWizardConflict) {
		t.Fatalf("expected pending conflict, got %v", err)
	}

	view, err := svc.ResolveConflict(ctx, sessionID, domain.DecisionClearAndAdd)
	if err != nil {
		t.Fatalf("ResolveConflict(clear_and_add): %v", err)
	}
	if len(view.Cart.Items) != 1 {
		t.Fatalf("cart holds %d items, want exactly the candidate", len(view.Cart.Items))
	}
	if got := view.Cart.Items[0].OrderType; got != domain.OrderTypeStudents {
		t.Fatalf("surviving item tagged %q, want students", got)
	}
	if view.Phase != domain.PhaseCompleted {
		t.Fatalf("loop did not advance after clear-and-add: phase %q", view.Phase)
	}
}

func TestWizardResolveWithoutPendingConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)
	sessionID := seedCompletedSchoolsCart(t, svc)

	if _, err := svc.ResolveConflict(ctx, sessionID, domain.DecisionCancel); !errors.Is(err, ErrWizardNoConflict) {
		t.Fatalf("ResolveConflict with no conflict = %v, want ErrWizardNoConflict", err)
	}
	if _, err := svc.ResolveConflict(ctx, sessionID, domain.ConflictDecision("merge")); !errors.Is(err, ErrWizardInvalidInput) {
		t.Fatalf("ResolveConflict with bad decision = %v, want ErrWizardInvalidInput", err)
	}
}

func TestWizardBackNavigation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts", "polo"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}

	// Detail form back to style pick, losing the draft.
	view, err = svc.Back(ctx, sessionID)
	if err != nil {
		t.Fatalf("Back(detail form): %v", err)
	}
	if view.SubState != domain.SubStateStylePick || view.Draft != nil {
		t.Fatalf("back from detail form gave substate %q draft %v", view.SubState, view.Draft)
	}

	// Style pick at index 0 back to selection.
	view, err = svc.Back(ctx, sessionID)
	if err != nil {
		t.Fatalf("Back(style pick): %v", err)
	}
	if view.Phase != domain.PhaseSelection {
		t.Fatalf("back from first style pick gave phase %q", view.Phase)
	}

	// Selection back to contact.
	view, err = svc.Back(ctx, sessionID)
	if err != nil {
		t.Fatalf("Back(selection): %v", err)
	}
	if view.Phase != domain.PhaseContact {
		t.Fatalf("back from selection gave phase %q", view.Phase)
	}

	if _, err := svc.Back(ctx, sessionID); !errors.Is(err, ErrWizardWrongPhase) {
		t.Fatalf("Back from contact = %v, want ErrWizardWrongPhase", err)
	}
}

func TestWizardBackBetweenCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts", "polo"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	view = mustAddItem(t, svc, sessionID, "bl1", shirtCustomization())
	if view.Index != 1 {
		t.Fatalf("index after first item = %d, want 1", view.Index)
	}

	view, err = svc.Back(ctx, sessionID)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if view.Index != 0 || view.CurrentCategory != "shirts" {
		t.Fatalf("back between categories gave index %d category %q", view.Index, view.CurrentCategory)
	}
	if len(view.Cart.Items) != 1 {
		t.Fatal("navigating back removed a finalized item")
	}
}

func TestWizardRestartKeepsCartAndContact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)
	sessionID := seedCompletedSchoolsCart(t, svc)

	view, err := svc.Restart(ctx, sessionID)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if view.Phase != domain.PhaseSelection {
		t.Fatalf("restart phase = %q, want selection", view.Phase)
	}
	if len(view.Categories) != 0 {
		t.Fatalf("restart kept categories %v", view.Categories)
	}
	if len(view.Cart.Items) != 1 {
		t.Fatalf("restart touched the cart: %d items", len(view.Cart.Items))
	}
	if view.Contact == nil {
		t.Fatal("restart dropped the stored contact")
	}
}

func TestWizardEditModeReplacesItemInPlace(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)
	sessionID := seedCompletedSchoolsCart(t, svc)

	before, err := svc.State(ctx, sessionID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	original := before.Cart.Items[0]

	view, err := svc.Start(ctx, StartWizardCommand{SessionID: sessionID, EditItemID: original.ID})
	if err != nil {
		t.Fatalf("Start(edit): %v", err)
	}
	if !view.EditMode || view.SubState != domain.SubStateDetailForm {
		t.Fatalf("edit start gave editMode=%v substate %q", view.EditMode, view.SubState)
	}
	if view.Draft == nil || view.Draft.Customization.Fabric != "Oxford" {
		t.Fatalf("edit draft not seeded from stored item: %+v", view.Draft)
	}

	updated := shirtCustomization()
	updated.Fabric = "Twill"
	updated.Sizes = domain.SizeMatrix{"12": 7}

	view, err = svc.SaveCustomization(ctx, sessionID, updated)
	if err != nil {
		t.Fatalf("SaveCustomization(edit): %v", err)
	}
	if view.Phase != domain.PhaseCompleted {
		t.Fatalf("edit save gave phase %q, want completed", view.Phase)
	}
	if len(view.Cart.Items) != 1 {
		t.Fatalf("edit changed cart length to %d", len(view.Cart.Items))
	}

	replaced := view.Cart.Items[0]
	if replaced.ID == original.ID {
		t.Fatal("replacement kept the original item ID")
	}
	if replaced.Customization.Fabric != "Twill" || replaced.Quantity != 7 {
		t.Fatalf("replacement not applied: %+v", replaced)
	}

	if _, err := svc.Start(ctx, StartWizardCommand{SessionID: sessionID, EditItemID: "missing"}); !errors.Is(err, ErrWizardItemNotFound) {
		t.Fatalf("Start(edit missing) = %v, want ErrWizardItemNotFound", err)
	}
}

func TestWizardLogsSessionEvents(t *testing.T) {
	ctx := context.Background()
	manager := newTestStateManager(t)

	var events []string
	svc, err := NewWizardService(WizardServiceDeps{
		State:       manager,
		Clock:       func() time.Time { return wizardTestTime },
		IDGenerator: sequentialIDs("id"),
		Logger: func(_ context.Context, msg string, _ map[string]any) {
			events = append(events, msg)
		},
	})
	if err != nil {
		t.Fatalf("NewWizardService: %v", err)
	}

	if _, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(events) != 1 || events[0] != "wizard session started" {
		t.Fatalf("events = %v", events)
	}
}

func TestWizardEditKeepsStoredUploadURLs(t *testing.T) {
	ctx := context.Background()
	svc, manager := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}
	_, err = manager.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		state.SetSlotState(domain.SlotLogo, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/logo.png", FileName: "logo.png"})
		state.SetSlotState(domain.SlotColorSample, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/sample.jpg", FileName: "sample.jpg"})
		state.SetSlotState(domain.SlotReference, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/ref.pdf", FileName: "ref.pdf"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	cmd := shirtCustomization()
	cmd.Color = ColorInput{Custom: true, CustomName: "House Navy"}
	view, err = svc.SaveCustomization(ctx, sessionID, cmd)
	if err != nil {
		t.Fatalf("SaveCustomization: %v", err)
	}
	original := view.Cart.Items[0]
	if original.Customization.LogoURL == "" || original.Customization.ReferenceURL == "" {
		t.Fatalf("seed item missing upload URLs: %+v", original.Customization)
	}

	// Re-enter via edit and save with only the quantities changed.
	if _, err := svc.Start(ctx, StartWizardCommand{SessionID: sessionID, EditItemID: original.ID}); err != nil {
		t.Fatalf("Start(edit): %v", err)
	}
	cmd.Sizes = domain.SizeMatrix{"12": 9}
	view, err = svc.SaveCustomization(ctx, sessionID, cmd)
	if err != nil {
		t.Fatalf("SaveCustomization(edit): %v", err)
	}

	replaced := view.Cart.Items[0]
	if replaced.Quantity != 9 {
		t.Fatalf("quantity edit not applied: %+v", replaced)
	}
	if replaced.Customization.LogoURL != "https://cdn.example/logo.png" {
		t.Fatalf("edit dropped the stored logo URL: got %q", replaced.Customization.LogoURL)
	}
	if replaced.Customization.ReferenceURL != "https://cdn.example/ref.pdf" {
		t.Fatalf("edit dropped the stored reference URL: got %q", replaced.Customization.ReferenceURL)
	}
	custom := replaced.Customization.Color.Custom
	if custom == nil || custom.SampleURL != "https://cdn.example/sample.jpg" {
		t.Fatalf("edit dropped the stored color sample URL: got %+v", custom)
	}

	// A fresh completed upload still wins over the stored reference.
	if _, err := svc.Start(ctx, StartWizardCommand{SessionID: sessionID, EditItemID: replaced.ID}); err != nil {
		t.Fatalf("Start(second edit): %v", err)
	}
	_, err = manager.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		state.SetSlotState(domain.SlotLogo, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/logo-v2.png", FileName: "logo-v2.png"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	view, err = svc.SaveCustomization(ctx, sessionID, cmd)
	if err != nil {
		t.Fatalf("SaveCustomization(re-upload): %v", err)
	}
	final := view.Cart.Items[0]
	if final.Customization.LogoURL != "https://cdn.example/logo-v2.png" {
		t.Fatalf("new upload did not replace the logo URL: got %q", final.Customization.LogoURL)
	}
	if final.Customization.ReferenceURL != "https://cdn.example/ref.pdf" {
		t.Fatalf("untouched reference URL lost on re-upload: got %q", final.Customization.ReferenceURL)
	}
}

func TestWizardCustomizationValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*CustomizationCommand)
		field  string
	}{
		{"custom color without name", func(c *CustomizationCommand) {
			c.Color = ColorInput{Custom: true}
		}, "color"},
		{"palette out of range", func(c *CustomizationCommand) {
			c.Color = ColorInput{PaletteID: 9}
		}, "color"},
		{"fabric from another family", func(c *CustomizationCommand) {
			c.Fabric = "Pika (Lacoste)"
		}, "fabric"},
		{"no sizes", func(c *CustomizationCommand) {
			c.Sizes = domain.SizeMatrix{}
		}, "sizes"},
		{"size outside stage vocabulary", func(c *CustomizationCommand) {
			c.Sizes = domain.SizeMatrix{"XL": 2}
		}, "sizes"},
		{"missing stage", func(c *CustomizationCommand) {
			c.Stage = ""
		}, "stage"},
		{"bad logo type", func(c *CustomizationCommand) {
			c.LogoType = "sticker"
		}, "logoType"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := shirtCustomization()
			tc.mutate(&cmd)

			_, err := svc.SaveCustomization(ctx, sessionID, cmd)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if _, ok := vErr.Fields[tc.field]; !ok {
				t.Fatalf("missing field error for %q: %v", tc.field, vErr.Fields)
			}

			state, err := svc.State(ctx, sessionID)
			if err != nil {
				t.Fatalf("State: %v", err)
			}
			if state.SubState != domain.SubStateDetailForm || len(state.Cart.Items) != 0 {
				t.Fatalf("validation failure moved the wizard: substate %q cart %d", state.SubState, len(state.Cart.Items))
			}
		})
	}
}

func TestWizardSaveBlockedByUploadInFlight(t *testing.T) {
	ctx := context.Background()
	svc, manager := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}

	_, err = manager.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		if !found {
			t.Fatal("session vanished")
		}
		state.SetSlotState(domain.SlotLogo, domain.SlotState{Status: domain.SlotUploading, FileName: "logo.png"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err = svc.SaveCustomization(ctx, sessionID, shirtCustomization())
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if _, ok := vErr.Fields["uploads"]; !ok {
		t.Fatalf("missing uploads field error: %v", vErr.Fields)
	}
}

func TestWizardFinalizeMergesUploadURLs(t *testing.T) {
	ctx := context.Background()
	svc, manager := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID
	if _, err := svc.SubmitContact(ctx, sessionID, schoolsContact()); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}

	_, err = manager.Update(ctx, sessionID, func(state *SessionState, found bool) error {
		state.SetSlotState(domain.SlotLogo, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/logo.png", FileName: "logo.png"})
		state.SetSlotState(domain.SlotColorSample, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/sample.jpg", FileName: "sample.jpg"})
		state.SetSlotState(domain.SlotReference, domain.SlotState{Status: domain.SlotDone, URL: "https://cdn.example/ref.pdf", FileName: "ref.pdf"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	cmd := shirtCustomization()
	cmd.Color = ColorInput{Custom: true, CustomName: "House Navy"}

	view, err = svc.SaveCustomization(ctx, sessionID, cmd)
	if err != nil {
		t.Fatalf("SaveCustomization: %v", err)
	}

	item := view.Cart.Items[0]
	if item.Customization.LogoURL != "https://cdn.example/logo.png" {
		t.Fatalf("logo URL not merged: %q", item.Customization.LogoURL)
	}
	if item.Customization.ReferenceURL != "https://cdn.example/ref.pdf" {
		t.Fatalf("reference URL not merged: %q", item.Customization.ReferenceURL)
	}
	custom := item.Customization.Color.Custom
	if custom == nil || custom.Name != "House Navy" || custom.SampleURL != "https://cdn.example/sample.jpg" {
		t.Fatalf("custom color not captured: %+v", custom)
	}

	// Slots reset for the next item.
	for slot, slotState := range view.Uploads {
		if slotState.Status != domain.SlotIdle {
			t.Fatalf("slot %s still %q after finalize", slot, slotState.Status)
		}
	}
}

func TestWizardSanitizesFreeText(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWizard(t)

	view, err := svc.Start(ctx, StartWizardCommand{Flow: domain.OrderTypeSchools})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sessionID := view.SessionID

	contact := schoolsContact()
	contact.Organization = "<script>alert(1)</script>Al Noor School"
	view, err = svc.SubmitContact(ctx, sessionID, contact)
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if view.Contact.Organization != "Al Noor School" {
		t.Fatalf("organization not sanitized: %q", view.Contact.Organization)
	}

	if _, err := svc.SubmitSelection(ctx, sessionID, []string{"shirts"}); err != nil {
		t.Fatalf("SubmitSelection: %v", err)
	}
	if _, err := svc.ChooseStyle(ctx, sessionID, "bl1"); err != nil {
		t.Fatalf("ChooseStyle: %v", err)
	}

	cmd := shirtCustomization()
	cmd.Notes = "Sleeve tag <img src=x onerror=alert(1)> please"
	view, err = svc.SaveCustomization(ctx, sessionID, cmd)
	if err != nil {
		t.Fatalf("SaveCustomization: %v", err)
	}
	if got := view.Cart.Items[0].Customization.Notes; got != "Sleeve tag  please" {
		t.Fatalf("notes not sanitized: %q", got)
	}
}

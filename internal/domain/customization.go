package domain

// LogoType enumerates how the school logo is applied to the garment.
type LogoType string

const (
	LogoEmbroidery LogoType = "embroidery"
	LogoPrinting   LogoType = "printing"
	LogoWovenPatch LogoType = "wovenPatch"
)

// Valid reports whether the logo type is a known value.
func (t LogoType) Valid() bool {
	switch t {
	case LogoEmbroidery, LogoPrinting, LogoWovenPatch:
		return true
	}
	return false
}

// LogoPlacement enumerates where the logo sits on the garment.
type LogoPlacement string

const (
	PlacementChest    LogoPlacement = "chest"
	PlacementShoulder LogoPlacement = "shoulder"
	PlacementBack     LogoPlacement = "back"
)

// Valid reports whether the placement is a known value.
func (p LogoPlacement) Valid() bool {
	switch p {
	case PlacementChest, PlacementShoulder, PlacementBack:
		return true
	}
	return false
}

// PaletteSize is the number of predefined color choices.
const PaletteSize = 7

// CustomColorDetails carries the free-text name and optional sample image for
// a color outside the predefined palette.
type CustomColorDetails struct {
	Name      string `json:"name" firestore:"name"`
	SampleURL string `json:"sampleUrl,omitempty" firestore:"sample_url,omitempty"`
}

// ColorSelection is either a palette entry (PaletteID 1..7, Custom nil) or a
// custom color (Custom set, PaletteID ignored).
type ColorSelection struct {
	PaletteID int                 `json:"paletteId,omitempty" firestore:"palette_id,omitempty"`
	Custom    *CustomColorDetails `json:"custom,omitempty" firestore:"custom,omitempty"`
}

// IsCustom reports whether the selection is the custom-color branch.
func (c ColorSelection) IsCustom() bool {
	return c.Custom != nil
}

// IsZero reports whether no color has been selected at all.
func (c ColorSelection) IsZero() bool {
	return c.Custom == nil && c.PaletteID == 0
}

// SchoolStage tags the age bracket a garment is for. The stage selects which
// size vocabulary applies: numeric tokens for younger brackets, lettered for
// older ones.
type SchoolStage string

const (
	StageKindergarten SchoolStage = "kindergarten"
	StagePrimary      SchoolStage = "primary"
	StageIntermediate SchoolStage = "intermediate"
	StageSecondary    SchoolStage = "secondary"
)

// Valid reports whether the stage is a known value.
func (s SchoolStage) Valid() bool {
	switch s {
	case StageKindergarten, StagePrimary, StageIntermediate, StageSecondary:
		return true
	}
	return false
}

// Customization is the full per-item configuration captured by the wizard.
type Customization struct {
	ProductID     string         `json:"productId" firestore:"product_id"`
	Color         ColorSelection `json:"color" firestore:"color"`
	Fabric        string         `json:"fabric" firestore:"fabric"`
	LogoType      LogoType       `json:"logoType" firestore:"logo_type"`
	LogoPlacement LogoPlacement  `json:"logoPlacement" firestore:"logo_placement"`
	LogoURL       string         `json:"logoUrl,omitempty" firestore:"logo_url,omitempty"`
	ReferenceURL  string         `json:"referenceUrl,omitempty" firestore:"reference_url,omitempty"`
	Notes         string         `json:"notes,omitempty" firestore:"notes,omitempty"`
	Stage         SchoolStage    `json:"stage" firestore:"stage"`
}

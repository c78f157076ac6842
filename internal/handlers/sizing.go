package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniformline/api/internal/platform/httpx"
	"github.com/uniformline/api/internal/services"
)

const maxSizingBodySize = 4 * 1024

// SizingHandlers serves the size recommendation calculator.
type SizingHandlers struct {
	sizes services.SizeService
}

// NewSizingHandlers constructs handlers over the size service.
func NewSizingHandlers(sizes services.SizeService) *SizingHandlers {
	return &SizingHandlers{sizes: sizes}
}

// Routes wires the sizing endpoint onto the provided router.
func (h *SizingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/size-recommendation", h.recommend)
}

type sizeRequest struct {
	Age       int     `json:"age"`
	HeightCM  float64 `json:"heightCm"`
	WeightKG  float64 `json:"weightKg"`
	BodyShape string  `json:"bodyShape"`
	Fit       string  `json:"fit"`
	Growth    string  `json:"growth,omitempty"`
}

func (h *SizingHandlers) recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sizeRequest
	if err := decodeJSONBody(r, maxSizingBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	size, err := h.sizes.Calculate(services.SizeInput{
		Age:       req.Age,
		HeightCM:  req.HeightCM,
		WeightKG:  req.WeightKG,
		BodyShape: services.BodyShape(req.BodyShape),
		Fit:       services.FitPreference(req.Fit),
		Growth:    services.GrowthRate(req.Growth),
	})
	if err != nil {
		if errors.Is(err, services.ErrSizeInvalidInput) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "age and weight must be positive and within range", http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "size recommendation failed", http.StatusInternalServerError))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"size": size})
}

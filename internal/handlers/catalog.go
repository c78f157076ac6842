package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniformline/api/internal/catalog"
	"github.com/uniformline/api/internal/platform/httpx"
	"github.com/uniformline/api/internal/platform/locale"
	"github.com/uniformline/api/internal/services"
)

// CatalogHandlers serves the localized product reference data.
type CatalogHandlers struct {
	catalogs services.CatalogService
}

// NewCatalogHandlers constructs handlers over the catalog service.
func NewCatalogHandlers(catalogs services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalogs: catalogs}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{categoryId}/products", h.listProducts)
	r.Get("/products/{productId}", h.getProduct)
}

type categoryPayload struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type productPayload struct {
	ID         string   `json:"id"`
	CategoryID string   `json:"categoryId"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	ImageURL   string   `json:"imageUrl"`
	Price      float64  `json:"price"`
	Currency   string   `json:"currency"`
	Fabrics    []string `json:"fabrics,omitempty"`
}

// requestLocale resolves ?lang= ahead of the Accept-Language header.
func requestLocale(r *http.Request) locale.Locale {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if loc, ok := locale.Parse(lang); ok {
			return loc
		}
	}
	return locale.Match(r.Header.Get("Accept-Language"))
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := requestLocale(r)

	categories, err := h.catalogs.ListCategories(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		payload = append(payload, categoryPayload{
			ID:       category.ID,
			Code:     category.Code,
			Name:     category.Name.In(loc),
			ImageURL: category.ImageURL,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": payload})
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := requestLocale(r)
	categoryID := chi.URLParam(r, "categoryId")

	products, err := h.catalogs.ListProducts(ctx, categoryID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product, loc))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": payload})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := requestLocale(r)
	productID := chi.URLParam(r, "productId")

	product, err := h.catalogs.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := buildProductPayload(product, loc)
	if fabrics, err := h.catalogs.Fabrics(ctx, product.ID); err == nil {
		payload.Fabrics = fabrics
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"product": payload})
}

func buildProductPayload(product catalog.Product, loc locale.Locale) productPayload {
	return productPayload{
		ID:         product.ID,
		CategoryID: product.CategoryID,
		Code:       product.Code,
		Name:       product.Name.In(loc),
		ImageURL:   product.ImageURL,
		Price:      product.Price,
		Currency:   "SAR",
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_not_found", "category or product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid catalog identifier", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "failed to load catalog data", http.StatusInternalServerError))
	}
}

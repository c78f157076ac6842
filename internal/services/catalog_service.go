package services

import (
	"context"
	"errors"
	"strings"

	"github.com/uniformline/api/internal/catalog"
	"github.com/uniformline/api/internal/domain"
)

// ErrCatalogNotFound indicates the requested category or product does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// CatalogService exposes the static product reference data.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListProducts(ctx context.Context, categoryID string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, productID string) (catalog.Product, error)
	Fabrics(ctx context.Context, productID string) ([]string, error)
	SizesFor(ctx context.Context, stage domain.SchoolStage) ([]string, error)
}

type catalogService struct{}

// NewCatalogService constructs the catalog accessor.
func NewCatalogService() CatalogService {
	return catalogService{}
}

func (catalogService) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return catalog.Categories(), nil
}

func (catalogService) ListProducts(_ context.Context, categoryID string) ([]catalog.Product, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, ErrCatalogInvalidInput
	}
	if _, ok := catalog.CategoryByID(categoryID); !ok {
		return nil, ErrCatalogNotFound
	}
	return catalog.Products(categoryID), nil
}

func (catalogService) GetProduct(_ context.Context, productID string) (catalog.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return catalog.Product{}, ErrCatalogInvalidInput
	}
	product, ok := catalog.ProductByID(productID)
	if !ok {
		return catalog.Product{}, ErrCatalogNotFound
	}
	return product, nil
}

func (catalogService) Fabrics(_ context.Context, productID string) ([]string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrCatalogInvalidInput
	}
	if _, ok := catalog.ProductByID(productID); !ok {
		return nil, ErrCatalogNotFound
	}
	return catalog.Fabrics(productID), nil
}

func (catalogService) SizesFor(_ context.Context, stage domain.SchoolStage) ([]string, error) {
	if !stage.Valid() {
		return nil, ErrCatalogInvalidInput
	}
	return catalog.SizesFor(stage), nil
}

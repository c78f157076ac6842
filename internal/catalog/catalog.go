// Package catalog holds the static product reference data compiled into the
// binary. The catalog is read-only at runtime.
package catalog

import (
	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/locale"
)

// Category groups products on the selection grid.
type Category struct {
	ID       string           `json:"id"`
	Code     string           `json:"code"`
	Name     locale.Bilingual `json:"name"`
	ImageURL string           `json:"imageUrl"`
}

// Product is one orderable garment style.
type Product struct {
	ID         string           `json:"id"`
	CategoryID string           `json:"categoryId"`
	Code       string           `json:"code"`
	Name       locale.Bilingual `json:"name"`
	ImageURL   string           `json:"imageUrl"`
	// Price is the static catalog price in SAR. No pricing computation
	// happens anywhere in the service.
	Price  float64 `json:"price"`
	Family string  `json:"-"`
}

// Categories returns all categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryByID returns the category with the given ID.
func CategoryByID(id string) (Category, bool) {
	for _, category := range categories {
		if category.ID == id {
			return category, true
		}
	}
	return Category{}, false
}

// Products returns the products belonging to the category, in display order.
func Products(categoryID string) []Product {
	var out []Product
	for _, product := range products {
		if product.CategoryID == categoryID {
			out = append(out, product)
		}
	}
	return out
}

// ProductByID returns the product with the given ID.
func ProductByID(id string) (Product, bool) {
	for _, product := range products {
		if product.ID == id {
			return product, true
		}
	}
	return Product{}, false
}

// Fabrics lists the fabric options permitted for the product's family.
func Fabrics(productID string) []string {
	product, ok := ProductByID(productID)
	if !ok {
		return nil
	}
	options := fabricsByFamily[product.Family]
	out := make([]string, len(options))
	copy(out, options)
	return out
}

// FabricAllowed reports whether the fabric is in the product's option list.
func FabricAllowed(productID, fabric string) bool {
	for _, option := range Fabrics(productID) {
		if option == fabric {
			return true
		}
	}
	return false
}

// SizesFor returns the size vocabulary for a school stage: numeric tokens for
// the younger brackets, lettered tokens for the older ones.
func SizesFor(stage domain.SchoolStage) []string {
	options := sizesByStage[stage]
	out := make([]string, len(options))
	copy(out, options)
	return out
}

// SizeAllowed reports whether the token belongs to the stage's vocabulary.
func SizeAllowed(stage domain.SchoolStage, token string) bool {
	for _, option := range sizesByStage[stage] {
		if option == token {
			return true
		}
	}
	return false
}

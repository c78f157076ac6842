package domain

// Quantity bounds for a single size row.
const (
	MinQuantity = 0
	MaxQuantity = 999
)

// SizeMatrix maps a size token to an ordered quantity.
type SizeMatrix map[string]int

// ClampQuantity forces a quantity into the permitted [0, 999] range.
func ClampQuantity(quantity int) int {
	if quantity < MinQuantity {
		return MinQuantity
	}
	if quantity > MaxQuantity {
		return MaxQuantity
	}
	return quantity
}

// Clamp returns a copy of the matrix with every quantity clamped.
func (m SizeMatrix) Clamp() SizeMatrix {
	if m == nil {
		return nil
	}
	out := make(SizeMatrix, len(m))
	for token, quantity := range m {
		out[token] = ClampQuantity(quantity)
	}
	return out
}

// Normalize clamps quantities and drops zero rows, the form the matrix takes
// inside a finalized cart item.
func (m SizeMatrix) Normalize() SizeMatrix {
	out := make(SizeMatrix)
	for token, quantity := range m {
		clamped := ClampQuantity(quantity)
		if clamped > 0 {
			out[token] = clamped
		}
	}
	return out
}

// Total sums all clamped quantities.
func (m SizeMatrix) Total() int {
	total := 0
	for _, quantity := range m {
		total += ClampQuantity(quantity)
	}
	return total
}

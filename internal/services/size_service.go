package services

import (
	"errors"
	"strconv"
)

// BodyShape describes where the subject's weight concentrates.
type BodyShape string

const (
	BodyShapeBalanced   BodyShape = "balanced"
	BodyShapeMidsection BodyShape = "midsection"
	BodyShapeHips       BodyShape = "hips"
)

// FitPreference is the requested garment fit.
type FitPreference string

const (
	FitFitted  FitPreference = "fitted"
	FitRegular FitPreference = "regular"
	FitLoose   FitPreference = "loose"
)

// GrowthRate is asked only for subjects younger than 15.
type GrowthRate string

const (
	GrowthSlow    GrowthRate = "slow"
	GrowthAverage GrowthRate = "average"
	GrowthFast    GrowthRate = "fast"
)

// ErrSizeInvalidInput indicates the recommendation input is out of range.
var ErrSizeInvalidInput = errors.New("size service: invalid input")

// SizeInput is the answer set driving the recommendation.
type SizeInput struct {
	Age       int
	HeightCM  float64
	WeightKG  float64
	BodyShape BodyShape
	Fit       FitPreference
	Growth    GrowthRate
}

// adultTokens is the ordered adult size vocabulary used by the weight bands.
var adultTokens = []string{"XS", "S", "M", "L", "XL", "XXL", "3XL"}

// adultBandEdges are the upper weight bounds, in kg, of each adult band.
var adultBandEdges = []float64{55, 65, 75, 85, 98, 110}

// SizeService recommends a size token from the question-sequence answers. It
// is a pure calculator: it never writes to the cart or a wizard draft.
type SizeService interface {
	Calculate(input SizeInput) (string, error)
}

type sizeService struct{}

// NewSizeService constructs the recommendation engine.
func NewSizeService() SizeService {
	return sizeService{}
}

// Calculate maps the answers to a deterministic size token.
func (sizeService) Calculate(input SizeInput) (string, error) {
	if input.Age <= 0 || input.Age > 100 {
		return "", ErrSizeInvalidInput
	}
	if input.WeightKG <= 0 {
		return "", ErrSizeInvalidInput
	}

	if input.Age < 15 {
		return childSize(input), nil
	}
	return adultSize(input), nil
}

func childSize(input SizeInput) string {
	size := input.Age

	weight := input.WeightKG
	age := float64(input.Age)
	switch {
	case weight > age*3.5:
		size += 2
	case weight > age*3:
		size++
	}

	if input.Fit == FitLoose || input.Growth == GrowthFast {
		size += 2
	}

	// Round up to the nearest even number.
	if size%2 != 0 {
		size++
	}

	if size < 4 {
		size = 4
	}
	if size > 16 {
		size = 16
	}
	return strconv.Itoa(size)
}

func adultSize(input SizeInput) string {
	index := len(adultBandEdges)
	for i, edge := range adultBandEdges {
		if input.WeightKG <= edge {
			index = i
			break
		}
	}

	if input.BodyShape == BodyShapeMidsection || input.BodyShape == BodyShapeHips {
		index++
	}
	switch input.Fit {
	case FitLoose:
		index++
	case FitFitted:
		index--
	}

	if index < 0 {
		index = 0
	}
	if index > len(adultTokens)-1 {
		index = len(adultTokens) - 1
	}
	return adultTokens[index]
}

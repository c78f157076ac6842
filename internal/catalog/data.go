package catalog

import (
	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/locale"
)

const (
	familyShirts     = "shirts"
	familyPolo       = "polo"
	familyTrousers   = "trousers"
	familySkirts     = "skirts"
	familySportswear = "sportswear"
	familyWinter     = "winter"
)

var categories = []Category{
	{
		ID:       "shirts",
		Code:     "SH",
		Name:     locale.Bilingual{AR: "قمصان", EN: "Shirts"},
		ImageURL: "/images/categories/shirts.jpg",
	},
	{
		ID:       "polo",
		Code:     "PO",
		Name:     locale.Bilingual{AR: "بولو", EN: "Polo Shirts"},
		ImageURL: "/images/categories/polo.jpg",
	},
	{
		ID:       "trousers",
		Code:     "TR",
		Name:     locale.Bilingual{AR: "بناطيل", EN: "Trousers"},
		ImageURL: "/images/categories/trousers.jpg",
	},
	{
		ID:       "skirts",
		Code:     "SK",
		Name:     locale.Bilingual{AR: "تنانير", EN: "Skirts"},
		ImageURL: "/images/categories/skirts.jpg",
	},
	{
		ID:       "sportswear",
		Code:     "SP",
		Name:     locale.Bilingual{AR: "ملابس رياضية", EN: "Sportswear"},
		ImageURL: "/images/categories/sportswear.jpg",
	},
	{
		ID:       "winterwear",
		Code:     "WN",
		Name:     locale.Bilingual{AR: "ملابس شتوية", EN: "Winterwear"},
		ImageURL: "/images/categories/winterwear.jpg",
	},
}

var products = []Product{
	{
		ID:         "bl1",
		CategoryID: "shirts",
		Code:       "BL-1",
		Name:       locale.Bilingual{AR: "قميص ولادي بأكمام طويلة", EN: "Boys Long Sleeve Shirt"},
		ImageURL:   "/images/products/bl1.jpg",
		Price:      45,
		Family:     familyShirts,
	},
	{
		ID:         "bs1",
		CategoryID: "shirts",
		Code:       "BS-1",
		Name:       locale.Bilingual{AR: "قميص ولادي بأكمام قصيرة", EN: "Boys Short Sleeve Shirt"},
		ImageURL:   "/images/products/bs1.jpg",
		Price:      40,
		Family:     familyShirts,
	},
	{
		ID:         "gl1",
		CategoryID: "shirts",
		Code:       "GL-1",
		Name:       locale.Bilingual{AR: "قميص بناتي بأكمام طويلة", EN: "Girls Long Sleeve Shirt"},
		ImageURL:   "/images/products/gl1.jpg",
		Price:      45,
		Family:     familyShirts,
	},
	{
		ID:         "ps1",
		CategoryID: "polo",
		Code:       "PS-1",
		Name:       locale.Bilingual{AR: "بولو بأكمام قصيرة", EN: "Short Sleeve Polo"},
		ImageURL:   "/images/products/ps1.jpg",
		Price:      38,
		Family:     familyPolo,
	},
	{
		ID:         "pl1",
		CategoryID: "polo",
		Code:       "PL-1",
		Name:       locale.Bilingual{AR: "بولو بأكمام طويلة", EN: "Long Sleeve Polo"},
		ImageURL:   "/images/products/pl1.jpg",
		Price:      42,
		Family:     familyPolo,
	},
	{
		ID:         "bt1",
		CategoryID: "trousers",
		Code:       "BT-1",
		Name:       locale.Bilingual{AR: "بنطال مدرسي كلاسيكي", EN: "Classic School Trousers"},
		ImageURL:   "/images/products/bt1.jpg",
		Price:      55,
		Family:     familyTrousers,
	},
	{
		ID:         "bt2",
		CategoryID: "trousers",
		Code:       "BT-2",
		Name:       locale.Bilingual{AR: "بنطال مدرسي بخصر مطاطي", EN: "Elastic Waist School Trousers"},
		ImageURL:   "/images/products/bt2.jpg",
		Price:      50,
		Family:     familyTrousers,
	},
	{
		ID:         "gs1",
		CategoryID: "skirts",
		Code:       "GS-1",
		Name:       locale.Bilingual{AR: "تنورة مدرسية بكسرات", EN: "Pleated School Skirt"},
		ImageURL:   "/images/products/gs1.jpg",
		Price:      48,
		Family:     familySkirts,
	},
	{
		ID:         "gs2",
		CategoryID: "skirts",
		Code:       "GS-2",
		Name:       locale.Bilingual{AR: "تنورة مدرسية طويلة", EN: "Long School Skirt"},
		ImageURL:   "/images/products/gs2.jpg",
		Price:      52,
		Family:     familySkirts,
	},
	{
		ID:         "ts1",
		CategoryID: "sportswear",
		Code:       "TS-1",
		Name:       locale.Bilingual{AR: "طقم رياضي", EN: "Track Suit"},
		ImageURL:   "/images/products/ts1.jpg",
		Price:      85,
		Family:     familySportswear,
	},
	{
		ID:         "pe1",
		CategoryID: "sportswear",
		Code:       "PE-1",
		Name:       locale.Bilingual{AR: "تيشيرت رياضة", EN: "PE T-Shirt"},
		ImageURL:   "/images/products/pe1.jpg",
		Price:      30,
		Family:     familySportswear,
	},
	{
		ID:         "wj1",
		CategoryID: "winterwear",
		Code:       "WJ-1",
		Name:       locale.Bilingual{AR: "جاكيت شتوي", EN: "Winter Jacket"},
		ImageURL:   "/images/products/wj1.jpg",
		Price:      95,
		Family:     familyWinter,
	},
	{
		ID:         "ws1",
		CategoryID: "winterwear",
		Code:       "WS-1",
		Name:       locale.Bilingual{AR: "سترة صوفية", EN: "Wool Sweater"},
		ImageURL:   "/images/products/ws1.jpg",
		Price:      75,
		Family:     familyWinter,
	},
}

var fabricsByFamily = map[string][]string{
	familyShirts:     {"Oxford", "Poplin", "Twill"},
	familyPolo:       {"Pika (Lacoste)", "Jersey", "Interlock"},
	familyTrousers:   {"Gabardine", "Drill", "Stretch Twill"},
	familySkirts:     {"Gabardine", "Serge", "Poly Viscose"},
	familySportswear: {"Micro Polyester", "French Terry", "Diadora"},
	familyWinter:     {"Fleece", "Wool Blend", "Softshell"},
}

var sizesByStage = map[domain.SchoolStage][]string{
	domain.StageKindergarten: {"4", "6", "8"},
	domain.StagePrimary:      {"6", "8", "10", "12", "14", "16"},
	domain.StageIntermediate: {"XS", "S", "M", "L", "XL"},
	domain.StageSecondary:    {"XS", "S", "M", "L", "XL", "XXL", "3XL"},
}

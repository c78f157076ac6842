package locale

import "testing"

func TestBilingualInFallsBack(t *testing.T) {
	b := Bilingual{AR: "قميص"}
	if got := b.In(English); got != "قميص" {
		t.Fatalf("expected fallback to arabic, got %q", got)
	}

	b = Bilingual{AR: "قميص", EN: "Shirt"}
	if got := b.In(English); got != "Shirt" {
		t.Fatalf("expected english rendering, got %q", got)
	}
	if got := b.In(Arabic); got != "قميص" {
		t.Fatalf("expected arabic rendering, got %q", got)
	}
}

func TestParse(t *testing.T) {
	if loc, ok := Parse(" EN "); !ok || loc != English {
		t.Fatalf("expected english, got %q ok=%v", loc, ok)
	}
	if loc, ok := Parse("ar"); !ok || loc != Arabic {
		t.Fatalf("expected arabic, got %q ok=%v", loc, ok)
	}
	if _, ok := Parse("fr"); ok {
		t.Fatalf("expected unsupported locale to report !ok")
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	cases := map[string]Locale{
		"":                      Arabic,
		"ar-SA,ar;q=0.9":        Arabic,
		"en-US,en;q=0.9":        English,
		"en-GB":                 English,
		"fr-FR,fr;q=0.9":        Arabic,
		"en;q=0.8,ar-SA;q=0.9":  Arabic,
		"not a language header": Arabic,
	}
	for header, want := range cases {
		if got := Match(header); got != want {
			t.Fatalf("Match(%q) = %q, want %q", header, got, want)
		}
	}
}

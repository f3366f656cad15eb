package persona

import "testing"

func TestLookupKnownKey(t *testing.T) {
	r := NewRegistry(Seed())
	p := r.Lookup("sensei")
	if p.Key != "sensei" {
		t.Fatalf("expected sensei, got %s", p.Key)
	}
}

func TestLookupUnknownKeyFallsBackToDefault(t *testing.T) {
	r := NewRegistry(Seed())
	p := r.Lookup("no-such-persona")
	if p.Key != DefaultKey {
		t.Fatalf("expected default persona %q, got %q", DefaultKey, p.Key)
	}
	if p.SystemPrompt == "" {
		t.Fatalf("default persona must carry system instructions")
	}
}

func TestListPreservesDeclarationOrder(t *testing.T) {
	seed := Seed()
	r := NewRegistry(seed)
	list := r.List()

	if len(list) != len(seed) {
		t.Fatalf("expected %d personas, got %d", len(seed), len(list))
	}
	for i := range seed {
		if list[i].Key != seed[i].Key {
			t.Fatalf("order broken at %d: %s != %s", i, list[i].Key, seed[i].Key)
		}
	}
}

func TestSeedDefaultsAreWithinSamplingBounds(t *testing.T) {
	for _, p := range Seed() {
		if p.Temperature < 0 || p.Temperature > 2 {
			t.Fatalf("persona %s temperature %.2f out of bounds", p.Key, p.Temperature)
		}
		if p.MaxTokens < 100 || p.MaxTokens > 2000 {
			t.Fatalf("persona %s maxTokens %d out of bounds", p.Key, p.MaxTokens)
		}
	}
}

package persona

import "testing"

func TestResolve(t *testing.T) {
	store := NewMemoryStore(Seed())

	if p, ok := Resolve(store, "maya", DefaultID); !ok || p.ID != "maya" {
		t.Fatalf("expected maya, got %q (ok=%v)", p.ID, ok)
	}
	if p, ok := Resolve(store, "unknown", DefaultID); !ok || p.ID != DefaultID {
		t.Fatalf("expected fallback to %s, got %q", DefaultID, p.ID)
	}
	if p, ok := Resolve(store, "", "also-unknown"); !ok || p.ID != Seed()[0].ID {
		t.Fatalf("expected first persona, got %q", p.ID)
	}
	if _, ok := Resolve(NewMemoryStore(nil), "", DefaultID); ok {
		t.Fatal("expected empty store to resolve nothing")
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	items := store.List()
	items[0].Name = "changed"

	if got, _ := store.FindByID(DefaultID); got.Name != "Alex" {
		t.Fatalf("store mutated through List result: %q", got.Name)
	}
}

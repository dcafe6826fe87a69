package identity

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestKeysHashOrderIndependent(t *testing.T) {
	a, err := KeysHash(map[string]any{"page": "home", "section": "hero", "slot": 3})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	b, err := KeysHash(map[string]any{"slot": 3, "page": "home", "section": "hero"})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("hash differs for reordered keys")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32-byte hash, got %d", len(a))
	}
}

func TestKeysHashNumericSpelling(t *testing.T) {
	a, err := KeysHash(map[string]any{"slot": 3})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	b, err := KeysHash(map[string]any{"slot": float64(3)})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	c, err := KeysHash(map[string]any{"slot": json.Number("3.0")})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	if !bytes.Equal(a, b) || !bytes.Equal(b, c) {
		t.Fatalf("integral numbers should hash identically regardless of spelling")
	}
}

func TestKeysHashDistinguishesValues(t *testing.T) {
	a, _ := KeysHash(map[string]any{"page": "home"})
	b, _ := KeysHash(map[string]any{"page": "about"})
	if bytes.Equal(a, b) {
		t.Fatalf("different key values must hash differently")
	}
}

func TestKeysHashNested(t *testing.T) {
	a, err := KeysHash(map[string]any{"path": map[string]any{"x": 1, "y": []any{"a", "b"}}})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	b, err := KeysHash(map[string]any{"path": map[string]any{"y": []any{"a", "b"}, "x": 1}})
	if err != nil {
		t.Fatalf("KeysHash: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("nested maps should canonicalize by key order")
	}
}

func TestCanonicalizeRejectsEmpty(t *testing.T) {
	if _, err := Canonicalize(nil); err == nil {
		t.Fatalf("expected error for empty key set")
	}
}

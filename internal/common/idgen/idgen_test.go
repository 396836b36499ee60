package idgen

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestNewIsHexAndUnique(t *testing.T) {
	a := New()
	b := New()
	if a == b {
		t.Fatal("expected two distinct ids")
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars (128 bits), got %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("expected valid lowercase hex, got %q: %v", a, err)
	}
	if a != strings.ToLower(a) {
		t.Errorf("expected lowercase id, got %q", a)
	}
}

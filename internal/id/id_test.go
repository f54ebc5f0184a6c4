package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator(Default().entropy)

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1 == id2 {
		t.Error("Generated IDs should be unique")
	}
	if len(id1) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id1))
	}
}

func TestNewSessionID(t *testing.T) {
	sid := NewSessionID()

	if !strings.HasPrefix(string(sid), SessionPrefix+"_") {
		t.Errorf("SessionID should start with %q, got: %s", SessionPrefix+"_", sid)
	}

	parts := strings.SplitN(string(sid), "_", 2)
	if len(parts) != 2 || !IsValid(parts[1]) {
		t.Errorf("ULID part should be valid: %s", sid)
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-ulid") {
		t.Error("malformed string should not validate")
	}
	if !IsValid(Default().Generate()) {
		t.Error("generated ULID should validate")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := Default()
	seen := make(chan string, 100)

	for i := 0; i < 100; i++ {
		go func() { seen <- gen.Generate() }()
	}

	unique := make(map[string]bool)
	for i := 0; i < 100; i++ {
		unique[<-seen] = true
	}

	if len(unique) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(unique))
	}
}

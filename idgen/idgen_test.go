package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNanoID_LengthAndAlphabet(t *testing.T) {
	gen := NanoID(12)
	for range 50 {
		id := gen()
		if len(id) != 12 {
			t.Fatalf("len = %d, want 12", len(id))
		}
		for _, c := range id {
			if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", c) {
				t.Fatalf("invalid char %q in %q", c, id)
			}
		}
	}
}

func TestNanoID_Uniqueness(t *testing.T) {
	gen := NanoID(12)
	seen := make(map[string]bool)
	for range 1000 {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestAnalysisID(t *testing.T) {
	// WHAT: Analysis ids are "ana_" + a version 7 UUID.
	// WHY: The metrics store orders runs by id.
	id := AnalysisID()
	if !strings.HasPrefix(id, "ana_") {
		t.Fatalf("id = %q, want ana_ prefix", id)
	}
	u, err := uuid.Parse(strings.TrimPrefix(id, "ana_"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Version() != 7 {
		t.Errorf("version = %d, want 7", u.Version())
	}
}

func TestExportName(t *testing.T) {
	name := ExportName()
	parts := strings.SplitN(name, "_", 2)
	if len(parts) != 2 || len(parts[0]) != len("20060102T150405Z") || len(parts[1]) != 6 {
		t.Errorf("ExportName() = %q", name)
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("x_", func() string { return "1" })
	if got := gen(); got != "x_1" {
		t.Errorf("got %q", got)
	}
}

package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("evt")

	if got := gen.Next(); got != "evt-1" {
		t.Fatalf("expected evt-1, got %s", got)
	}
	if got := gen.Next(); got != "evt-2" {
		t.Fatalf("expected evt-2, got %s", got)
	}
}

func TestIDGeneratorDefaultPrefix(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %s", got)
	}
}

package domain

import "testing"

func TestStableChunkIDIsDeterministic(t *testing.T) {
	first := StableChunkID("guide.pdf", 3)
	second := StableChunkID("guide.pdf", 3)
	if first != second {
		t.Fatalf("expected identical ids for identical inputs, got %d and %d", first, second)
	}
}

func TestStableChunkIDIsNonNegative(t *testing.T) {
	for i := 0; i < 64; i++ {
		if id := StableChunkID("guide.pdf", i); id < 0 {
			t.Fatalf("expected non-negative id for chunk %d, got %d", i, id)
		}
	}
}

func TestStableChunkIDVariesByInput(t *testing.T) {
	byIndex := StableChunkID("guide.pdf", 0) == StableChunkID("guide.pdf", 1)
	bySource := StableChunkID("guide.pdf", 0) == StableChunkID("other.pdf", 0)
	if byIndex || bySource {
		t.Fatalf("expected ids to differ across sources and chunk indexes")
	}
}

package usecase

import (
	"strings"
	"testing"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

func TestPackEvidenceFormatsBlocksAndLedger(t *testing.T) {
	pack := PackEvidence([]domain.Candidate{
		{ChunkID: 1, Source: "a.pdf", ChunkIndex: 0, Text: "Muni runs downtown."},
		{ChunkID: 2, Source: "b.pdf", ChunkIndex: 3, Text: "BART connects SFO."},
	}, 0, 0)

	wantContext := "[1] source=a.pdf chunk=0\nMuni runs downtown.\n" +
		"\n---\n" +
		"[2] source=b.pdf chunk=3\nBART connects SFO.\n"
	if pack.Context != wantContext {
		t.Fatalf("unexpected context:\n%q\nwant:\n%q", pack.Context, wantContext)
	}

	if len(pack.Citations) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(pack.Citations))
	}
	for i, citation := range pack.Citations {
		if citation.N != i+1 {
			t.Fatalf("expected contiguous numbering, entry %d has N=%d", i, citation.N)
		}
	}
	if pack.Citations[1].Source != "b.pdf" || pack.Citations[1].ChunkIndex != 3 {
		t.Fatalf("unexpected provenance: %+v", pack.Citations[1])
	}
}

func TestPackEvidenceTruncatesPassages(t *testing.T) {
	pack := PackEvidence([]domain.Candidate{
		{ChunkID: 1, Source: "a.pdf", ChunkIndex: 0, Text: strings.Repeat("x", 50)},
	}, 0, 10)

	if got := pack.Citations[0].Text; got != strings.Repeat("x", 10) {
		t.Fatalf("expected 10-rune snippet, got %q", got)
	}
}

func TestPackEvidenceStopsAtFirstOverBudgetBlock(t *testing.T) {
	candidates := []domain.Candidate{
		{ChunkID: 1, Source: "a", ChunkIndex: 0, Text: strings.Repeat("a", 30)},
		{ChunkID: 2, Source: "b", ChunkIndex: 0, Text: strings.Repeat("b", 200)},
		// Would fit in the remaining budget, but packing already stopped.
		{ChunkID: 3, Source: "c", ChunkIndex: 0, Text: "tiny"},
	}

	pack := PackEvidence(candidates, 120, 1200)
	if len(pack.Citations) != 1 {
		t.Fatalf("expected packing to stop at the first over-budget block, got %d entries", len(pack.Citations))
	}
	if pack.Citations[0].Source != "a" {
		t.Fatalf("expected only the first candidate kept, got %+v", pack.Citations[0])
	}
}

func TestPackEvidenceBudgetCountsRunes(t *testing.T) {
	// 40 two-byte runes: 62 characters of block text but 102 bytes. A byte
	// budget would reject the block; a character budget keeps it.
	pack := PackEvidence([]domain.Candidate{
		{ChunkID: 1, Source: "a", ChunkIndex: 0, Text: strings.Repeat("é", 40)},
	}, 70, 1200)

	if len(pack.Citations) != 1 {
		t.Fatalf("expected multibyte block to fit the character budget, got %d entries", len(pack.Citations))
	}
}

func TestPackEvidenceCleansExtractionJunk(t *testing.T) {
	pack := PackEvidence([]domain.Candidate{
		{ChunkID: 1, Source: "a.pdf", ChunkIndex: 0, Text: "fare\u200bgates\x00open   at dawn"},
	}, 0, 0)

	if got := pack.Citations[0].Text; got != "fare gates open at dawn" {
		t.Fatalf("expected cleaned snippet, got %q", got)
	}
}

func TestPackEvidenceEmptyCandidates(t *testing.T) {
	pack := PackEvidence(nil, 0, 0)
	if pack.Context != "" || len(pack.Citations) != 0 {
		t.Fatalf("expected empty pack, got %+v", pack)
	}
}

package lexical

import (
	"reflect"
	"testing"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

func testCorpus() []domain.Chunk {
	return []domain.Chunk{
		{ID: 1, Source: "transit.txt", ChunkIndex: 0, Text: "Muni light rail serves downtown San Francisco."},
		{ID: 2, Source: "transit.txt", ChunkIndex: 1, Text: "BART trains connect the airport with the east bay."},
		{ID: 3, Source: "parks.txt", ChunkIndex: 0, Text: "Golden Gate Park hosts gardens and museums."},
	}
}

func TestSearchRanksMatchingChunkFirst(t *testing.T) {
	idx := NewIndex(testCorpus())

	hits := idx.Search("airport trains", 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != 2 {
		t.Fatalf("expected the BART chunk first, got id %d", hits[0].ChunkID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("expected a strictly higher score for the matching chunk")
	}
	if hits[0].Method != domain.MethodLexical {
		t.Fatalf("expected lexical method, got %q", hits[0].Method)
	}
}

func TestSearchEmptyQueryReturnsCorpusOrder(t *testing.T) {
	idx := NewIndex(testCorpus())

	hits := idx.Search("", 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	for i, hit := range hits {
		if hit.ChunkID != int64(i+1) {
			t.Fatalf("expected corpus order for all-zero scores, got id %d at rank %d", hit.ChunkID, i)
		}
		if hit.Score != 0 {
			t.Fatalf("expected zero score, got %v", hit.Score)
		}
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	idx := NewIndex(testCorpus())

	if hits := idx.Search("muni", 1); len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits := idx.Search("muni", 0); hits != nil {
		t.Fatalf("expected nil for non-positive topK, got %d hits", len(hits))
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	idx := NewIndex(nil)
	if hits := idx.Search("anything", 5); hits != nil {
		t.Fatalf("expected nil hits for empty corpus, got %d", len(hits))
	}
}

func TestCommonTermIDFIsFlooredPositive(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: 1, Text: "shared term one"},
		{ID: 2, Text: "shared term two"},
		{ID: 3, Text: "shared term three"},
		{ID: 4, Text: "distinct content here"},
	}
	idx := NewIndex(chunks)

	// "shared" appears in 3 of 4 documents; raw IDF would be negative.
	if idf := idx.idf["shared"]; idf <= 0 {
		t.Fatalf("expected floored positive idf for a near-ubiquitous term, got %v", idf)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("BART's 24th-Street station, (open)!")
	want := []string{"bart's", "24th", "street", "station", "open"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tokens: %v, want %v", got, want)
	}
	if Tokenize("") != nil {
		t.Fatalf("expected nil tokens for empty input")
	}
}

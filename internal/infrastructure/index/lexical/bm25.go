// Package lexical implements the keyword-overlap half of hybrid retrieval:
// an Okapi BM25 index over the full chunk collection, built once at startup
// and read-only afterwards, so it is safe to share across concurrent queries.
package lexical

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

type Index struct {
	chunks    []domain.Chunk
	termFreqs []map[string]float64
	docLens   []float64
	avgDocLen float64
	idf       map[string]float64
}

// NewIndex tokenizes every chunk and precomputes term and inverse-document
// frequencies. Terms whose raw IDF goes negative (present in most documents)
// are floored at epsilon times the average IDF instead of being allowed to
// subtract relevance.
func NewIndex(chunks []domain.Chunk) *Index {
	idx := &Index{
		chunks:    chunks,
		termFreqs: make([]map[string]float64, len(chunks)),
		docLens:   make([]float64, len(chunks)),
		idf:       make(map[string]float64),
	}

	docCount := make(map[string]int)
	totalLen := 0.0
	for i, chunk := range chunks {
		tokens := Tokenize(chunk.Text)
		freqs := make(map[string]float64, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = float64(len(tokens))
		totalLen += idx.docLens[i]
		for term := range freqs {
			docCount[term]++
		}
	}
	if len(chunks) > 0 {
		idx.avgDocLen = totalLen / float64(len(chunks))
	}

	n := float64(len(chunks))
	idfSum := 0.0
	var negative []string
	for term, df := range docCount {
		idf := math.Log((n - float64(df) + 0.5) / (float64(df) + 0.5))
		idx.idf[term] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	if len(idx.idf) > 0 {
		avgIDF := idfSum / float64(len(idx.idf))
		for _, term := range negative {
			idx.idf[term] = bm25Epsilon * avgIDF
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Search scores every chunk against the query and returns the topK best,
// descending by score with ties broken by corpus order. An empty or
// all-unknown-term query degenerates to an all-zero scoring and therefore a
// corpus-order slice; that is accepted behavior, not an error.
func (idx *Index) Search(query string, topK int) []domain.Candidate {
	if topK <= 0 || len(idx.chunks) == 0 {
		return nil
	}

	queryTokens := Tokenize(query)
	scores := make([]float64, len(idx.chunks))
	for i := range idx.chunks {
		scores[i] = idx.scoreDoc(queryTokens, i)
	}

	order := make([]int, len(idx.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	out := make([]domain.Candidate, 0, topK)
	for _, docIdx := range order[:topK] {
		chunk := idx.chunks[docIdx]
		out = append(out, domain.Candidate{
			ChunkID:    chunk.ID,
			Source:     chunk.Source,
			ChunkIndex: chunk.ChunkIndex,
			Text:       chunk.Text,
			Method:     domain.MethodLexical,
			Score:      scores[docIdx],
		})
	}
	return out
}

func (idx *Index) scoreDoc(queryTokens []string, docIdx int) float64 {
	freqs := idx.termFreqs[docIdx]
	lenNorm := 1 - bm25B + bm25B*idx.docLens[docIdx]/idx.avgDocLen

	score := 0.0
	for _, token := range queryTokens {
		tf := freqs[token]
		if tf == 0 {
			continue
		}
		score += idx.idf[token] * (tf * (bm25K1 + 1)) / (tf + bm25K1*lenNorm)
	}
	return score
}

// Tokenize lowercases the input and splits it into runs of letters, digits,
// and apostrophes; every other character is a separator. Deliberately crude:
// it has to survive messy PDF-extracted text.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

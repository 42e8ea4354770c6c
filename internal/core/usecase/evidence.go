package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

const (
	defaultPerPassageChars = 1200
	defaultContextBudget   = 24000
	contextBlockSeparator  = "\n---\n"
)

// EvidencePack is the assembled context block plus its parallel citation
// ledger. Ledger numbering is contiguous 1..len(Citations) and is never
// renumbered after assembly.
type EvidencePack struct {
	Context   string
	Citations []domain.Citation
}

// PackEvidence converts a ranked candidate list into a bounded context block
// and citation ledger. Packing stops the instant the next block would push
// the cumulative block length past maxChars; already-accepted blocks are
// kept and no later candidate is considered, even a smaller one.
func PackEvidence(candidates []domain.Candidate, maxChars, perPassageChars int) EvidencePack {
	if maxChars <= 0 {
		maxChars = defaultContextBudget
	}
	if perPassageChars <= 0 {
		perPassageChars = defaultPerPassageChars
	}

	blocks := make([]string, 0, len(candidates))
	citations := make([]domain.Citation, 0, len(candidates))
	totalChars := 0

	for _, cand := range candidates {
		n := len(citations) + 1
		snippet := truncateRunes(cleanPassage(cand.Text), perPassageChars)
		block := fmt.Sprintf("[%d] source=%s chunk=%d\n%s\n", n, cand.Source, cand.ChunkIndex, snippet)

		// Budget counts characters, not bytes, so multibyte text fills the
		// context the same way the per-passage cap does.
		blockChars := utf8.RuneCountInString(block)
		if totalChars+blockChars > maxChars {
			break
		}

		blocks = append(blocks, block)
		citations = append(citations, domain.Citation{
			N:          n,
			Source:     cand.Source,
			ChunkIndex: cand.ChunkIndex,
			Text:       snippet,
		})
		totalChars += blockChars
	}

	return EvidencePack{
		Context:   strings.Join(blocks, contextBlockSeparator),
		Citations: citations,
	}
}

// cleanPassage strips NUL bytes, private-use-area glyphs, and invisible
// format characters that PDF extraction tends to leave behind, then
// collapses all whitespace runs to single spaces.
func cleanPassage(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isJunkRune(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isJunkRune(r rune) bool {
	switch {
	case r == 0x0000:
		return true
	case r >= 0xE000 && r <= 0xF8FF: // private use area
		return true
	case r >= 0x200B && r <= 0x200F: // zero-width and direction marks
		return true
	case r >= 0x202A && r <= 0x202E: // bidi embedding controls
		return true
	case r >= 0x2060 && r <= 0x2064:
		return true
	case r == 0xFEFF || r == 0x00AD:
		return true
	default:
		return false
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

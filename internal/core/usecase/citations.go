package usecase

import (
	"regexp"
	"strconv"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

var citationMarkerRe = regexp.MustCompile(`\[(\d+)\]`)

// VerifyCitations keeps only ledger entries whose bracket number actually
// appears in the generated answer, preserving relative order. A citation
// number outside the ledger's range is not an error; it simply matches
// nothing.
func VerifyCitations(answerText string, ledger []domain.Citation) []domain.Citation {
	used := make(map[int]struct{})
	for _, match := range citationMarkerRe.FindAllStringSubmatch(answerText, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		used[n] = struct{}{}
	}

	kept := make([]domain.Citation, 0, len(ledger))
	for _, citation := range ledger {
		if _, ok := used[citation.N]; ok {
			kept = append(kept, citation)
		}
	}
	return kept
}

package usecase

import (
	"sort"

	"github.com/antonkuzmin/citedoc/internal/core/domain"
)

const defaultFusionK = 60

type fusedCandidate struct {
	candidate domain.Candidate
	score     float64
	firstSeen int
}

// fuseRRF merges ranked candidate lists with reciprocal rank fusion:
// score(id) = sum over lists containing id of 1/(k + rank), rank starting
// at 1. Fusing by rank instead of raw score sidesteps calibrating BM25 sums
// against vector similarities. Ties break by first-list-first-occurrence
// order; metadata is copied from whichever list introduced the id first.
func fuseRRF(lists [][]domain.Candidate, fusionK, topK int) []domain.Candidate {
	if fusionK <= 0 {
		fusionK = defaultFusionK
	}

	acc := make(map[int64]*fusedCandidate)
	order := 0
	for _, list := range lists {
		for rank, cand := range list {
			entry, ok := acc[cand.ChunkID]
			if !ok {
				entry = &fusedCandidate{candidate: cand, firstSeen: order}
				acc[cand.ChunkID] = entry
				order++
			}
			entry.score += 1.0 / float64(fusionK+rank+1)
		}
	}

	out := make([]*fusedCandidate, 0, len(acc))
	for _, entry := range acc {
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].firstSeen < out[j].firstSeen
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}

	fused := make([]domain.Candidate, 0, len(out))
	for _, entry := range out {
		cand := entry.candidate
		cand.Method = domain.MethodFused
		cand.Score = entry.score
		fused = append(fused, cand)
	}
	return fused
}

// Package chunkstore holds the read-only in-memory chunk collection the
// query side works against. It is loaded once at startup and never mutated
// on a query path.
package chunkstore

import "github.com/antonkuzmin/citedoc/internal/core/domain"

type Store struct {
	chunks []domain.Chunk
	byID   map[int64]domain.Chunk
}

func New(chunks []domain.Chunk) *Store {
	byID := make(map[int64]domain.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}
	return &Store{chunks: chunks, byID: byID}
}

// All returns the chunks in corpus order. Callers must not mutate the slice.
func (s *Store) All() []domain.Chunk {
	return s.chunks
}

func (s *Store) ByID(id int64) (domain.Chunk, bool) {
	chunk, ok := s.byID[id]
	return chunk, ok
}

func (s *Store) Len() int {
	return len(s.chunks)
}

package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Chunk is the atomic retrievable unit: a bounded slice of one source
// document's text, produced once at ingestion time and immutable afterwards.
type Chunk struct {
	ID         int64  `json:"id"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// StableChunkID derives the chunk id from (source, chunkIndex) so re-running
// ingestion over the same corpus reproduces identical ids and vector upserts
// stay idempotent. The sign bit is cleared to keep ids valid as Qdrant
// integer point ids.
func StableChunkID(source string, chunkIndex int) int64 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s::chunk%d", source, chunkIndex)))
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptChunk is one bounded transcript segment with time offsets and
// its embedding. Immutable once written by the ingestion consumer.
type TranscriptChunk struct {
	Id             uuid.UUID
	VideoId        uuid.UUID
	Text           string
	StartOffset    float64 // seconds
	EndOffset      float64 // seconds
	ChunkIndex     int
	EmbeddingValue []float32
	CreatedAt      time.Time
}

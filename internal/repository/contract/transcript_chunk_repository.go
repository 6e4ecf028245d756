package contract

import (
	"context"

	"video-intel-be/internal/entity"
	"video-intel-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredTranscriptChunk pairs a chunk with its cosine similarity to a query.
type ScoredTranscriptChunk struct {
	Chunk      *entity.TranscriptChunk
	Similarity float64
}

type TranscriptChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error
	DeleteByVideoId(ctx context.Context, videoId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore is the similarity oracle: k nearest chunks for
	// the user's library, score descending, deterministic tie-break on
	// source recency then chunk start offset.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*ScoredTranscriptChunk, error)
}

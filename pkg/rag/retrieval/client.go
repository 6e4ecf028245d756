package retrieval

import (
	"context"
	"errors"
	"time"

	"video-intel-be/internal/repository/contract"
	"video-intel-be/pkg/embedding"
	"video-intel-be/pkg/ragerr"
	"video-intel-be/pkg/store"

	"github.com/google/uuid"
)

// Config bounds a retrieval call.
type Config struct {
	// TopK is the number of nearest chunks to fetch per query.
	TopK int

	// Timeout caps the whole embed+search round trip.
	Timeout time.Duration

	// RetryBackoff is the fixed wait before the single retry.
	RetryBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:         10,
		Timeout:      10 * time.Second,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Client embeds the user's query and runs the similarity search against the
// chunk index. Transient failures get exactly one retry with a fixed
// backoff before being surfaced as ErrRetrievalUnavailable.
type Client struct {
	embedder embedding.EmbeddingProvider
	chunks   contract.TranscriptChunkRepository
	cfg      Config
}

func NewClient(embedder embedding.EmbeddingProvider, chunks contract.TranscriptChunkRepository, cfg Config) *Client {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultConfig().RetryBackoff
	}
	return &Client{embedder: embedder, chunks: chunks, cfg: cfg}
}

// Search returns the TopK most similar chunks for the user's library as
// score-descending hits. An empty result is returned as an empty slice,
// not an error; the decision engine maps that to NoContentAvailable.
func (c *Client) Search(ctx context.Context, userId uuid.UUID, query string) ([]store.SearchHit, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	scored, err := c.searchOnce(ctx, userId, query)
	if err != nil {
		if ctxErr := contextFailure(ctx, err); ctxErr != nil {
			return nil, ctxErr
		}

		// Single retry with fixed backoff
		select {
		case <-time.After(c.cfg.RetryBackoff):
		case <-ctx.Done():
			return nil, contextFailure(ctx, ctx.Err())
		}

		scored, err = c.searchOnce(ctx, userId, query)
		if err != nil {
			if ctxErr := contextFailure(ctx, err); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, ragerr.ErrRetrievalUnavailable
		}
	}

	hits := make([]store.SearchHit, 0, len(scored))
	for _, s := range scored {
		hits = append(hits, store.SearchHit{
			ChunkId:     s.Chunk.Id.String(),
			SourceId:    s.Chunk.VideoId.String(),
			Score:       s.Similarity,
			Text:        s.Chunk.Text,
			StartOffset: s.Chunk.StartOffset,
			EndOffset:   s.Chunk.EndOffset,
		})
	}
	return hits, nil
}

func (c *Client) searchOnce(ctx context.Context, userId uuid.UUID, query string) ([]*contract.ScoredTranscriptChunk, error) {
	embedRes, err := c.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	return c.chunks.SearchSimilarWithScore(ctx, embedRes.Embedding.Values, c.cfg.TopK, userId)
}

// contextFailure maps a context-driven failure. Caller cancellation
// propagates as-is (the caller is gone, retrying is pointless and the
// error must not look retryable); an expired deadline becomes ErrTimeout.
// Transport errors return nil so the caller can retry.
func contextFailure(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ragerr.ErrTimeout
	}
	return nil
}

package implementation

import (
	"context"

	"video-intel-be/internal/entity"
	"video-intel-be/internal/mapper"
	"video-intel-be/internal/model"
	"video-intel-be/internal/repository/contract"
	"video-intel-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TranscriptChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TranscriptChunkMapper
}

func NewTranscriptChunkRepository(db *gorm.DB) contract.TranscriptChunkRepository {
	return &TranscriptChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewTranscriptChunkMapper(),
	}
}

func (r *TranscriptChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranscriptChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error {
	models := make([]*model.TranscriptChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *TranscriptChunkRepositoryImpl) DeleteByVideoId(ctx context.Context, videoId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("video_id = ?", videoId).Delete(&model.TranscriptChunk{}).Error
}

func (r *TranscriptChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error) {
	var models []*model.TranscriptChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TranscriptChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *TranscriptChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.TranscriptChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns chunks with similarity scores.
// Cosine distance in pgvector is: 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) = cosine_similarity.
// The tie-break (source ingest recency, then start offset) keeps the
// ordering deterministic for identical scores.
func (r *TranscriptChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*contract.ScoredTranscriptChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.TranscriptChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	// We MUST join with 'videos' to filter by user_id and to skip videos
	// that are not fully ingested yet.
	err := r.db.WithContext(ctx).
		Table("transcript_chunks").
		Select("transcript_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN videos ON videos.id = transcript_chunks.video_id").
		Where("videos.user_id = ?", userId).
		Where("videos.status = ?", model.VideoStatusReady).
		Where("transcript_chunks.deleted_at IS NULL").
		Where("videos.deleted_at IS NULL").
		Order("similarity DESC, videos.created_at DESC, transcript_chunks.start_offset DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTranscriptChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTranscriptChunk{
			Chunk:      r.mapper.ToEntity(&res.TranscriptChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

package mapper

import (
	"video-intel-be/internal/entity"
	"video-intel-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type TranscriptChunkMapper struct{}

func NewTranscriptChunkMapper() *TranscriptChunkMapper {
	return &TranscriptChunkMapper{}
}

func (m *TranscriptChunkMapper) ToEntity(c *model.TranscriptChunk) *entity.TranscriptChunk {
	if c == nil {
		return nil
	}
	return &entity.TranscriptChunk{
		Id:             c.Id,
		VideoId:        c.VideoId,
		Text:           c.Text,
		StartOffset:    c.StartOffset,
		EndOffset:      c.EndOffset,
		ChunkIndex:     c.ChunkIndex,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		CreatedAt:      c.CreatedAt,
	}
}

func (m *TranscriptChunkMapper) ToModel(e *entity.TranscriptChunk) *model.TranscriptChunk {
	if e == nil {
		return nil
	}
	return &model.TranscriptChunk{
		Id:             e.Id,
		VideoId:        e.VideoId,
		Text:           e.Text,
		StartOffset:    e.StartOffset,
		EndOffset:      e.EndOffset,
		ChunkIndex:     e.ChunkIndex,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
	}
}

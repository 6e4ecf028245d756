package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TranscriptChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VideoId        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text           string          `gorm:"type:text"`
	StartOffset    float64         `gorm:"not null"` // seconds from video start
	EndOffset      float64         `gorm:"not null"`
	ChunkIndex     int             `gorm:"default:0"` // 0-based index for ordering
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}

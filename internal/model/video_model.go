package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VideoStatusQueued       = "queued"
	VideoStatusTranscribing = "transcribing"
	VideoStatusEmbedding    = "embedding"
	VideoStatusReady        = "ready"
	VideoStatusError        = "error"
)

type Video struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title        string         `gorm:"type:text;not null"`
	FileName     string         `gorm:"type:text;not null"`
	Status       string         `gorm:"type:text;not null;default:'queued'"`
	Progress     int            `gorm:"default:0"`
	StatusDetail string         `gorm:"type:text"`
	DurationSec  float64        `gorm:"default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Video) TableName() string {
	return "videos"
}

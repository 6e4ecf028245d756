package dto

import (
	"time"

	"github.com/google/uuid"
)

// PublishIngestVideoMessage is the queue payload that hands an uploaded
// video to the ingestion consumer.
type PublishIngestVideoMessage struct {
	VideoId uuid.UUID `json:"video_id"`
	UserId  uuid.UUID `json:"user_id"`
}

type UploadVideoResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type VideoStatusResponse struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	StatusDetail string    `json:"status_detail,omitempty"`
	DurationSec  float64   `json:"duration_sec"`
}

type VideoListItemResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	DurationSec float64    `json:"duration_sec"`
	PlaybackUrl string     `json:"playback_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	FileName     string // stored name under the upload dir
	Status       string // queued | transcribing | embedding | ready | error
	Progress     int    // 0-100
	StatusDetail string
	DurationSec  float64
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
}

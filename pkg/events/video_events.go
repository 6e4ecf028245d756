package events

import "time"

const (
	TypeVideoStatusChanged = "VIDEO_STATUS_CHANGED"
	TypeVideoReady         = "VIDEO_READY"
	TypeVideoFailed        = "VIDEO_FAILED"
)

// NewVideoStatusChanged is emitted on every ingestion stage transition
// (queued -> transcribing -> embedding -> ready).
func NewVideoStatusChanged(videoId, userId, status string, progress int) Event {
	return BaseEvent{
		Type: TypeVideoStatusChanged,
		Data: map[string]interface{}{
			"video_id": videoId,
			"user_id":  userId,
			"status":   status,
			"progress": progress,
		},
		OccurredAt: time.Now(),
	}
}

// NewVideoReady is emitted once a video is fully indexed and searchable.
func NewVideoReady(videoId, userId string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeVideoReady,
		Data: map[string]interface{}{
			"video_id":    videoId,
			"user_id":     userId,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewVideoFailed is emitted when an ingestion stage fails terminally.
func NewVideoFailed(videoId, userId, detail string) Event {
	return BaseEvent{
		Type: TypeVideoFailed,
		Data: map[string]interface{}{
			"video_id": videoId,
			"user_id":  userId,
			"detail":   detail,
		},
		OccurredAt: time.Now(),
	}
}

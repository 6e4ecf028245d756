package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionListItemResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	CurrentVideoId *uuid.UUID `json:"current_video_id,omitempty"`
	TurnCount      int        `json:"turn_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type ChatHistoryItemResponse struct {
	Id            uuid.UUID  `json:"id"`
	Role          string     `json:"role"`
	Chat          string     `json:"chat"`
	SourceVideoId *uuid.UUID `json:"source_video_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Chat          string    `json:"chat" validate:"required,min=1"`

	// ActiveSourceId is the client's view of the grounding video. Used only
	// as a fallback when the server holds no in-memory state for the thread
	// (eviction or restart); live thread state always wins.
	ActiveSourceId string `json:"active_source_id,omitempty" validate:"omitempty,uuid"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

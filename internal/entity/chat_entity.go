package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Title           string
	CurrentVideoId  *uuid.UUID
	TurnCount       int
	LastDecisionRaw []byte // JSONB snapshot of the last switch decision
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Chat          string
	SourceVideoId *uuid.UUID // video the assistant answer was grounded in
	CreatedAt     time.Time
}

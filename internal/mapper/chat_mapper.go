package mapper

import (
	"time"

	"video-intel-be/internal/entity"
	"video-intel-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:              s.Id,
		UserId:          s.UserId,
		Title:           s.Title,
		CurrentVideoId:  s.CurrentVideoId,
		TurnCount:       s.TurnCount,
		LastDecisionRaw: []byte(s.LastDecision),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *ChatMapper) SessionToModel(e *entity.ChatSession) *model.ChatSession {
	if e == nil {
		return nil
	}

	s := &model.ChatSession{
		Id:             e.Id,
		UserId:         e.UserId,
		Title:          e.Title,
		CurrentVideoId: e.CurrentVideoId,
		TurnCount:      e.TurnCount,
		LastDecision:   datatypes.JSON(e.LastDecisionRaw),
		CreatedAt:      e.CreatedAt,
	}
	if e.UpdatedAt != nil {
		s.UpdatedAt = *e.UpdatedAt
	}
	return s
}

func (m *ChatMapper) MessageToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:            c.Id,
		ChatSessionId: c.ChatSessionId,
		Role:          c.Role,
		Chat:          c.Chat,
		SourceVideoId: c.SourceVideoId,
		CreatedAt:     c.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(e *entity.ChatMessage) *model.ChatMessage {
	if e == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:            e.Id,
		ChatSessionId: e.ChatSessionId,
		Role:          e.Role,
		Chat:          e.Chat,
		SourceVideoId: e.SourceVideoId,
		CreatedAt:     e.CreatedAt,
	}
}

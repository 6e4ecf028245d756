package history

import (
	"context"

	"video-intel-be/internal/constant"
	"video-intel-be/internal/repository/specification"
	"video-intel-be/internal/repository/unitofwork"
	"video-intel-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader replays a session's persisted messages as provider-agnostic chat
// history. System prompts are rebuilt fresh each turn, so only user and
// model messages are loaded.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
	window     int
}

func NewLoader(uowFactory unitofwork.RepositoryFactory, window int) *Loader {
	if window <= 0 {
		window = constant.ChatHistoryWindow
	}
	return &Loader{uowFactory: uowFactory, window: window}
}

// LoadConversationHistory returns the most recent messages for the session
// in chronological order, capped to the configured window.
func (l *Loader) LoadConversationHistory(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	if len(messages) > l.window {
		messages = messages[len(messages)-l.window:]
	}

	hist := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != constant.ChatMessageRoleUser && msg.Role != constant.ChatMessageRoleModel {
			continue
		}
		hist = append(hist, llm.Message{
			Role:    msg.Role,
			Content: msg.Chat,
		})
	}

	return hist, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"video-intel-be/internal/constant"
	"video-intel-be/internal/dto"
	"video-intel-be/internal/entity"
	"video-intel-be/internal/repository/memory"
	"video-intel-be/internal/repository/specification"
	"video-intel-be/internal/repository/unitofwork"
	"video-intel-be/pkg/rag/executor"

	"github.com/google/uuid"
)

const sessionTitleMaxLen = 60

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItemResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatHistoryItemResponse, error)
	StreamChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest, out io.Writer) error
	DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	turnExecutor *executor.TurnExecutor
	sessionRepo  *memory.SessionRepository
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	turnExecutor *executor.TurnExecutor,
	sessionRepo *memory.SessionRepository,
) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		turnExecutor: turnExecutor,
		sessionRepo:  sessionRepo,
	}
}

func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "Unnamed session",
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id}, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItemResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.SessionListItemResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.SessionListItemResponse{
			Id:             s.Id,
			Title:          s.Title,
			CurrentVideoId: s.CurrentVideoId,
			TurnCount:      s.TurnCount,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		})
	}

	return response, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.ChatHistoryItemResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.ChatHistoryItemResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.ChatHistoryItemResponse{
			Id:            msg.Id,
			Role:          msg.Role,
			Chat:          msg.Chat,
			SourceVideoId: msg.SourceVideoId,
			CreatedAt:     msg.CreatedAt,
		})
	}

	return resp, nil
}

// StreamChat runs one answer turn, streaming tokens (and the in-band switch
// marker) to out. Messages and session state are persisted only after the
// stream completes; a failed or cancelled turn leaves no trace beyond the
// partial bytes already sent.
func (cs *chatService) StreamChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest, out io.Writer) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession, err := cs.verifySession(ctx, uow, userId, request.ChatSessionId)
	if err != nil {
		return err
	}

	result, err := cs.turnExecutor.Execute(ctx, executor.TurnRequest{
		SessionId:      request.ChatSessionId,
		UserId:         userId,
		Query:          request.Chat,
		ActiveSourceId: request.ActiveSourceId,
	}, out)
	if err != nil {
		return err
	}

	return cs.persistTurn(ctx, chatSession, request.Chat, result)
}

func (cs *chatService) persistTurn(ctx context.Context, chatSession *entity.ChatSession, query string, result *executor.TurnResult) error {
	// Persistence runs on a fresh unit of work: the request context may
	// already be cancelled by a client that disconnected after the last
	// token, and the completed turn must still be recorded.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	uow := cs.uowFactory.NewUnitOfWork(persistCtx)
	now := time.Now()

	if err := uow.Begin(persistCtx); err != nil {
		return err
	}
	defer uow.Rollback()

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleUser,
		Chat:          query,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(persistCtx, userMessage); err != nil {
		return err
	}

	modelMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleModel,
		Chat:          result.Answer,
		CreatedAt:     now.Add(1 * time.Millisecond),
	}
	if sourceId, err := uuid.Parse(result.Decision.SelectedSourceId); err == nil {
		modelMessage.SourceVideoId = &sourceId
	}
	if err := uow.ChatMessageRepository().Create(persistCtx, modelMessage); err != nil {
		return err
	}

	if chatSession.TurnCount == 0 {
		chatSession.Title = truncateTitle(query)
	}
	chatSession.TurnCount++
	chatSession.CurrentVideoId = modelMessage.SourceVideoId
	if raw, err := json.Marshal(result.Decision); err == nil {
		chatSession.LastDecisionRaw = raw
	}
	if err := uow.ChatSessionRepository().Update(persistCtx, chatSession); err != nil {
		return err
	}

	return uow.Commit()
}

func (cs *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, request *dto.DeleteSessionRequest) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.verifySession(ctx, uow, userId, request.ChatSessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, request.ChatSessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, request.ChatSessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.sessionRepo.Delete(request.ChatSessionId.String())

	return nil
}

func (cs *chatService) verifySession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or access denied")
	}
	return sess, nil
}

func truncateTitle(query string) string {
	runes := []rune(query)
	if len(runes) <= sessionTitleMaxLen {
		return query
	}
	return string(runes[:sessionTitleMaxLen]) + "..."
}

package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"video-intel-be/internal/entity"
	"video-intel-be/internal/repository/contract"
	"video-intel-be/internal/repository/memory"
	"video-intel-be/internal/repository/specification"
	"video-intel-be/internal/repository/unitofwork"
	"video-intel-be/pkg/embedding"
	"video-intel-be/pkg/llm"
	"video-intel-be/pkg/rag/decision"
	"video-intel-be/pkg/rag/history"
	"video-intel-be/pkg/rag/prompt"
	"video-intel-be/pkg/rag/retrieval"
	"video-intel-be/pkg/rag/signal"
	"video-intel-be/pkg/ragerr"
	"video-intel-be/pkg/store"

	"github.com/google/uuid"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type fakeChunkRepo struct {
	scored      []*contract.ScoredTranscriptChunk
	err         error
	searchCalls int
}

func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.TranscriptChunk) error {
	return nil
}

func (f *fakeChunkRepo) DeleteByVideoId(ctx context.Context, videoId uuid.UUID) error {
	return nil
}

func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptChunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, userId uuid.UUID) ([]*contract.ScoredTranscriptChunk, error) {
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scored, nil
}

type fakeLLM struct {
	tokens []string
	err    error
}

func (f *fakeLLM) Chat(ctx context.Context, hist []llm.Message, opts ...llm.Option) (string, error) {
	return strings.Join(f.tokens, ""), f.err
}

func (f *fakeLLM) ChatStream(ctx context.Context, hist []llm.Message, onToken llm.TokenHandler, opts ...llm.Option) error {
	for _, tok := range f.tokens {
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return strings.Join(f.tokens, ""), f.err
}

// cancellingLLM emits one token, then cancels the caller's context and
// reports the cancellation, mimicking a client that disconnected mid-stream.
type cancellingLLM struct {
	cancel context.CancelFunc
}

func (f *cancellingLLM) Chat(ctx context.Context, hist []llm.Message, opts ...llm.Option) (string, error) {
	return "", context.Canceled
}

func (f *cancellingLLM) ChatStream(ctx context.Context, hist []llm.Message, onToken llm.TokenHandler, opts ...llm.Option) error {
	if err := onToken("partial"); err != nil {
		return err
	}
	f.cancel()
	<-ctx.Done()
	return ctx.Err()
}

func (f *cancellingLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "", context.Canceled
}

type fakeMessageRepo struct {
	messages []*entity.ChatMessage
	err      error
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}

func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.messages, f.err
}

type fakeUnitOfWork struct {
	messageRepo *fakeMessageRepo
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error                   { return nil }
func (f *fakeUnitOfWork) Rollback() error                 { return nil }

func (f *fakeUnitOfWork) UserRepository() contract.UserRepository                   { return nil }
func (f *fakeUnitOfWork) VideoRepository() contract.VideoRepository                 { return nil }
func (f *fakeUnitOfWork) TranscriptChunkRepository() contract.TranscriptChunkRepository {
	return nil
}
func (f *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (f *fakeUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return f.messageRepo
}

type fakeUowFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func scoredChunk(videoId uuid.UUID, score float64, text string) *contract.ScoredTranscriptChunk {
	return &contract.ScoredTranscriptChunk{
		Chunk: &entity.TranscriptChunk{
			Id:          uuid.New(),
			VideoId:     videoId,
			Text:        text,
			StartOffset: 10,
			EndOffset:   25,
		},
		Similarity: score,
	}
}

type executorDeps struct {
	exec        *TurnExecutor
	sessions    *memory.SessionRepository
	chunkRepo   *fakeChunkRepo
	messageRepo *fakeMessageRepo
}

func newTestExecutor(provider llm.LLMProvider, chunkRepo *fakeChunkRepo, messageRepo *fakeMessageRepo) *executorDeps {
	sessions := memory.NewSessionRepository()
	retriever := retrieval.NewClient(&fakeEmbedder{}, chunkRepo, retrieval.Config{
		TopK:         10,
		Timeout:      2 * time.Second,
		RetryBackoff: time.Millisecond,
	})
	loader := history.NewLoader(&fakeUowFactory{uow: &fakeUnitOfWork{messageRepo: messageRepo}}, 20)

	exec := NewTurnExecutor(
		retriever,
		provider,
		prompt.NewBuilder(1),
		loader,
		sessions,
		decision.Config{StickyWindow: 3},
		time.Minute,
		nopLogger{},
	)
	return &executorDeps{exec: exec, sessions: sessions, chunkRepo: chunkRepo, messageRepo: messageRepo}
}

func TestExecuteStreamsAnswerAndCommits(t *testing.T) {
	videoId := uuid.New()
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"The answer", " is at [00:10]."}},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{scoredChunk(videoId, 0.92, "chunk text")}},
		&fakeMessageRepo{},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "where is the answer?"}
	var out strings.Builder
	res, err := deps.exec.Execute(context.Background(), req, &out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Answer != "The answer is at [00:10]." {
		t.Errorf("Answer = %q", res.Answer)
	}
	if res.Decision.SelectedSourceId != videoId.String() {
		t.Errorf("SelectedSourceId = %q, want %q", res.Decision.SelectedSourceId, videoId)
	}
	if res.Decision.Switched {
		t.Errorf("Switched = true, want false on first turn")
	}
	// First turn: no switch marker on the wire.
	if out.String() != res.Answer {
		t.Errorf("stream = %q, want bare answer", out.String())
	}

	state, found := deps.sessions.Get(req.SessionId.String())
	if !found {
		t.Fatal("session state not committed")
	}
	if state.CurrentSourceId != videoId.String() || state.TurnCount != 1 {
		t.Errorf("state = %+v, want source %q at turn 1", state, videoId)
	}
}

func TestExecuteEmitsMarkerOnSwitch(t *testing.T) {
	videoA := uuid.New()
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"Covered", " in the other video."}},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{scoredChunk(videoA, 0.95, "chunk")}},
		&fakeMessageRepo{},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "what about X?"}

	// Thread already grounded in a different video that no longer matches.
	deps.sessions.Save(&store.ConversationState{
		ThreadId:        req.SessionId.String(),
		UserId:          req.UserId.String(),
		CurrentSourceId: uuid.New().String(),
		TurnCount:       2,
	})

	var out strings.Builder
	res, err := deps.exec.Execute(context.Background(), req, &out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !res.Decision.Switched {
		t.Fatal("Switched = false, want true")
	}
	marker := signal.Marker(videoA.String())
	if got := strings.Count(out.String(), marker); got != 1 {
		t.Fatalf("marker count = %d in %q, want 1", got, out.String())
	}
	if !strings.HasPrefix(out.String(), "Covered"+marker) {
		t.Errorf("marker not placed after first token: %q", out.String())
	}

	state, _ := deps.sessions.Get(req.SessionId.String())
	if state.TurnCount != 3 || state.CurrentSourceId != videoA.String() {
		t.Errorf("state = %+v, want turn 3 on %q", state, videoA)
	}
}

func TestExecuteActiveSourceHintFallback(t *testing.T) {
	videoA := uuid.New()
	videoB := uuid.New()
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"answer"}},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{
			scoredChunk(videoA, 0.95, "best match"),
			scoredChunk(videoB, 0.93, "close second"),
		}},
		&fakeMessageRepo{},
	)

	// No in-memory state (restart/eviction); the client's hint stands in for
	// the current source and stickiness keeps it.
	req := TurnRequest{
		SessionId:      uuid.New(),
		UserId:         uuid.New(),
		Query:          "q",
		ActiveSourceId: videoB.String(),
	}
	var out strings.Builder
	res, err := deps.exec.Execute(context.Background(), req, &out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Decision.SelectedSourceId != videoB.String() {
		t.Errorf("SelectedSourceId = %q, want hinted %q kept", res.Decision.SelectedSourceId, videoB)
	}
	if res.Decision.Switched {
		t.Errorf("Switched = true, want false when hint is kept")
	}
}

func TestExecuteNoCommitOnGenerationFailure(t *testing.T) {
	videoId := uuid.New()
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"partial"}, err: errors.New("connection reset")},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{scoredChunk(videoId, 0.9, "chunk")}},
		&fakeMessageRepo{},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "q"}
	var out strings.Builder
	_, err := deps.exec.Execute(context.Background(), req, &out)
	if !errors.Is(err, ragerr.ErrGenerationFailure) {
		t.Fatalf("error = %v, want ErrGenerationFailure", err)
	}

	if _, found := deps.sessions.Get(req.SessionId.String()); found {
		t.Error("failed turn committed session state")
	}

	// The latch must be released so the user can retry.
	if err := deps.sessions.BeginTurn(req.SessionId.String()); err != nil {
		t.Errorf("BeginTurn after failed turn = %v, want latch free", err)
	}
}

func TestExecuteNoCommitOnCancellation(t *testing.T) {
	videoId := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := newTestExecutor(
		&cancellingLLM{cancel: cancel},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{scoredChunk(videoId, 0.9, "chunk")}},
		&fakeMessageRepo{},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "q"}
	var out strings.Builder
	_, err := deps.exec.Execute(ctx, req, &out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled propagated", err)
	}

	// A disconnected client leaves the thread exactly as it was.
	if _, found := deps.sessions.Get(req.SessionId.String()); found {
		t.Error("cancelled turn committed session state")
	}
	if err := deps.sessions.BeginTurn(req.SessionId.String()); err != nil {
		t.Errorf("BeginTurn after cancelled turn = %v, want latch free", err)
	}
}

func TestExecuteRejectsConcurrentTurn(t *testing.T) {
	videoId := uuid.New()
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"ok"}},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{scoredChunk(videoId, 0.9, "chunk")}},
		&fakeMessageRepo{},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "q"}
	if err := deps.sessions.BeginTurn(req.SessionId.String()); err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}
	defer deps.sessions.EndTurn(req.SessionId.String())

	var out strings.Builder
	_, err := deps.exec.Execute(context.Background(), req, &out)
	if !errors.Is(err, ragerr.ErrTurnInProgress) {
		t.Fatalf("error = %v, want ErrTurnInProgress", err)
	}
	if out.Len() != 0 {
		t.Errorf("rejected turn wrote %q to the stream", out.String())
	}
}

func TestExecuteNoContent(t *testing.T) {
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"ok"}},
		&fakeChunkRepo{}, // empty library
		&fakeMessageRepo{},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "q"}
	var out strings.Builder
	_, err := deps.exec.Execute(context.Background(), req, &out)
	if !errors.Is(err, ragerr.ErrNoContentAvailable) {
		t.Fatalf("error = %v, want ErrNoContentAvailable", err)
	}
}

func TestExecuteRetrievalUnavailable(t *testing.T) {
	chunkRepo := &fakeChunkRepo{err: errors.New("db down")}
	deps := newTestExecutor(&fakeLLM{tokens: []string{"ok"}}, chunkRepo, &fakeMessageRepo{})

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "q"}
	var out strings.Builder
	_, err := deps.exec.Execute(context.Background(), req, &out)
	if !errors.Is(err, ragerr.ErrRetrievalUnavailable) {
		t.Fatalf("error = %v, want ErrRetrievalUnavailable", err)
	}
	if chunkRepo.searchCalls != 2 {
		t.Errorf("searchCalls = %d, want 2 (one retry)", chunkRepo.searchCalls)
	}
}

func TestExecuteHistoryFailureTolerated(t *testing.T) {
	videoId := uuid.New()
	deps := newTestExecutor(
		&fakeLLM{tokens: []string{"still answered"}},
		&fakeChunkRepo{scored: []*contract.ScoredTranscriptChunk{scoredChunk(videoId, 0.9, "chunk")}},
		&fakeMessageRepo{err: errors.New("history table gone")},
	)

	req := TurnRequest{SessionId: uuid.New(), UserId: uuid.New(), Query: "q"}
	var out strings.Builder
	res, err := deps.exec.Execute(context.Background(), req, &out)
	if err != nil {
		t.Fatalf("Execute() error = %v, want history failure tolerated", err)
	}
	if res.Answer != "still answered" {
		t.Errorf("Answer = %q", res.Answer)
	}
}

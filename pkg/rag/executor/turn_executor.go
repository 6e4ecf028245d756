package executor

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"video-intel-be/internal/pkg/logger"
	"video-intel-be/internal/repository/memory"
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

// TurnRequest carries one user turn into the coordinator.
type TurnRequest struct {
	SessionId uuid.UUID
	UserId    uuid.UUID
	Query     string

	// ActiveSourceId is the client's fallback hint for the grounding source,
	// consulted only when no in-memory state exists for the thread.
	ActiveSourceId string
}

// TurnResult is returned after a turn fully completes and commits.
type TurnResult struct {
	Answer   string
	Decision *store.Decision
	State    *store.ConversationState
}

// TurnExecutor coordinates one answer turn: retrieve, decide the grounding
// source, generate, and stream the answer with the switch marker encoded
// in-band. Session state advances only when the whole turn succeeds; any
// failure or cancellation leaves the thread exactly as it was.
type TurnExecutor struct {
	retriever     *retrieval.Client
	llmProvider   llm.LLMProvider
	promptBuilder *prompt.Builder
	historyLoader *history.Loader
	sessions      *memory.SessionRepository
	decisionCfg   decision.Config
	generateLimit time.Duration
	log           logger.ILogger
}

func NewTurnExecutor(
	retriever *retrieval.Client,
	llmProvider llm.LLMProvider,
	promptBuilder *prompt.Builder,
	historyLoader *history.Loader,
	sessions *memory.SessionRepository,
	decisionCfg decision.Config,
	generateLimit time.Duration,
	log logger.ILogger,
) *TurnExecutor {
	if generateLimit <= 0 {
		generateLimit = 120 * time.Second
	}
	return &TurnExecutor{
		retriever:     retriever,
		llmProvider:   llmProvider,
		promptBuilder: promptBuilder,
		historyLoader: historyLoader,
		sessions:      sessions,
		decisionCfg:   decisionCfg,
		generateLimit: generateLimit,
		log:           log,
	}
}

// Execute runs one turn, streaming the visible answer (plus the one-shot
// switch marker) to out as tokens arrive. At most one turn runs per thread;
// a concurrent call gets ErrTurnInProgress immediately.
func (e *TurnExecutor) Execute(ctx context.Context, req TurnRequest, out io.Writer) (*TurnResult, error) {
	threadId := req.SessionId.String()

	if err := e.sessions.BeginTurn(threadId); err != nil {
		return nil, err
	}
	defer e.sessions.EndTurn(threadId)

	currentSourceId := req.ActiveSourceId
	if state, found := e.sessions.Get(threadId); found {
		currentSourceId = state.CurrentSourceId
	}

	hits, err := e.retriever.Search(ctx, req.UserId, req.Query)
	if err != nil {
		e.log.Warn("rag", "retrieval failed", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
		return nil, err
	}

	dec, err := decision.Decide(currentSourceId, hits, e.decisionCfg)
	if err != nil {
		return nil, err
	}

	e.log.Info("rag", "switch decision", map[string]interface{}{
		"thread_id": threadId,
		"source_id": dec.SelectedSourceId,
		"switched":  dec.Switched,
		"hits":      len(hits),
	})

	evidence := decision.EvidenceForSource(hits, dec.SelectedSourceId)

	hist, err := e.historyLoader.LoadConversationHistory(ctx, req.SessionId)
	if err != nil {
		// History is an enhancement, not a precondition; answer without it.
		e.log.Warn("rag", "history load failed", map[string]interface{}{
			"thread_id": threadId,
			"error":     err.Error(),
		})
		hist = nil
	}

	messages := e.promptBuilder.Build(req.Query, evidence, hist)

	answer, err := e.generate(ctx, messages, dec, out)
	if err != nil {
		return nil, err
	}

	// Atomic commit: the only place thread state advances.
	state := e.sessions.Commit(threadId, req.UserId.String(), req.Query, dec)

	return &TurnResult{
		Answer:   answer,
		Decision: dec,
		State:    state,
	}, nil
}

func (e *TurnExecutor) generate(ctx context.Context, messages []llm.Message, dec *store.Decision, out io.Writer) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.generateLimit)
	defer cancel()

	encoder := signal.NewEncoder(out, dec.Switched, dec.SelectedSourceId)

	var answer strings.Builder
	streamErr := e.llmProvider.ChatStream(ctx, messages, func(token string) error {
		answer.WriteString(token)
		return encoder.WriteToken(token)
	})

	if streamErr != nil {
		if errors.Is(streamErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ragerr.ErrTimeout
		}
		if errors.Is(streamErr, context.Canceled) {
			return "", streamErr
		}
		e.log.Error("rag", "generation failed mid-stream", map[string]interface{}{
			"error": streamErr.Error(),
		})
		return "", ragerr.ErrGenerationFailure
	}

	if err := encoder.Close(); err != nil {
		return "", ragerr.ErrGenerationFailure
	}

	return answer.String(), nil
}

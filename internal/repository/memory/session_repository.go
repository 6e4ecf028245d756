package memory

import (
	"sync"
	"time"

	"video-intel-be/pkg/ragerr"
	"video-intel-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds the in-memory conversation state per thread.
// Eviction is TTL-based (idle threads expire); the state itself is only
// ever advanced by Commit, so an uncommitted turn can never leave a trace.
type SessionRepository struct {
	cache *cache.Cache

	// busy marks threads with a turn in flight. A second turn on the same
	// thread is rejected rather than queued, which keeps per-thread commit
	// ordering trivial: at most one uncommitted turn exists per thread.
	mu   sync.Mutex
	busy map[string]bool
}

func NewSessionRepository() *SessionRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		busy:  make(map[string]bool),
	}
}

func (r *SessionRepository) Get(threadId string) (*store.ConversationState, bool) {
	if x, found := r.cache.Get(threadId); found {
		return x.(*store.ConversationState), true
	}
	return nil, false
}

func (r *SessionRepository) Save(state *store.ConversationState) {
	r.cache.Set(state.ThreadId, state, cache.DefaultExpiration)
}

func (r *SessionRepository) Delete(threadId string) {
	r.cache.Delete(threadId)
}

// BeginTurn takes the thread's single-writer latch. Callers must pair it
// with EndTurn. Returns ErrTurnInProgress if another turn holds the latch.
func (r *SessionRepository) BeginTurn(threadId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy[threadId] {
		return ragerr.ErrTurnInProgress
	}
	r.busy[threadId] = true
	return nil
}

func (r *SessionRepository) EndTurn(threadId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.busy, threadId)
}

// Commit atomically advances the thread state for one completed turn.
// This is the only mutation path: a turn that fails before completion
// simply never calls Commit.
func (r *SessionRepository) Commit(threadId, userId, query string, decision *store.Decision) *store.ConversationState {
	state, found := r.Get(threadId)
	if !found {
		state = &store.ConversationState{
			ThreadId: threadId,
			UserId:   userId,
		}
	}

	state.CurrentSourceId = decision.SelectedSourceId
	state.TurnCount++
	state.LastDecision = decision
	state.LastQuery = query

	r.Save(state)
	return state
}

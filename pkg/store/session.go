package store

import "time"

// SearchHit is a single similarity result from the vector index.
// Produced per query, never persisted.
type SearchHit struct {
	ChunkId     string  `json:"chunk_id"`
	SourceId    string  `json:"source_id"`
	Score       float64 `json:"score"`
	Text        string  `json:"text"`
	StartOffset float64 `json:"start_offset"` // seconds
	EndOffset   float64 `json:"end_offset"`   // seconds
}

// Decision is the outcome of the switch decision engine for one turn.
type Decision struct {
	SelectedSourceId string      `json:"selected_source_id"`
	Switched         bool        `json:"switched"`
	CandidateHits    []SearchHit `json:"candidate_hits"`
	DecidedAt        time.Time   `json:"decided_at"`
}

// ConversationState is the per-thread session state kept in memory.
// CurrentSourceId is empty until the first committed turn; it is only
// ever mutated by a completed turn (atomic commit).
type ConversationState struct {
	ThreadId        string    `json:"thread_id"`
	UserId          string    `json:"user_id"`
	CurrentSourceId string    `json:"current_source_id"`
	TurnCount       int       `json:"turn_count"`
	LastDecision    *Decision `json:"last_decision"`
	LastQuery       string    `json:"last_query"`
}

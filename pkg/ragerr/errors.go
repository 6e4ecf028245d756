package ragerr

import "errors"

// Turn-level error taxonomy. Callers distinguish retryable from terminal
// failures with Retryable; none of these ever leave a partially mutated
// conversation state behind.
var (
	// ErrRetrievalUnavailable means the vector index could not be reached
	// even after the single retry. Retryable by the caller.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrNoContentAvailable means the index returned zero hits for the
	// user's library. Surfaced immediately, no retry.
	ErrNoContentAvailable = errors.New("no content available")

	// ErrGenerationFailure means the generation oracle failed mid-stream.
	// Partial text already sent stays as-is; the turn does not commit.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrTurnInProgress means another turn is in flight on the same thread.
	// The caller should retry after the current turn completes.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrTimeout means an oracle call exceeded its deadline. Retryable.
	ErrTimeout = errors.New("oracle timeout")

	// ErrMalformedSignal is internal to the signal codec: an unparseable
	// marker was stripped defensively. Never surfaced as fatal.
	ErrMalformedSignal = errors.New("malformed switch signal")
)

// Retryable reports whether the caller may retry the turn as-is.
func Retryable(err error) bool {
	return errors.Is(err, ErrRetrievalUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrTurnInProgress)
}

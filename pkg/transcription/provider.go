package transcription

import (
	"context"
	"io"
)

// Segment is a transcribed span with its playback position in seconds.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Transcript is the full result of transcribing one media file.
type Transcript struct {
	Text        string
	Segments    []Segment
	DurationSec float64
	Language    string
}

// Provider defines the contract for any speech-to-text backend
type Provider interface {
	// Transcribe converts an audio/video stream into a timed transcript.
	// filename is used by the backend for format detection.
	Transcribe(ctx context.Context, filename string, media io.Reader) (*Transcript, error)
}

package signal

import (
	"strings"
	"testing"
)

func encodeAll(t *testing.T, switched bool, sourceId string, tokens []string) string {
	t.Helper()
	var sb strings.Builder
	enc := NewEncoder(&sb, switched, sourceId)
	for _, tok := range tokens {
		if err := enc.WriteToken(tok); err != nil {
			t.Fatalf("WriteToken(%q) error = %v", tok, err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return sb.String()
}

func TestEncoderInjectsMarkerOnce(t *testing.T) {
	out := encodeAll(t, true, "video-a", []string{"The", " answer", " is 42."})

	if got := strings.Count(out, Marker("video-a")); got != 1 {
		t.Fatalf("marker count = %d, want 1 in %q", got, out)
	}
	// Marker sits right after the first flushed content.
	if !strings.HasPrefix(out, "The"+Marker("video-a")) {
		t.Errorf("marker not after first token: %q", out)
	}
	if !strings.HasSuffix(out, " is 42.") {
		t.Errorf("content truncated: %q", out)
	}
}

func TestEncoderNoSwitchPassthrough(t *testing.T) {
	out := encodeAll(t, false, "video-a", []string{"Hello", " world"})
	if out != "Hello world" {
		t.Errorf("out = %q, want passthrough", out)
	}
}

func TestEncoderStripsLiteralDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{"delimiter in one token", []string{"foo <<SOURCE:bar"}},
		{"delimiter split across tokens", []string{"foo <<SO", "URCE:bar"}},
		{"delimiter split byte by byte", []string{"foo ", "<", "<", "S", "O", "U", "R", "C", "E", ":", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := encodeAll(t, false, "", tt.tokens)
			if out != "foo bar" {
				t.Errorf("out = %q, want %q", out, "foo bar")
			}
		})
	}
}

func TestEncoderEmptyStreamEmitsNothing(t *testing.T) {
	out := encodeAll(t, true, "video-a", nil)
	if out != "" {
		t.Errorf("out = %q, want empty: marker must not be sent bare", out)
	}
}

func TestEncoderAngleBracketsSurvive(t *testing.T) {
	// Ordinary angle brackets are not the delimiter and must pass through.
	out := encodeAll(t, false, "", []string{"a < b << c"})
	if out != "a < b << c" {
		t.Errorf("out = %q, want unmodified", out)
	}
}

func feedAll(t *testing.T, chunks []string) (string, []*SwitchEvent) {
	t.Helper()
	dec := NewDecoder()
	var visible strings.Builder
	var events []*SwitchEvent
	for _, c := range chunks {
		text, ev := dec.Feed(c)
		visible.WriteString(text)
		if ev != nil {
			events = append(events, ev)
		}
	}
	visible.WriteString(dec.Flush())
	return visible.String(), events
}

func TestDecoderWholeMarker(t *testing.T) {
	visible, events := feedAll(t, []string{"Hello" + Marker("video-a") + " world"})

	if visible != "Hello world" {
		t.Errorf("visible = %q, want %q", visible, "Hello world")
	}
	if len(events) != 1 || events[0].SourceId != "video-a" {
		t.Fatalf("events = %+v, want one event for video-a", events)
	}
}

func TestDecoderMarkerSplitAcrossChunks(t *testing.T) {
	full := "Hi" + Marker("video-a") + " there"

	// Every possible split point of the stream into two chunks.
	for i := 0; i <= len(full); i++ {
		visible, events := feedAll(t, []string{full[:i], full[i:]})
		if visible != "Hi there" {
			t.Errorf("split %d: visible = %q, want %q", i, visible, "Hi there")
		}
		if len(events) != 1 || events[0].SourceId != "video-a" {
			t.Errorf("split %d: events = %+v, want one video-a event", i, events)
		}
	}
}

func TestDecoderByteByByte(t *testing.T) {
	full := Marker("video-a") + "answer"
	chunks := make([]string, 0, len(full))
	for _, r := range full {
		chunks = append(chunks, string(r))
	}

	visible, events := feedAll(t, chunks)
	if visible != "answer" {
		t.Errorf("visible = %q, want %q", visible, "answer")
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
}

func TestDecoderAtMostOneEvent(t *testing.T) {
	visible, events := feedAll(t, []string{
		Marker("video-a") + "text" + Marker("video-b") + "more",
	})

	if len(events) != 1 || events[0].SourceId != "video-a" {
		t.Fatalf("events = %+v, want only the first marker to fire", events)
	}
	if visible != "textmore" {
		t.Errorf("visible = %q, want both markers stripped", visible)
	}
}

func TestDecoderMalformedMarker(t *testing.T) {
	t.Run("unterminated at end of stream", func(t *testing.T) {
		visible, events := feedAll(t, []string{"text <<SOURCE:never-closed"})
		if visible != "text never-closed" {
			t.Errorf("visible = %q, want delimiter stripped", visible)
		}
		if len(events) != 0 {
			t.Errorf("events = %+v, want none for malformed marker", events)
		}
	})

	t.Run("oversized candidate", func(t *testing.T) {
		long := strings.Repeat("x", maxMarkerLen+10)
		visible, events := feedAll(t, []string{"a <<SOURCE:" + long + " b"})
		if len(events) != 0 {
			t.Errorf("events = %+v, want none", events)
		}
		if !strings.Contains(visible, long) {
			t.Errorf("oversized payload lost from visible text")
		}
		if strings.Contains(visible, "<<SOURCE:") {
			t.Errorf("reserved delimiter leaked into visible text: %q", visible)
		}
	})

	t.Run("empty source id", func(t *testing.T) {
		visible, events := feedAll(t, []string{"a" + markerPrefix + markerSuffix + "b"})
		if visible != "ab" {
			t.Errorf("visible = %q, want %q", visible, "ab")
		}
		if len(events) != 0 {
			t.Errorf("events = %+v, want none for empty id", events)
		}
	})
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	var wire strings.Builder
	enc := NewEncoder(&wire, true, "video-b")
	for _, tok := range []string{"First", " point", " [02:15].", " Second", " point."} {
		if err := enc.WriteToken(tok); err != nil {
			t.Fatalf("WriteToken error = %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	// Deliver in awkward 3-byte transport chunks.
	encoded := wire.String()
	var chunks []string
	for i := 0; i < len(encoded); i += 3 {
		end := i + 3
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, encoded[i:end])
	}

	visible, events := feedAll(t, chunks)
	if visible != "First point [02:15]. Second point." {
		t.Errorf("visible = %q", visible)
	}
	if len(events) != 1 || events[0].SourceId != "video-b" {
		t.Fatalf("events = %+v, want one video-b event", events)
	}
}

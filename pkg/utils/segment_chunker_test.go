package utils

import (
	"strings"
	"testing"
)

func seg(text string, start, end float64) TimedSegment {
	return TimedSegment{Text: text, Start: start, End: end}
}

func TestChunkSegmentsEmpty(t *testing.T) {
	if got := ChunkSegments(nil, 100, 1); got != nil {
		t.Errorf("ChunkSegments(nil) = %+v, want nil", got)
	}
}

func TestChunkSegmentsSingleChunk(t *testing.T) {
	segments := []TimedSegment{
		seg("hello there", 0, 2.5),
		seg("how are you", 2.5, 5),
	}

	chunks := ChunkSegments(segments, 100, 1)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "hello there how are you" {
		t.Errorf("Text = %q", chunks[0].Text)
	}
	if chunks[0].Start != 0 || chunks[0].End != 5 {
		t.Errorf("span = [%v, %v], want [0, 5]", chunks[0].Start, chunks[0].End)
	}
}

func TestChunkSegmentsNeverSplitsSegments(t *testing.T) {
	segments := []TimedSegment{
		seg("aaaaaaaaaa", 0, 1),  // 10 chars
		seg("bbbbbbbbbb", 1, 2),  // 10 chars
		seg("cccccccccc", 2, 3),  // 10 chars
	}

	// chunkSize 15 fits one segment but not two (10 + 1 + 10 > 15).
	chunks := ChunkSegments(segments, 15, 0)
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3: %+v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if strings.Contains(c.Text, " ") {
			t.Errorf("chunk %d merged across boundary: %q", i, c.Text)
		}
		if c.Start != float64(i) || c.End != float64(i+1) {
			t.Errorf("chunk %d span = [%v, %v], want [%d, %d]", i, c.Start, c.End, i, i+1)
		}
	}
}

func TestChunkSegmentsOversizedSegmentKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := ChunkSegments([]TimedSegment{seg(long, 3, 9)}, 10, 0)
	if len(chunks) != 1 || chunks[0].Text != long {
		t.Fatalf("chunks = %+v, want one whole oversized chunk", chunks)
	}
	if chunks[0].Start != 3 || chunks[0].End != 9 {
		t.Errorf("span = [%v, %v], want original timing", chunks[0].Start, chunks[0].End)
	}
}

func TestChunkSegmentsOverlap(t *testing.T) {
	segments := []TimedSegment{
		seg("aaaa", 0, 1),
		seg("bbbb", 1, 2),
		seg("cccc", 2, 3),
		seg("dddd", 3, 4),
	}

	// chunkSize 9 fits two segments (4 + 1 + 4). With overlap 1 the last
	// segment of each chunk opens the next one.
	chunks := ChunkSegments(segments, 9, 1)
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3: %+v", len(chunks), chunks)
	}
	want := []struct {
		text       string
		start, end float64
	}{
		{"aaaa bbbb", 0, 2},
		{"bbbb cccc", 1, 3},
		{"cccc dddd", 2, 4},
	}
	for i, w := range want {
		if chunks[i].Text != w.text || chunks[i].Start != w.start || chunks[i].End != w.end {
			t.Errorf("chunk %d = %+v, want {%q [%v, %v]}", i, chunks[i], w.text, w.start, w.end)
		}
	}
}

func TestChunkSegmentsOverlapAlwaysProgresses(t *testing.T) {
	segments := []TimedSegment{
		seg("aaaa", 0, 1),
		seg("bbbb", 1, 2),
		seg("cccc", 2, 3),
	}

	// Overlap larger than chunk capacity must not loop forever.
	chunks := ChunkSegments(segments, 5, 10)
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3: %+v", len(chunks), chunks)
	}
	if chunks[len(chunks)-1].End != 3 {
		t.Errorf("last chunk End = %v, want 3", chunks[len(chunks)-1].End)
	}
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("chunks = %+v, want single chunk", chunks)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("a", 10) + strings.Repeat("b", 10)
	chunks := SplitText(text, 12, 4)

	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want multiple", len(chunks))
	}
	// Consecutive chunks share the overlap region.
	first := chunks[0]
	second := chunks[1]
	if !strings.HasPrefix(second, first[len(first)-4:]) {
		t.Errorf("no overlap between %q and %q", first, second)
	}
	// Last chunk ends where the text ends.
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Errorf("last chunk %q is not a suffix of input", last)
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	text := strings.Repeat("x", 30)
	chunks := SplitText(text, 10, 10) // overlap == chunkSize
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3 without overlap fallback", len(chunks))
	}
}

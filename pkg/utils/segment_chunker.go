package utils

import "strings"

// TimedSegment is a transcript fragment with its playback position in seconds.
type TimedSegment struct {
	Text  string
	Start float64
	End   float64
}

// TimedChunk is a retrieval-sized unit built from consecutive segments.
// Start/End span the first and last merged segment, so every chunk can be
// cited as a seekable timestamp.
type TimedChunk struct {
	Text  string
	Start float64
	End   float64
}

// ChunkSegments merges consecutive timed segments into chunks of roughly
// 'chunkSize' characters. Segments are never split, so chunk boundaries
// always fall on segment boundaries and the timing stays exact. 'overlap'
// is the number of trailing segments repeated at the start of the next
// chunk to preserve context.
func ChunkSegments(segments []TimedSegment, chunkSize int, overlap int) []TimedChunk {
	if len(segments) == 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []TimedChunk
	i := 0
	for i < len(segments) {
		var sb strings.Builder
		start := segments[i].Start
		end := segments[i].End
		j := i
		for j < len(segments) {
			seg := segments[j]
			if sb.Len() > 0 && sb.Len()+len(seg.Text)+1 > chunkSize {
				break
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.TrimSpace(seg.Text))
			end = seg.End
			j++
		}

		chunks = append(chunks, TimedChunk{
			Text:  sb.String(),
			Start: start,
			End:   end,
		})

		if j >= len(segments) {
			break
		}

		next := j - overlap
		if next <= i {
			next = i + 1 // always make progress
		}
		i = next
	}

	return chunks
}

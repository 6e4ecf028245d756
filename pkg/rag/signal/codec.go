package signal

import (
	"io"
	"strings"
)

// Marker grammar: "<<SOURCE:" + opaque source token + ">>". The encoder
// emits it at most once per stream and never splits it across writes;
// transport chunking may still split it, which the decoder reassembles.
const (
	markerPrefix = "<<SOURCE:"
	markerSuffix = ">>"

	// maxMarkerLen bounds a candidate marker on the decode side. Anything
	// longer without a closing ">>" is treated as malformed and flushed as
	// plain text with the reserved delimiter stripped.
	maxMarkerLen = 256
)

// Marker renders the control marker for a source id.
func Marker(sourceId string) string {
	return markerPrefix + sourceId + markerSuffix
}

// Encoder interleaves the switch marker into an outgoing token stream.
// Literal occurrences of the reserved delimiter inside model output are
// stripped so the client can never see a false-positive switch.
type Encoder struct {
	w        io.Writer
	switched bool
	sourceId string

	emitted    bool // marker already written
	hasContent bool // at least one content byte flushed
	pending    string
}

// NewEncoder wraps w. If switched is false the stream passes through
// unmodified apart from delimiter stripping.
func NewEncoder(w io.Writer, switched bool, sourceId string) *Encoder {
	return &Encoder{w: w, switched: switched, sourceId: sourceId}
}

// WriteToken appends one oracle token to the stream. The marker is injected
// immediately after the first token of real content, exactly once.
func (e *Encoder) WriteToken(token string) error {
	if token == "" {
		return nil
	}
	e.pending += token

	// Strip complete reserved delimiters from model text. A delimiter split
	// across token boundaries is caught by the holdback below.
	e.pending = strings.ReplaceAll(e.pending, markerPrefix, "")

	// Hold back any tail that could be the start of a split delimiter.
	hold := partialPrefixLen(e.pending, markerPrefix)
	out := e.pending[:len(e.pending)-hold]
	e.pending = e.pending[len(e.pending)-hold:]

	if out == "" {
		return nil
	}
	if _, err := io.WriteString(e.w, out); err != nil {
		return err
	}
	e.hasContent = true

	if e.switched && !e.emitted {
		if _, err := io.WriteString(e.w, Marker(e.sourceId)); err != nil {
			return err
		}
		e.emitted = true
	}
	return nil
}

// Close flushes held-back bytes. A marker that never found a content token
// to follow is dropped rather than sent bare.
func (e *Encoder) Close() error {
	rest := strings.ReplaceAll(e.pending, markerPrefix, "")
	e.pending = ""
	if rest == "" {
		return nil
	}
	if _, err := io.WriteString(e.w, rest); err != nil {
		return err
	}
	if e.switched && !e.emitted {
		if _, err := io.WriteString(e.w, Marker(e.sourceId)); err != nil {
			return err
		}
		e.emitted = true
	}
	return nil
}

// SwitchEvent is the side-channel event decoded from the stream.
type SwitchEvent struct {
	SourceId string
}

// Decoder reassembles the marker from arbitrarily fragmented transport
// chunks. Visible text comes back with the marker stripped; the switch
// event fires at most once per stream no matter how the bytes arrive.
type Decoder struct {
	buf     string
	fired   bool
	pending *SwitchEvent
}

// NewDecoder returns a decoder for one response stream.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one delivered chunk and returns the user-visible text it
// completes plus the switch event, if the marker finished inside this chunk.
func (d *Decoder) Feed(chunk string) (string, *SwitchEvent) {
	d.buf += chunk
	var visible strings.Builder

	for {
		idx := strings.Index(d.buf, markerPrefix)
		if idx < 0 {
			// Emit everything except a tail that might start a marker.
			hold := partialPrefixLen(d.buf, markerPrefix)
			visible.WriteString(d.buf[:len(d.buf)-hold])
			d.buf = d.buf[len(d.buf)-hold:]
			break
		}

		visible.WriteString(d.buf[:idx])
		d.buf = d.buf[idx:]

		end := strings.Index(d.buf, markerSuffix)
		if end < 0 {
			if len(d.buf) > maxMarkerLen {
				// Malformed: no terminator within bounds. Strip the reserved
				// delimiter, keep the rest as plain text, fire nothing.
				d.buf = d.buf[len(markerPrefix):]
				continue
			}
			// Marker may still be completed by the next chunk.
			break
		}

		sourceId := d.buf[len(markerPrefix):end]
		d.buf = d.buf[end+len(markerSuffix):]

		if sourceId != "" && !d.fired {
			d.fired = true
			d.pending = &SwitchEvent{SourceId: sourceId}
		}
		// Empty or repeated markers are stripped silently.
	}

	ev := d.pending
	d.pending = nil
	return visible.String(), ev
}

// Flush drains whatever is left at end of stream. An unterminated marker
// candidate is malformed: the delimiter is stripped and the remainder is
// returned as plain text.
func (d *Decoder) Flush() string {
	rest := d.buf
	d.buf = ""
	rest = strings.ReplaceAll(rest, markerPrefix, "")
	return rest
}

// partialPrefixLen returns the length of the longest suffix of s that is a
// proper prefix of pat.
func partialPrefixLen(s, pat string) int {
	max := len(pat) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(s, pat[:n]) {
			return n
		}
	}
	return 0
}

package playback

import (
	"fmt"
	"regexp"
)

var timestampPattern = regexp.MustCompile(`^\[(\d{1,3}):([0-5]\d)\]$`)

// ParseTimestamp converts a rendered citation like "[12:45]" into seconds.
// Malformed timestamps are ignored (ok=false), never an error: the consumer
// renders them as plain text.
func ParseTimestamp(s string) (seconds float64, ok bool) {
	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	minutes := 0
	for _, c := range m[1] {
		minutes = minutes*10 + int(c-'0')
	}
	secs := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	return float64(minutes*60 + secs), true
}

// FormatTimestamp renders seconds as the "[MM:SS]" citation form. Fractions
// are truncated so the player never seeks past the cited moment.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}

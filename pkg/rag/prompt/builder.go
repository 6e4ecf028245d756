package prompt

import (
	"fmt"
	"strings"

	"video-intel-be/internal/constant"
	"video-intel-be/pkg/llm"
	"video-intel-be/pkg/rag/playback"
	"video-intel-be/pkg/store"
)

// Builder assembles the grounded prompt for one turn: system rules, the
// selected source's transcript excerpts with their timestamps, prior
// conversation, then the user's question.
type Builder struct {
	// MinEvidence is the hit count below which the thin-evidence note is
	// appended so the model hedges instead of extrapolating.
	MinEvidence int
}

func NewBuilder(minEvidence int) *Builder {
	if minEvidence < 1 {
		minEvidence = 1
	}
	return &Builder{MinEvidence: minEvidence}
}

// Build returns the full message list for the generation call. evidence must
// already be filtered to the selected source and ordered by score.
func (b *Builder) Build(query string, evidence []store.SearchHit, history []llm.Message) []llm.Message {
	var sb strings.Builder
	sb.WriteString(constant.VideoAssistantSystemPrompt)

	for i, hit := range evidence {
		sb.WriteString(fmt.Sprintf("\n--- EXCERPT %d %s-%s ---\n",
			i+1,
			playback.FormatTimestamp(hit.StartOffset),
			playback.FormatTimestamp(hit.EndOffset),
		))
		sb.WriteString(strings.TrimSpace(hit.Text))
		sb.WriteString("\n")
	}

	if len(evidence) < b.MinEvidence {
		sb.WriteString("\n")
		sb.WriteString(constant.ThinEvidenceNote)
		sb.WriteString("\n")
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: sb.String(),
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: query,
	})

	return messages
}

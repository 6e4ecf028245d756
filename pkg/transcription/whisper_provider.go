package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// WhisperProvider speaks the OpenAI-compatible audio transcription API
// (api.openai.com or a local whisper.cpp / faster-whisper server).
type WhisperProvider struct {
	BaseURL string
	ApiKey  string
	Model   string
	Client  *http.Client
}

var _ Provider = &WhisperProvider{}

func NewWhisperProvider(baseURL, apiKey, model string) *WhisperProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		ApiKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			// Transcription of long videos is slow; no client-side timeout,
			// callers bound it with ctx.
			Timeout: 0,
		},
	}
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
}

func (p *WhisperProvider) Transcribe(ctx context.Context, filename string, media io.Reader) (*Transcript, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, media); err != nil {
		return nil, fmt.Errorf("copy media: %w", err)
	}

	// verbose_json is required to get per-segment timestamps
	_ = writer.WriteField("model", p.Model)
	_ = writer.WriteField("response_format", "verbose_json")
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	url := p.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.ApiKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var whisperResp whisperResponse
	if err := json.Unmarshal(bodyBytes, &whisperResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	transcript := &Transcript{
		Text:        whisperResp.Text,
		Language:    whisperResp.Language,
		DurationSec: whisperResp.Duration,
	}
	for _, seg := range whisperResp.Segments {
		transcript.Segments = append(transcript.Segments, Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
	}

	// Some servers omit segments for very short clips; synthesize one so
	// downstream chunking always has timing to work with.
	if len(transcript.Segments) == 0 && transcript.Text != "" {
		transcript.Segments = append(transcript.Segments, Segment{
			Text:  transcript.Text,
			Start: 0,
			End:   whisperResp.Duration,
		})
	}

	return transcript, nil
}

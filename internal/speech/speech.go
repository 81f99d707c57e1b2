// Package speech proxies text-to-speech and transcription requests to the
// upstream speech service. Requests are validated at the boundary; an
// upstream failure is surfaced once with its status, never retried.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Limits applied before any upstream call.
const (
	MaxSynthesisTextLen = 5000             // runes
	MaxAudioBytes       = 25 * 1024 * 1024 // upstream rejects larger uploads anyway
	DefaultTimeout      = 60 * time.Second
)

// supportedCodecs lists the audio MIME types accepted for transcription.
var supportedCodecs = map[string]bool{
	"audio/wav":  true,
	"audio/mpeg": true,
	"audio/ogg":  true,
	"audio/webm": true,
}

// SynthesisRequest asks the upstream service to render text as audio.
type SynthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
	Model string `json:"model,omitempty"`
}

// SynthesisResult carries the rendered audio.
type SynthesisResult struct {
	Audio       []byte
	ContentType string
}

// Transcript is the upstream transcription result.
type Transcript struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Client proxies requests to one upstream speech service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a speech client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Synthesize validates and forwards a text-to-speech request.
func (c *Client) Synthesize(ctx context.Context, req *SynthesisRequest) (*SynthesisResult, error) {
	if req.Text == "" {
		return nil, &ValidationError{Field: "text", Message: "text is required"}
	}
	if n := len([]rune(req.Text)); n > MaxSynthesisTextLen {
		return nil, &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("text too long: %d runes (max %d)", n, MaxSynthesisTextLen),
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	urlStr := c.baseURL + "/v1/speech"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return &SynthesisResult{
		Audio:       audio,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Transcribe validates and forwards audio for transcription. contentType
// must be one of the supported audio MIME types.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (*Transcript, error) {
	if len(audio) == 0 {
		return nil, &ValidationError{Field: "audio", Message: "audio payload is required"}
	}
	if len(audio) > MaxAudioBytes {
		return nil, &ValidationError{
			Field:   "audio",
			Message: fmt.Sprintf("audio too large: %d bytes (max %d)", len(audio), MaxAudioBytes),
		}
	}
	if !supportedCodecs[contentType] {
		return nil, &ValidationError{
			Field:   "content-type",
			Message: fmt.Sprintf("unsupported audio type %q", contentType),
		}
	}

	urlStr := c.baseURL + "/v1/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(audio))
	if err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	var transcript Transcript
	if err := json.Unmarshal(body, &transcript); err != nil {
		return nil, &UpstreamError{URL: urlStr, Message: "failed to parse response JSON", Cause: err}
	}
	return &transcript, nil
}

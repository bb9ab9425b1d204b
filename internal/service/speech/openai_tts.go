package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/voicerelay/backend/internal/config"
)

// OpenAITTSClient is the text-to-speech gateway over the OpenAI speech
// endpoint. Responses are MP3 buffers.
type OpenAITTSClient struct {
	cfg        config.TTSConfig
	httpClient *http.Client
}

// NewOpenAITTSClient builds a client from the TTS configuration.
func NewOpenAITTSClient(cfg config.TTSConfig) *OpenAITTSClient {
	return &OpenAITTSClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize converts text to an encoded audio buffer.
func (c *OpenAITTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesis text is empty")
	}

	body, err := json.Marshal(speechRequest{
		Model: c.cfg.Model,
		Voice: c.cfg.Voice,
		Input: text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("synthesis returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("synthesis returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned empty audio")
	}

	log.Printf("[tts] synthesized chars=%d bytes=%d", len(text), len(audio))
	return audio, nil
}

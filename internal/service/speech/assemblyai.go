package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/voicerelay/backend/internal/config"
)

// AssemblyAIClient is the speech-to-text gateway. Transcription is a three
// step exchange: upload the raw audio, submit a transcript job, poll until
// it settles.
type AssemblyAIClient struct {
	cfg        config.STTConfig
	httpClient *http.Client
}

// NewAssemblyAIClient builds a client from the STT configuration.
func NewAssemblyAIClient(cfg config.STTConfig) *AssemblyAIClient {
	return &AssemblyAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
	SpeechModel  string `json:"speech_model,omitempty"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe converts an audio buffer to text. Buffers below the configured
// minimum are treated as silence and return an empty transcription, not an
// error; so does a completed job with no recognized speech. The whole
// exchange, polling included, is bounded by the configured timeout so a job
// stuck in processing cannot block the caller indefinitely.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) < c.cfg.MinAudioBytes {
		log.Printf("[stt] audio below threshold bytes=%d min=%d", len(audio), c.cfg.MinAudioBytes)
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Second)
	defer cancel()

	audioURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}

	jobID, err := c.submit(ctx, audioURL)
	if err != nil {
		return "", fmt.Errorf("submit transcript: %w", err)
	}

	return c.poll(ctx, jobID)
}

func (c *AssemblyAIClient) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp uploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("upload returned no url")
	}
	return resp.UploadURL, nil
}

func (c *AssemblyAIClient) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:     audioURL,
		LanguageCode: c.cfg.Language,
		SpeechModel:  c.cfg.Model,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var resp transcriptResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("transcript job has no id")
	}
	return resp.ID, nil
}

func (c *AssemblyAIClient) poll(ctx context.Context, jobID string) (string, error) {
	ticker := time.NewTicker(time.Duration(c.cfg.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/transcript/"+jobID, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", c.cfg.APIKey)

		var resp transcriptResponse
		if err := c.do(req, &resp); err != nil {
			return "", err
		}

		switch resp.Status {
		case "completed":
			log.Printf("[stt] transcript completed job=%s chars=%d", jobID, len(resp.Text))
			return resp.Text, nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", resp.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *AssemblyAIClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("assemblyai %s returned %d: %s", req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

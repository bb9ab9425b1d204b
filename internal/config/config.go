package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	STT     STTConfig
	TTS     TTSConfig
	Storage StorageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	stt, err := loadSTTConfig()
	if err != nil {
		return nil, err
	}

	tts, err := loadTTSConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		STT:     stt,
		TTS:     tts,
		Storage: loadStorageConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept a full address like ":8000" or "127.0.0.1:8000".
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Ark chat model behind the LLM gateway.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark credentials or model missing, provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// STTConfig describes the AssemblyAI transcription gateway.
type STTConfig struct {
	APIKey         string
	BaseURL        string
	Language       string
	Model          string
	MinAudioBytes  int
	PollIntervalMS int
	Timeout        int
}

// Enabled reports whether the required key is present.
func (c STTConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadSTTConfig() (STTConfig, error) {
	minBytes := 1000
	if override, err := parseOptionalIntEnv("STT_MIN_AUDIO_BYTES"); err != nil {
		return STTConfig{}, err
	} else if override != nil {
		minBytes = *override
	}

	poll := 500
	if override, err := parseOptionalIntEnv("STT_POLL_INTERVAL_MS"); err != nil {
		return STTConfig{}, err
	} else if override != nil && *override > 0 {
		poll = *override
	}

	timeout := 30
	if override, err := parseOptionalIntEnv("STT_TIMEOUT"); err != nil {
		return STTConfig{}, err
	} else if override != nil {
		timeout = *override
	}

	return STTConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ASSEMBLYAI_API_KEY")),
		BaseURL:        getEnvOrDefault("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
		Language:       getEnvOrDefault("STT_LANGUAGE", "en"),
		Model:          getEnvOrDefault("STT_MODEL", "best"),
		MinAudioBytes:  minBytes,
		PollIntervalMS: poll,
		Timeout:        timeout,
	}, nil
}

// TTSConfig describes the OpenAI synthesis gateway.
type TTSConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Timeout int
}

// Enabled reports whether the required key is present.
func (c TTSConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadTTSConfig() (TTSConfig, error) {
	timeout := 30
	if override, err := parseOptionalIntEnv("TTS_TIMEOUT"); err != nil {
		return TTSConfig{}, err
	} else if override != nil {
		timeout = *override
	}

	return TTSConfig{
		APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:   getEnvOrDefault("TTS_MODEL", "tts-1"),
		Voice:   getEnvOrDefault("TTS_VOICE", "alloy"),
		Timeout: timeout,
	}, nil
}

// StorageConfig describes where the conversation store writes.
type StorageConfig struct {
	ConversationDir string
	AudioDir        string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		ConversationDir: getEnvOrDefault("CONVERSATION_DIR", "conversations"),
		AudioDir:        getEnvOrDefault("AUDIO_DIR", "audio_files"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

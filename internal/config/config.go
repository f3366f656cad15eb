package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMissingAPIKey is fatal at startup: the process must not serve without a
// completion-provider credential.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set")

// Config aggregates every configurable knob of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Voice    VoiceConfig
	Database DatabaseConfig
	Log      LogConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// AIConfig describes the completion provider and context budget.
type AIConfig struct {
	APIKey           string
	Model            string
	BaseURL          string
	MaxContextTokens int
	TimeoutSeconds   int
	TokenEncoding    string
}

// VoiceConfig describes the speech providers. They share the completion
// provider's credential.
type VoiceConfig struct {
	TTSModel    string
	TTSVoice    string
	TTSSpeed    float64
	STTModel    string
	STTLanguage string
}

// DatabaseConfig describes the session store.
type DatabaseConfig struct {
	Path string
}

// LogConfig describes logging output.
type LogConfig struct {
	Level string
	Dev   bool
}

// Load reads configuration from the environment. A missing GROQ_API_KEY is
// the only fatal condition; everything else has a default.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	dev, err := parseBoolEnv("DEV_MODE", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Voice:    voice,
		Database: DatabaseConfig{Path: getEnvOrDefault("DATABASE_PATH", "iroha_chat.db")},
		Log:      LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info"), Dev: dev},
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadAIConfig() (AIConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if apiKey == "" {
		return AIConfig{}, ErrMissingAPIKey
	}

	budget := 6000
	if override, err := parseOptionalIntEnv("MAX_CONTEXT_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("MAX_CONTEXT_TOKENS must be positive, got %d", *override)
		}
		budget = *override
	}

	timeout := 30
	if override, err := parseOptionalIntEnv("GROQ_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return AIConfig{
		APIKey:           apiKey,
		Model:            getEnvOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		BaseURL:          getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		MaxContextTokens: budget,
		TimeoutSeconds:   timeout,
		TokenEncoding:    getEnvOrDefault("TOKEN_ENCODING", "cl100k_base"),
	}, nil
}

func loadVoiceConfig() (VoiceConfig, error) {
	speed := 1.05
	if override, err := parseOptionalFloatEnv("TTS_SPEED"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil {
		speed = *override
	}

	return VoiceConfig{
		TTSModel:    getEnvOrDefault("TTS_MODEL", "playai-tts"),
		TTSVoice:    getEnvOrDefault("TTS_VOICE", "Arista-PlayAI"),
		TTSSpeed:    speed,
		STTModel:    getEnvOrDefault("STT_MODEL", "whisper-large-v3"),
		STTLanguage: getEnvOrDefault("STT_LANGUAGE", "ja-JP"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
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

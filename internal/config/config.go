package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type LLMProvider string

const (
	ProviderMock   LLMProvider = "mock"
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	OpenAIModel string

	StorageBackend string      // "memory" or "firestore"
	LLMProvider    LLMProvider // mock, gemini, or openai

	// Exchange analysis tunables. The defaults match the product behavior:
	// a mean sentiment below -0.5 triggers a 5-minute cool-down.
	CooldownDuration  time.Duration
	CooldownThreshold float64
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	modeStr := getEnv("ALIGNUS_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	defaultProvider := ProviderGemini
	if mode == ModeLocal {
		defaultProvider = ProviderMock
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("ALIGNUS_PORT", "8080"),

		GCPProjectID: getEnv("ALIGNUS_GCP_PROJECT", ""),
		GCPLocation:  getEnv("ALIGNUS_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("ALIGNUS_MODEL_NAME", "gemini-2.0-flash"),

		OpenAIModel: getEnv("ALIGNUS_OPENAI_MODEL", "gpt-4o-mini"),

		StorageBackend: getEnv("ALIGNUS_STORAGE_BACKEND", "memory"),
		LLMProvider:    LLMProvider(getEnv("ALIGNUS_LLM_PROVIDER", string(defaultProvider))),

		CooldownDuration:  getDurationEnv("ALIGNUS_COOLDOWN_DURATION", 5*time.Minute),
		CooldownThreshold: getFloatEnv("ALIGNUS_COOLDOWN_THRESHOLD", -0.5),
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("ALIGNUS_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}

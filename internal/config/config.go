package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Switching SwitchingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	IngestTopic  string // Watermill topic for video ingestion jobs
}

type AIConfig struct {
	EmbeddingProvider   string // "gemini" or "ollama"
	OllamaBaseURL       string
	OllamaModel         string
	LLMProvider         string // "ollama", "openai"
	LLMModel            string // e.g. "llama3", "gpt-4o"
	TranscriberBaseURL  string // OpenAI-compatible audio transcription endpoint
	TranscriberModel    string
	GenerateTimeoutSec  int // deadline for one generation stream
	RetrievalTimeoutSec int // deadline for one similarity query
}

// SwitchingConfig holds the context-switch tuning knobs. These are
// empirically tuned, so they live in config rather than code.
type SwitchingConfig struct {
	StickyWindow int     // rank window in which the active video is kept
	Margin       float64 // 0 disables the close-call guard
	TopK         int     // candidate hits fetched per turn
	MinEvidence  int     // below this, the prompt flags thin evidence
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			IngestTopic:  getEnv("INGEST_VIDEO_TOPIC_NAME", "INGEST_VIDEO"),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:         getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:         getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:            getEnv("LLM_MODEL", "llama3"),
			TranscriberBaseURL:  getEnv("TRANSCRIBER_BASE_URL", "https://api.openai.com/v1"),
			TranscriberModel:    getEnv("TRANSCRIBER_MODEL", "whisper-1"),
			GenerateTimeoutSec:  getEnvAsInt("GENERATE_TIMEOUT_SEC", 120),
			RetrievalTimeoutSec: getEnvAsInt("RETRIEVAL_TIMEOUT_SEC", 10),
		},
		Switching: SwitchingConfig{
			StickyWindow: getEnvAsInt("SWITCH_STICKY_WINDOW", 3),
			Margin:       getEnvAsFloat("SWITCH_MARGIN", 0),
			TopK:         getEnvAsInt("SWITCH_TOP_K", 10),
			MinEvidence:  getEnvAsInt("SWITCH_MIN_EVIDENCE", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

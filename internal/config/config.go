package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

type Config struct {
	LLMProvider  string
	OpenAIAPIKey string
	GeminiAPIKey string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	EmbeddingDim     int

	DatabasePath string
	HTTPPort     string
	LogLevel     string
	SecretKey    string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Info("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		LLMProvider:      getEnv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),
		EmbeddingDim:     getEnvAsInt("EMBEDDING_DIM", 1536),
		DatabasePath:     getEnv("DATABASE_URL", "chat_api.db"),
		HTTPPort:         getEnv("HTTP_PORT", "8000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SecretKey:        getEnv("SECRET_KEY", ""),
	}

	switch AppConfig.LLMProvider {
	case ProviderOpenAI:
		if AppConfig.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER=openai")
		}
	case ProviderGoogle:
		if AppConfig.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required when LLM_PROVIDER=google")
		}
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (expected %q or %q)", AppConfig.LLMProvider, ProviderOpenAI, ProviderGoogle)
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

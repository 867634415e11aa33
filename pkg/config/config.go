package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Analyzer backends.
const (
	BackendLangchain = "langchain"
	BackendGenai     = "genai"
)

// Search sources.
const (
	SourceArxiv = "arxiv"
	SourceWeb   = "web"
)

type Config struct {
	GoogleApiKey    string
	DatabaseURL     string
	Model           string
	AnalyzerBackend string
	BraveApiKey     string
	DefaultSource   string
	Port            string
	AllowedOrigins  []string
	LogLevel        string

	NumResults      int
	MinContentChars int
	MaxContentChars int
	MaxTokens       int
	Temperature     float64

	// ResearchURL is where the CLI client sends queries.
	ResearchURL string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GoogleApiKey:    firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Model:           getEnv("MODEL", "gemini-3-flash-preview"),
		AnalyzerBackend: getEnv("ANALYZER_BACKEND", BackendLangchain),
		BraveApiKey:     getEnv("BRAVE_API_KEY", ""),
		DefaultSource:   getEnv("DEFAULT_SOURCE", SourceArxiv),
		Port:            getEnv("PORT", "8000"),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		NumResults:      getEnvAsInt("NUM_RESULTS", 5),
		MinContentChars: getEnvAsInt("MIN_CONTENT_CHARS", 200),
		MaxContentChars: getEnvAsInt("MAX_CONTENT_CHARS", 1000),
		MaxTokens:       getEnvAsInt("MAX_TOKENS", 600),
		Temperature:     getEnvAsFloat("TEMPERATURE", 0.2),
		ResearchURL:     getEnv("RESEARCH_URL", "http://127.0.0.1:8000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

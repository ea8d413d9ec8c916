package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Sources  SourcesConfig
	Catalog  CatalogConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	MetricsLogPath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	RateLimitPerMinute int
	RateLimitBurst     int
	TurnBudget         time.Duration
	EventsTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider         string // "openai", "ollama" or "huggingface"
	LLMModel            string
	LLMBaseURL          string
	LLMAPIKey           string
	LLMTimeout          time.Duration
	EmbeddingProvider   string // "openai", "ollama", "gemini" or "jina"
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingDimensions int
	Synthesize          bool
}

type SourcesConfig struct {
	OutletsURL    string
	OutletsAltURL string
	OnDutyURL     string
	OnDutyAltURL  string
	RelayA        string
	RelayB        string
	FetchTimeout  time.Duration
	FetchBudget   time.Duration
	FetchBackoff  time.Duration
	CacheTTL      time.Duration
}

type CatalogConfig struct {
	DatasetPath  string
	IndexBackend string // "pgvector" or "memory"
	Lambda       float64
}

type SessionConfig struct {
	Backend string // "redis" or "memory"
	TTL     time.Duration
	Prefix  string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			MetricsLogPath:     getEnv("METRICS_LOG_PATH", "metrics.jsonl"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
			TurnBudget:         getEnvAsDuration("TURN_BUDGET", 60*time.Second),
			EventsTopic:        getEnv("EVENTS_TOPIC", "TURN_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:           getEnv("OPENAI_API_KEY", ""),
			LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 25*time.Second),
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", getEnv("OPENAI_API_KEY", "")),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 256),
			Synthesize:          getEnvAsBool("SYNTHESIZE_ANSWERS", false),
		},
		Sources: SourcesConfig{
			OutletsURL:    getEnv("MINSAL_GET_LOCALES", "https://midas.minsal.cl/farmacia_v2/WS/getLocales.php"),
			OutletsAltURL: getEnv("MINSAL_ALT_GET_LOCALES", ""),
			OnDutyURL:     getEnv("MINSAL_GET_TURNOS", "https://midas.minsal.cl/farmacia_v2/WS/getLocalesTurnos.php"),
			OnDutyAltURL:  getEnv("MINSAL_ALT_GET_TURNOS", ""),
			RelayA:        getEnv("FETCH_RELAY_A", "https://api.allorigins.win/raw?url=%s"),
			RelayB:        getEnv("FETCH_RELAY_B", "https://corsproxy.io/?%s"),
			FetchTimeout:  getEnvAsDuration("FETCH_TIMEOUT", 20*time.Second),
			FetchBudget:   getEnvAsDuration("FETCH_BUDGET", 25*time.Second),
			FetchBackoff:  getEnvAsDuration("FETCH_BACKOFF", 500*time.Millisecond),
			CacheTTL:      getEnvAsDuration("FEED_CACHE_TTL", 5*time.Minute),
		},
		Catalog: CatalogConfig{
			DatasetPath:  getEnv("DRUGS_CSV_PATH", "drug_dataset/DrugData.csv"),
			IndexBackend: getEnv("CATALOG_INDEX_BACKEND", "pgvector"),
			Lambda:       getEnvAsFloat("CATALOG_MMR_LAMBDA", 0.5),
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", "redis"),
			TTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			Prefix:  getEnv("SESSION_PREFIX", "medagent:session:"),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

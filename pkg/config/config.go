package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Store configuration. Backend selects where the persona and
	// conversation blobs live: postgres, redis or memory.
	Store struct {
		Backend string
	}

	// Database configuration (postgres backend)
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		Timeout  time.Duration
	}

	// Redis configuration (redis backend)
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	// Model configuration for the generative-model gateway
	Model struct {
		GeminiAPIKey string
		Name         string
		CallTimeout  time.Duration
	}

	// Speech configuration for TTS/STT and image generation
	Speech struct {
		ElevenLabsKey string
		OpenAIKey     string
	}

	// Scheduler delays for proactive engagement
	Scheduler struct {
		GreetingDelay time.Duration
		FollowUpDelay time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Store config
		instance.Store.Backend = getEnvString("STORE_BACKEND", "postgres")

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "persona_chat")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Redis config
		instance.Redis.Addr = getEnvString("REDIS_ADDR", "localhost:6379")
		instance.Redis.Password = getEnvString("REDIS_PASSWORD", "")
		instance.Redis.DB = getEnvInt("REDIS_DB", 0)
		instance.Redis.Prefix = getEnvString("REDIS_PREFIX", "persona-chat")

		// Model config
		instance.Model.GeminiAPIKey = getEnvString("GEMINI_API_KEY", "")
		instance.Model.Name = getEnvString("GEMINI_MODEL", "gemini-2.5-flash")
		instance.Model.CallTimeout = getEnvDuration("MODEL_CALL_TIMEOUT", 60*time.Second)

		// Speech config
		instance.Speech.ElevenLabsKey = getEnvString("ELEVENLABS_API_KEY", "")
		instance.Speech.OpenAIKey = getEnvString("OPENAI_API_KEY", "")

		// Scheduler config
		instance.Scheduler.GreetingDelay = getEnvDuration("GREETING_DELAY", 10*time.Second)
		instance.Scheduler.FollowUpDelay = getEnvDuration("FOLLOW_UP_DELAY", 15*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the audimed server.
type Config struct {
	Server     ServerConfig
	Drive      DriveConfig
	AI         AIConfig
	Extraction ExtractionConfig
	Store      StoreConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DriveConfig struct {
	// CredentialsJSON is the service-account key, passed inline so the same
	// deployment works on platforms without a mounted key file.
	CredentialsJSON string
}

type AIConfig struct {
	Provider       string
	APIKey         string
	TextModel      string
	VisionModel    string
	MaxTokens      int
	RequestTimeout time.Duration
}

// ExtractionConfig carries the pipeline knobs. MinTextChars and LetterRun are
// deliberately configurable: the source heuristic's thresholds are untuned and
// there is no basis for hardcoding them.
type ExtractionConfig struct {
	MinTextChars int
	LetterRun    int
	RasterDPI    int
	JPEGQuality  int
	PageInterval time.Duration
}

type StoreConfig struct {
	Backend         string // memory | postgres
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string // optional; empty disables the status cache and rate limiting
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

var validProviders = map[string]bool{
	"openai": true,
	"mock":   true,
}

var validBackends = map[string]bool{
	"memory":   true,
	"postgres": true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("AUDIMED_PORT", 8080),
			Env:  envString("AUDIMED_ENV", "development"),
		},
		Drive: DriveConfig{
			CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		},
		AI: AIConfig{
			Provider:       envString("AI_PROVIDER", "openai"),
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			TextModel:      envString("OPENAI_TEXT_MODEL", "gpt-4o"),
			VisionModel:    envString("OPENAI_VISION_MODEL", "gpt-4o"),
			MaxTokens:      envInt("OPENAI_MAX_TOKENS", 2500),
			RequestTimeout: envDuration("AI_REQUEST_TIMEOUT", 120*time.Second),
		},
		Extraction: ExtractionConfig{
			MinTextChars: envInt("EXTRACT_MIN_TEXT_CHARS", 150),
			LetterRun:    envInt("EXTRACT_LETTER_RUN", 3),
			RasterDPI:    envInt("EXTRACT_RASTER_DPI", 200),
			JPEGQuality:  envInt("EXTRACT_JPEG_QUALITY", 85),
			PageInterval: envDuration("EXTRACT_PAGE_INTERVAL", 200*time.Millisecond),
		},
		Store: StoreConfig{
			Backend:         envString("JOBSTORE_BACKEND", "memory"),
			DatabaseURL:     os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: envInt("RATE_LIMIT_RPM", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Drive.CredentialsJSON == "" {
		return fmt.Errorf("GOOGLE_CREDENTIALS_JSON is required")
	}
	if !json.Valid([]byte(c.Drive.CredentialsJSON)) {
		return fmt.Errorf("GOOGLE_CREDENTIALS_JSON is not valid JSON")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}

	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("JOBSTORE_BACKEND must be one of memory, postgres; got %q", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Store.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when JOBSTORE_BACKEND is postgres")
	}

	if c.Extraction.MinTextChars <= 0 {
		return fmt.Errorf("EXTRACT_MIN_TEXT_CHARS must be positive, got %d", c.Extraction.MinTextChars)
	}
	if c.Extraction.LetterRun <= 0 {
		return fmt.Errorf("EXTRACT_LETTER_RUN must be positive, got %d", c.Extraction.LetterRun)
	}
	if c.Extraction.RasterDPI <= 0 {
		return fmt.Errorf("EXTRACT_RASTER_DPI must be positive, got %d", c.Extraction.RasterDPI)
	}
	if c.Extraction.JPEGQuality < 1 || c.Extraction.JPEGQuality > 100 {
		return fmt.Errorf("EXTRACT_JPEG_QUALITY must be 1-100, got %d", c.Extraction.JPEGQuality)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

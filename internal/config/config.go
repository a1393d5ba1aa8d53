// Package config provides environment configuration for the simulator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RunMode selects delay scaling: immediate compresses every persona delay
// for tests and demos, realistic keeps the full persona-conditioned timing.
type RunMode string

const (
	RunModeImmediate RunMode = "immediate"
	RunModeRealistic RunMode = "realistic"
)

// Config holds all configuration for the simulator process.
type Config struct {
	// Ops HTTP server
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	JWTSecret          string
	RateLimitRequests  int
	RateLimitWindow    time.Duration

	// NATS (optional; empty URL disables the event stream and the NATS
	// transport)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// NLG settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	NLGModel        string
	NLGTimeout      time.Duration

	// Simulation
	Mode             RunMode
	PersonaSelection string  // persona id or "all"
	SessionsPer      int     // sessions spawned per selected persona
	DelayScale       float64 // extra multiplier on top of the mode scale
	MaxDelay         time.Duration
	WorkerPool       int
	MaxInflight      int // global cap on in-flight collaborator calls
	RetryCeiling     int
	Seed             int64
	PollInterval     time.Duration

	// Counterpart
	CounterpartAddress string
	CompanyName        string
	CompanyCountry     string
	CompanyContext     string

	// Persistence
	TranscriptDir string
	PersonaFile   string // optional JSON catalog; empty uses the seed set

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		JWTSecret:          getEnv("JWT_SECRET", "development-secret-change-in-production"),
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		NLGModel:        getEnv("NLG_MODEL", ""),
		NLGTimeout:      getDurationEnv("NLG_TIMEOUT", 45*time.Second),

		Mode:             RunMode(getEnv("RUN_MODE", string(RunModeImmediate))),
		PersonaSelection: getEnv("PERSONA", "all"),
		SessionsPer:      getIntEnv("SESSIONS_PER_PERSONA", 1),
		DelayScale:       getFloatEnv("DELAY_SCALE", 1.0),
		MaxDelay:         getDurationEnv("MAX_DELAY", 24*time.Hour),
		WorkerPool:       getIntEnv("WORKER_POOL", 5),
		MaxInflight:      getIntEnv("MAX_INFLIGHT", 8),
		RetryCeiling:     getIntEnv("RETRY_CEILING", 3),
		Seed:             getInt64Env("SEED", 0),
		PollInterval:     getDurationEnv("POLL_INTERVAL", 30*time.Second),

		CounterpartAddress: getEnv("COUNTERPART_ADDRESS", "loopback"),
		CompanyName:        getEnv("COMPANY_NAME", "Chile Adventures Ltd."),
		CompanyCountry:     getEnv("COMPANY_COUNTRY", "Chile"),
		CompanyContext:     getEnv("COMPANY_CONTEXT", "Family tours, Adventure travel, Cultural experiences"),

		TranscriptDir: getEnv("TRANSCRIPT_DIR", "conversation_states"),
		PersonaFile:   getEnv("PERSONA_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate checks startup-fatal conditions. Everything here fails fast,
// before any session is created.
func (c *Config) Validate() error {
	if c.Mode != RunModeImmediate && c.Mode != RunModeRealistic {
		return fmt.Errorf("invalid RUN_MODE %q", c.Mode)
	}
	if c.PersonaSelection == "" {
		return errors.New("PERSONA must be a persona id or \"all\"")
	}
	if c.CounterpartAddress == "" {
		return errors.New("COUNTERPART_ADDRESS is required")
	}
	if c.WorkerPool < 1 {
		return errors.New("WORKER_POOL must be at least 1")
	}
	if c.MaxInflight < 1 {
		return errors.New("MAX_INFLIGHT must be at least 1")
	}
	if c.SessionsPer < 1 {
		return errors.New("SESSIONS_PER_PERSONA must be at least 1")
	}
	if c.DelayScale <= 0 {
		return errors.New("DELAY_SCALE must be positive")
	}
	return nil
}

// ModeScale returns the delay multiplier implied by the run mode combined
// with the configured scale factor.
func (c *Config) ModeScale() float64 {
	if c.Mode == RunModeImmediate {
		// Compress a 2h moderate delay into roughly a quarter second.
		return c.DelayScale / 30000.0
	}
	return c.DelayScale
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

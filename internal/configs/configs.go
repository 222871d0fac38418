package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	AppHost                string  `toml:"app_host"`
	AppPort                string  `toml:"app_port"`
	DatabaseDSN            string  `toml:"database_dsn"`
	RateLimit              int     `toml:"rate_limit_per_minute"`
	ShutdownTimeoutSeconds int     `toml:"shutdown_timeout_seconds"`
	TaskListLimit          int     `toml:"task_list_limit"`
	RedisHost              string  `toml:"redis_host"`
	RedisPort              string  `toml:"redis_port"`
	SlotBackend            string  `toml:"slot_backend"`
	VerifySlots            int     `toml:"verify_slots"`
	VerifySlotKey          string  `toml:"verify_slot_key"`
	VerifyMaxAttempts      int     `toml:"verify_max_attempts"`
	VerifyBackoffMillis    int     `toml:"verify_backoff_ms"`
	VerifyMinConfidence    float64 `toml:"verify_min_confidence"`
	VisionProvider         string  `toml:"vision_provider"`
	VisionModel            string  `toml:"vision_model"`
	VisionAPIKey           string  `toml:"vision_api_key"`
	VisionMaxTokens        int     `toml:"vision_max_tokens"`
	RewardBasePoints       int     `toml:"reward_base_points"`
	RewardPointsPerUnit    int     `toml:"reward_points_per_unit"`
	IdentityEmailHeader    string  `toml:"identity_email_header"`
	IdentityNameHeader     string  `toml:"identity_name_header"`
}

const (
	SlotBackendRedis  = "redis"
	SlotBackendMemory = "memory"
)

// Retry bounds keep the exponential backoff well inside time.Duration.
const (
	MaxVerifyAttempts      = 10
	MaxVerifyBackoffMillis = 60_000
)

func defaults() Config {
	return Config{
		AppHost:                "127.0.0.1",
		AppPort:                "8080",
		DatabaseDSN:            "collector.db",
		RateLimit:              60,
		ShutdownTimeoutSeconds: 20,
		RedisHost:              "127.0.0.1",
		RedisPort:              "6379",
		SlotBackend:            SlotBackendRedis,
		VerifySlots:            4,
		VerifySlotKey:          "verification_slots",
		VerifyMaxAttempts:      3,
		VerifyBackoffMillis:    500,
		VerifyMinConfidence:    0.7,
		VisionProvider:         "gemini",
		VisionModel:            "gemini-1.5-flash",
		VisionMaxTokens:        1024,
		RewardBasePoints:       10,
		RewardPointsPerUnit:    1,
		IdentityEmailHeader:    "X-Forwarded-Email",
		IdentityNameHeader:     "X-Forwarded-User",
	}
}

// Load reads the configuration and exits the process when it is invalid.
func Load(path string) Config {
	cfg, err := LoadFrom(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// LoadFrom builds a Config from defaults, the optional TOML file at path and
// the environment, in increasing order of precedence.
func LoadFrom(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var err error
	cfg.AppHost = getEnv("APP_HOST", cfg.AppHost)
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.SlotBackend = getEnv("SLOT_BACKEND", cfg.SlotBackend)
	cfg.VerifySlotKey = getEnv("VERIFY_SLOT_KEY", cfg.VerifySlotKey)
	cfg.VisionProvider = getEnv("VISION_PROVIDER", cfg.VisionProvider)
	cfg.VisionModel = getEnv("VISION_MODEL", cfg.VisionModel)
	cfg.VisionAPIKey = getEnv("VISION_API_KEY", cfg.VisionAPIKey)
	cfg.IdentityEmailHeader = getEnv("IDENTITY_EMAIL_HEADER", cfg.IdentityEmailHeader)
	cfg.IdentityNameHeader = getEnv("IDENTITY_NAME_HEADER", cfg.IdentityNameHeader)

	ints := []struct {
		key string
		dst *int
	}{
		{"RATE_LIMIT_PER_MINUTE", &cfg.RateLimit},
		{"SHUTDOWN_TIMEOUT_SECONDS", &cfg.ShutdownTimeoutSeconds},
		{"TASK_LIST_LIMIT", &cfg.TaskListLimit},
		{"VERIFY_SLOTS", &cfg.VerifySlots},
		{"VERIFY_MAX_ATTEMPTS", &cfg.VerifyMaxAttempts},
		{"VERIFY_BACKOFF_MS", &cfg.VerifyBackoffMillis},
		{"VISION_MAX_TOKENS", &cfg.VisionMaxTokens},
		{"REWARD_BASE_POINTS", &cfg.RewardBasePoints},
		{"REWARD_POINTS_PER_UNIT", &cfg.RewardPointsPerUnit},
	}
	for _, i := range ints {
		if *i.dst, err = getEnvAsInt(i.key, *i.dst); err != nil {
			return Config{}, err
		}
	}

	if cfg.VerifyMinConfidence, err = getEnvAsFloat("VERIFY_MIN_CONFIDENCE", cfg.VerifyMinConfidence); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) AppURL() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c Config) VerifyBackoff() time.Duration {
	return time.Duration(c.VerifyBackoffMillis) * time.Millisecond
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func validate(cfg Config) error {
	if cfg.AppHost == "" || cfg.AppPort == "" {
		return errors.New("APP_HOST and APP_PORT must not be empty (e.g. 127.0.0.1 and 8080)")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.TaskListLimit < 0 {
		return errors.New("TASK_LIST_LIMIT must not be negative")
	}
	if cfg.SlotBackend != SlotBackendRedis && cfg.SlotBackend != SlotBackendMemory {
		return fmt.Errorf("SLOT_BACKEND must be %q or %q", SlotBackendRedis, SlotBackendMemory)
	}
	if cfg.VerifySlots <= 0 {
		return errors.New("VERIFY_SLOTS must be greater than 0")
	}
	if cfg.VerifyMaxAttempts <= 0 || cfg.VerifyMaxAttempts > MaxVerifyAttempts {
		return fmt.Errorf("VERIFY_MAX_ATTEMPTS must be between 1 and %d", MaxVerifyAttempts)
	}
	if cfg.VerifyBackoffMillis < 0 || cfg.VerifyBackoffMillis > MaxVerifyBackoffMillis {
		return fmt.Errorf("VERIFY_BACKOFF_MS must be between 0 and %d", MaxVerifyBackoffMillis)
	}
	if cfg.VerifyMinConfidence < 0 || cfg.VerifyMinConfidence >= 1 {
		return errors.New("VERIFY_MIN_CONFIDENCE must be in [0, 1)")
	}
	if cfg.VisionMaxTokens <= 0 {
		return errors.New("VISION_MAX_TOKENS must be greater than 0")
	}
	if cfg.RewardBasePoints < 0 || cfg.RewardPointsPerUnit < 0 {
		return errors.New("reward points must not be negative")
	}
	if cfg.IdentityEmailHeader == "" {
		return errors.New("IDENTITY_EMAIL_HEADER must not be empty")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s", key)
		}
		return i, nil
	}
	return defaultVal, nil
}

func getEnvAsFloat(key string, defaultVal float64) (float64, error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number value for %s", key)
		}
		return f, nil
	}
	return defaultVal, nil
}

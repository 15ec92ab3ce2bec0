package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration. Values are loaded from an
// optional JSON file and then overridden by environment variables.
type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	KafkaConfig    KafkaConfig    `json:"kafka"`
	AIConfig       AIConfig       `json:"ai"`
	AuthConfig     AuthConfig     `json:"auth"`
	VaultConfig    VaultConfig    `json:"vault"`
	CatalogConfig  CatalogConfig  `json:"catalog"`
	LoggingConfig  LoggingConfig  `json:"logging"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	AllowedOrigins  []string      `json:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds Redis connection settings for the conversation store
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// KafkaConfig holds the generation queue settings
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
	GroupID string   `json:"group_id"`
}

// ModelConfig describes one completion model tier
type ModelConfig struct {
	Provider    string        `json:"provider"` // "claude", "openai", or "deepseek"
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// AIConfig holds the two model tiers used by the generation pipeline.
// Extraction uses a fast/cheap model; generation uses a stronger one.
type AIConfig struct {
	Extraction ModelConfig `json:"extraction"`
	Generation ModelConfig `json:"generation"`
}

// AuthConfig holds JWT validation settings
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// VaultConfig holds HashiCorp Vault settings for LLM API key storage
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
}

// CatalogConfig holds indicator catalog cache settings
type CatalogConfig struct {
	CacheTTL  time.Duration `json:"cache_ttl"`
	CacheSize int           `json:"cache_size"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level   string `json:"level"`   // debug, info, warn, error
	Console bool   `json:"console"` // human-readable console output instead of JSON
}

// Load reads configuration from the given JSON file (if it exists) and
// applies environment variable overrides on top.
func Load(filename string) (*Config, error) {
	cfg := defaultConfig()

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			fileCfg, err := loadFromFile(filename)
			if err != nil {
				return nil, err
			}
			cfg = fileCfg
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "template_engine",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Enabled:  true,
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		KafkaConfig: KafkaConfig{
			Enabled: true,
			Brokers: []string{"localhost:9092"},
			Topic:   "template-generation",
			GroupID: "template-engine-workers",
		},
		AIConfig: AIConfig{
			Extraction: ModelConfig{
				Provider:    "claude",
				Model:       "claude-3-5-haiku-20241022",
				MaxTokens:   512,
				Temperature: 0.0,
				Timeout:     30 * time.Second,
			},
			Generation: ModelConfig{
				Provider:    "claude",
				Model:       "claude-sonnet-4-20250514",
				MaxTokens:   8192,
				Temperature: 0.2,
				Timeout:     3 * time.Minute,
			},
		},
		VaultConfig: VaultConfig{
			Address:    "http://localhost:8200",
			MountPath:  "secret",
			SecretPath: "template-engine/api-keys",
		},
		CatalogConfig: CatalogConfig{
			CacheTTL:  5 * time.Minute,
			CacheSize: 256,
		},
		LoggingConfig: LoggingConfig{
			Level: "info",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	// Server
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)

	// Database
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", cfg.DatabaseConfig.SSLMode)

	// Redis
	cfg.RedisConfig.Enabled = getEnvBoolOrDefault("REDIS_ENABLED", cfg.RedisConfig.Enabled)
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", cfg.RedisConfig.PoolSize)

	// Kafka
	cfg.KafkaConfig.Enabled = getEnvBoolOrDefault("KAFKA_ENABLED", cfg.KafkaConfig.Enabled)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaConfig.Brokers = strings.Split(brokers, ",")
	}
	cfg.KafkaConfig.Topic = getEnvOrDefault("KAFKA_TOPIC", cfg.KafkaConfig.Topic)
	cfg.KafkaConfig.GroupID = getEnvOrDefault("KAFKA_GROUP_ID", cfg.KafkaConfig.GroupID)

	// AI tiers
	cfg.AIConfig.Extraction.Provider = getEnvOrDefault("AI_EXTRACTION_PROVIDER", cfg.AIConfig.Extraction.Provider)
	cfg.AIConfig.Extraction.APIKey = getEnvOrDefault("AI_EXTRACTION_API_KEY", cfg.AIConfig.Extraction.APIKey)
	cfg.AIConfig.Extraction.Model = getEnvOrDefault("AI_EXTRACTION_MODEL", cfg.AIConfig.Extraction.Model)
	cfg.AIConfig.Extraction.MaxTokens = getEnvIntOrDefault("AI_EXTRACTION_MAX_TOKENS", cfg.AIConfig.Extraction.MaxTokens)
	cfg.AIConfig.Extraction.Timeout = getEnvDurationOrDefault("AI_EXTRACTION_TIMEOUT", cfg.AIConfig.Extraction.Timeout)
	cfg.AIConfig.Generation.Provider = getEnvOrDefault("AI_GENERATION_PROVIDER", cfg.AIConfig.Generation.Provider)
	cfg.AIConfig.Generation.APIKey = getEnvOrDefault("AI_GENERATION_API_KEY", cfg.AIConfig.Generation.APIKey)
	cfg.AIConfig.Generation.Model = getEnvOrDefault("AI_GENERATION_MODEL", cfg.AIConfig.Generation.Model)
	cfg.AIConfig.Generation.MaxTokens = getEnvIntOrDefault("AI_GENERATION_MAX_TOKENS", cfg.AIConfig.Generation.MaxTokens)
	cfg.AIConfig.Generation.Timeout = getEnvDurationOrDefault("AI_GENERATION_TIMEOUT", cfg.AIConfig.Generation.Timeout)

	// Auth
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)

	// Vault
	cfg.VaultConfig.Enabled = getEnvBoolOrDefault("VAULT_ENABLED", cfg.VaultConfig.Enabled)
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", cfg.VaultConfig.MountPath)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)

	// Catalog cache
	cfg.CatalogConfig.CacheTTL = getEnvDurationOrDefault("CATALOG_CACHE_TTL", cfg.CatalogConfig.CacheTTL)
	cfg.CatalogConfig.CacheSize = getEnvIntOrDefault("CATALOG_CACHE_SIZE", cfg.CatalogConfig.CacheSize)

	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Console = getEnvBoolOrDefault("LOG_CONSOLE", cfg.LoggingConfig.Console)
}

func (c *Config) validate() error {
	switch c.AIConfig.Generation.Provider {
	case "claude", "openai", "deepseek":
	default:
		return fmt.Errorf("unsupported generation provider: %s", c.AIConfig.Generation.Provider)
	}
	switch c.AIConfig.Extraction.Provider {
	case "claude", "openai", "deepseek":
	default:
		return fmt.Errorf("unsupported extraction provider: %s", c.AIConfig.Extraction.Provider)
	}
	if c.AIConfig.Generation.Timeout <= 0 {
		return fmt.Errorf("generation timeout must be positive")
	}
	if c.AIConfig.Extraction.Timeout <= 0 {
		return fmt.Errorf("extraction timeout must be positive")
	}
	if c.CatalogConfig.CacheSize <= 0 {
		return fmt.Errorf("catalog cache size must be positive")
	}
	return nil
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := defaultConfig()
	if err := json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

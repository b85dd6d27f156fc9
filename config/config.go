package config

import (
	"crypto/subtle"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the assistant.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Topics    TopicsConfig    `mapstructure:"topics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	Timezone       string        `mapstructure:"timezone"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address    string        `mapstructure:"address"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// AuthConfig is the shared-secret gate in front of all assistant routes.
// PasswordHash (bcrypt) wins over the plain Password when both are set.
type AuthConfig struct {
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

func (a AuthConfig) Validate() error {
	if strings.TrimSpace(a.Password) == "" && strings.TrimSpace(a.PasswordHash) == "" {
		return fmt.Errorf("auth.password or auth.password_hash is required")
	}
	return nil
}

// Check reports whether the supplied password passes the gate.
func (a AuthConfig) Check(password string) bool {
	if a.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
	}
	return a.Password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) == 1
}

// LLMConfig contains the generation-service settings.
type LLMConfig struct {
	Type        string        `mapstructure:"type"` // openai
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects where the ticket table and sessions live.
type StorageConfig struct {
	Source   string         `mapstructure:"source"` // file, http or postgres
	CSVPath  string         `mapstructure:"csv_path"`
	CSVURL   string         `mapstructure:"csv_url"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sessions string         `mapstructure:"sessions"` // inmemory or redis
}

func (s StorageConfig) Validate() error {
	switch s.Source {
	case "file":
		if strings.TrimSpace(s.CSVPath) == "" {
			return fmt.Errorf("storage.csv_path required when source is file")
		}
	case "http":
		if strings.TrimSpace(s.CSVURL) == "" {
			return fmt.Errorf("storage.csv_url required when source is http")
		}
	case "postgres":
		if err := s.Postgres.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.source must be file, http or postgres (got %q)", s.Source)
	}
	switch s.Sessions {
	case "", "inmemory":
	case "redis":
		if err := s.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.sessions must be inmemory or redis (got %q)", s.Sessions)
	}
	return nil
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// RetrievalConfig tunes the candidate retriever.
type RetrievalConfig struct {
	BlockSize     int `mapstructure:"block_size"`
	MaxCandidates int `mapstructure:"max_candidates"`
	ContextTurns  int `mapstructure:"context_turns"`
}

// TopicsConfig tunes the suggested-topic summarizer.
type TopicsConfig struct {
	TopN        int    `mapstructure:"top_n"`
	Threshold   int    `mapstructure:"threshold"`
	RefreshCron string `mapstructure:"refresh_cron"` // empty disables refresh
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file, with ASKDGP_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.timezone", "Asia/Singapore")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.session_ttl", "1h")
	viper.SetDefault("llm.type", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("storage.source", "file")
	viper.SetDefault("storage.sessions", "inmemory")
	viper.SetDefault("retrieval.block_size", 5)
	viper.SetDefault("retrieval.max_candidates", 5)
	viper.SetDefault("retrieval.context_turns", 5)
	viper.SetDefault("topics.top_n", 20)
	viper.SetDefault("topics.threshold", 80)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ASKDGP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := config.Auth.Validate(); err != nil {
		return nil, err
	}
	if err := config.Storage.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

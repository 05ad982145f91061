// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Oracle, Ranking, Redis, Kafka, Postgres, Worker)
// and rejects invalid ranking settings before any scoring runs.
package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Postgres PostgresConfig `yaml:"postgres"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings for the ranking service.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// OracleConfig selects where the reference frequency table comes from.
type OracleConfig struct {
	// Source is "file", "postgres", or "none". With "none", requests
	// asking for reference scoring fail fast with a configuration
	// error instead of silently scoring against zero probabilities.
	Source string `yaml:"source"`
	// Path is the frequency list file for the "file" source.
	Path string `yaml:"path"`
	// Table is the frequency table name for the "postgres" source.
	Table string `yaml:"table"`
}

// RankingConfig holds the default ranking settings. Requests may
// override individual fields; the merged result is validated again.
type RankingConfig struct {
	Limit               int      `yaml:"limit"`
	AllowOnes           bool     `yaml:"allowOnes"`
	AllowInflections    bool     `yaml:"allowInflections"`
	UseReferenceScoring bool     `yaml:"useReferenceScoring"`
	MinRefZipf          float64  `yaml:"minRefZipf"`
	MaxRefZipf          *float64 `yaml:"maxRefZipf"`
	BalanceWeight       float64  `yaml:"balanceWeight"`
	LemmaMargin         float64  `yaml:"lemmaMargin"`
	// MarkGroupedLemmas appends a marker to lemma-mode words observed
	// under more than one surface form, for plain-text output.
	MarkGroupedLemmas bool     `yaml:"markGroupedLemmas"`
	IgnorePatterns    []string `yaml:"ignorePatterns"`
}

// Validate rejects settings that would otherwise surface as obscure
// failures deep inside a scoring pass.
func (r RankingConfig) Validate() error {
	if r.Limit < 1 {
		return fmt.Errorf("ranking limit must be a positive integer, got %d", r.Limit)
	}
	if r.MinRefZipf < 0 {
		return fmt.Errorf("minRefZipf must be non-negative, got %g", r.MinRefZipf)
	}
	if r.MaxRefZipf != nil && *r.MaxRefZipf < r.MinRefZipf {
		return fmt.Errorf("maxRefZipf %g is below minRefZipf %g", *r.MaxRefZipf, r.MinRefZipf)
	}
	if r.LemmaMargin < 0 {
		return fmt.Errorf("lemmaMargin must be non-negative, got %g", r.LemmaMargin)
	}
	for _, p := range r.IgnorePatterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, err := path.Match(p, "probe"); err != nil {
			return fmt.Errorf("ignore pattern %q: %w", p, err)
		}
	}
	return nil
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
	// MemoTTL bounds the lifetime of shared lemma-memo entries. Zero
	// keeps them indefinitely (resolution is pure per form).
	MemoTTL time.Duration `yaml:"memoTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentsAnnotated string `yaml:"documentsAnnotated"`
	Rankings           string `yaml:"rankings"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// WorkerConfig controls the batch ranking worker.
type WorkerConfig struct {
	// MaxConcurrent bounds how many documents are ranked in parallel.
	MaxConcurrent int `yaml:"maxConcurrent"`
	// PersistResults enables writing ranked rows to PostgreSQL.
	PersistResults bool `yaml:"persistResults"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Ranking.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking settings: %w", err)
	}
	switch cfg.Oracle.Source {
	case "file", "postgres", "none":
	default:
		return nil, fmt.Errorf("oracle source must be file, postgres, or none, got %q", cfg.Oracle.Source)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Oracle: OracleConfig{
			Source: "file",
			Path:   "data/pl_frequencies.tsv",
			Table:  "word_frequencies",
		},
		Ranking: RankingConfig{
			Limit:               50,
			AllowOnes:           false,
			AllowInflections:    false,
			UseReferenceScoring: true,
			MinRefZipf:          0,
			MaxRefZipf:          nil,
			BalanceWeight:       0.5,
			LemmaMargin:         0.5,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
			MemoTTL:  0,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vocabrank-group",
			Topics: KafkaTopics{
				DocumentsAnnotated: "vocab.documents.annotated",
				Rankings:           "vocab.rankings",
			},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vocabrank",
			User:            "vocabrank",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Worker: WorkerConfig{
			MaxConcurrent:  4,
			PersistResults: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads VR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VR_ORACLE_SOURCE"); v != "" {
		cfg.Oracle.Source = v
	}
	if v := os.Getenv("VR_ORACLE_PATH"); v != "" {
		cfg.Oracle.Path = v
	}
	if v := os.Getenv("VR_ORACLE_TABLE"); v != "" {
		cfg.Oracle.Table = v
	}
	if v := os.Getenv("VR_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("VR_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("VR_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("VR_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("VR_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VR_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("VR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VR_WORKER_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.MaxConcurrent = n
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	devSigningKey = "dev-secret-key-change-in-production"
)

// Config holds all configuration for the registry service.
type Config struct {
	Server  Server          `yaml:"server"`
	Storage StorageConfig   `yaml:"storage"`
	Redis   RedisConfig     `yaml:"redis"`
	Kafka   KafkaConfig     `yaml:"kafka"`
	Auth    AuthConfig      `yaml:"auth"`
	Audit   AuditConfig     `yaml:"audit"`
	Limits  RateLimitConfig `yaml:"rate_limit"`
	Logging LoggingConfig   `yaml:"logging"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	TxTimeout    time.Duration `yaml:"tx_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
}

// RedisConfig configures the certificate cache. An empty URL disables it.
type RedisConfig struct {
	URL            string        `yaml:"url"`
	PoolSize       int           `yaml:"pool_size"`
	MinIdleConns   int           `yaml:"min_idle_conns"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	CertificateTTL time.Duration `yaml:"certificate_ttl"`
}

// KafkaConfig configures the registry event stream. No brokers disables it.
type KafkaConfig struct {
	Brokers           []string      `yaml:"brokers"`
	Topic             string        `yaml:"topic"`
	ClientID          string        `yaml:"client_id"`
	DialTimeout       time.Duration `yaml:"dial_timeout"`
	CreateTopic       bool          `yaml:"create_topic"`
	Partitions        int32         `yaml:"partitions"`
	ReplicationFactor int16         `yaml:"replication_factor"`
}

// AuthConfig configures caller tokens.
type AuthConfig struct {
	SigningKey string        `yaml:"signing_key"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// RateLimitConfig bounds registry writes per caller. Windows are shared
// through Redis when it is configured.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type AuditConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when neither a file nor the
// environment says otherwise.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			RequestTimeout:    30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:       StorageMemory,
			TxTimeout:    5 * time.Second,
			MaxOpenConns: 10,
		},
		Redis: RedisConfig{
			PoolSize:       10,
			MinIdleConns:   2,
			DialTimeout:    5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			CertificateTTL: time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:             "skillchain.registry.events",
			ClientID:          "skillchain",
			DialTimeout:       10 * time.Second,
			Partitions:        3,
			ReplicationFactor: 1,
		},
		Auth: AuthConfig{
			SigningKey: devSigningKey,
			Issuer:     "skillchain",
			Audience:   "skillchain-registry",
			TokenTTL:   time.Hour,
		},
		Audit: AuditConfig{BufferSize: 1024},
		Limits: RateLimitConfig{
			Enabled:  true,
			Requests: 60,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the configuration so main stays lean: defaults, then the
// YAML file named by SKILLCHAIN_CONFIG if set, then environment overrides.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := os.Getenv("SKILLCHAIN_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "SKILLCHAIN_ADDR")
	setString(&cfg.Storage.Driver, "SKILLCHAIN_STORAGE")
	setString(&cfg.Storage.DSN, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Auth.SigningKey, "CALLER_TOKEN_SIGNING_KEY")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	if v := os.Getenv("KAFKA_CREATE_TOPIC"); v != "" {
		create, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("KAFKA_CREATE_TOPIC: %w", err)
		}
		cfg.Kafka.CreateTopic = create
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_ENABLED: %w", err)
		}
		cfg.Limits.Enabled = enabled
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err)
		}
		cfg.Limits.Requests = n
	}
	if err := setDuration(&cfg.Limits.Window, "RATE_LIMIT_WINDOW"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Storage.TxTimeout, "SKILLCHAIN_TX_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Redis.CertificateTTL, "REDIS_CERTIFICATE_TTL"); err != nil {
		return err
	}
	return setDuration(&cfg.Auth.TokenTTL, "CALLER_TOKEN_TTL")
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, postgres", c.Storage.Driver))
	}
	if c.Storage.TxTimeout <= 0 {
		errs = append(errs, errors.New("storage.tx_timeout must be positive"))
	}
	if c.Redis.URL != "" && c.Redis.CertificateTTL <= 0 {
		errs = append(errs, errors.New("redis.certificate_ttl must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Limits.Enabled && (c.Limits.Requests <= 0 || c.Limits.Window <= 0) {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive when enabled"))
	}
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("auth.signing_key is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json, text", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c Config) UsesDevSigningKey() bool {
	return c.Auth.SigningKey == devSigningKey
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

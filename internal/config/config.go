package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Postgres struct {
	Host     string `env:"PG_HOST"`
	Port     string `env:"PG_PORT" envDefault:"5432"`
	DB       string `env:"PG_DB"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	SSLMode  string `env:"PG_SSLMODE" envDefault:"disable"`
}

type Kafka struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic      string   `env:"KAFKA_TOPIC" envDefault:"cart-events"`
	Group      string   `env:"KAFKA_GROUP" envDefault:"storefront"`
	Workers    int      `env:"KAFKA_WORKERS" envDefault:"4"`
	Partitions int      `env:"KAFKA_PARTITIONS" envDefault:"3"`
}

type Pricing struct {
	CacheTTL      time.Duration `env:"PRICING_CACHE_TTL" envDefault:"15m"`
	CacheSize     int           `env:"PRICING_CACHE_SIZE" envDefault:"1000"`
	Concurrency   int           `env:"PRICING_CONCURRENCY" envDefault:"5"`
	OracleURL     string        `env:"PRICING_ORACLE_URL"`
	OracleTimeout time.Duration `env:"PRICING_ORACLE_TIMEOUT" envDefault:"5s"`
}

type Catalog struct {
	CacheTTL       time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	CacheSize      int           `env:"CATALOG_CACHE_SIZE" envDefault:"100"`
	PreloadTimeout time.Duration `env:"CATALOG_PRELOAD_TIMEOUT" envDefault:"10s"`
}

type Breaker struct {
	Threshold   uint32        `env:"BREAKER_THRESHOLD" envDefault:"5"`
	OpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"10s"`
	MaxHalfOpen uint32        `env:"BREAKER_MAX_HALF_OPEN" envDefault:"3"`
}

type Retry struct {
	Attempts     int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	Base         time.Duration `env:"RETRY_BASE" envDefault:"100ms"`
	Max          time.Duration `env:"RETRY_MAX" envDefault:"2s"`
	JitterFactor float64       `env:"RETRY_JITTER_FACTOR" envDefault:"0.3"`
}

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8081"`
	StoreMode string `env:"STORE_MODE" envDefault:"postgres"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	Pg      Postgres
	Kafka   Kafka
	Pricing Pricing
	Catalog Catalog
	Breaker Breaker
	Retry   Retry
}

// Load reads env/.env (if present) and the environment, and fatals on error
// for simplicity in main().
func Load() Config {
	_ = godotenv.Load("env/.env")
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

// Parse builds the config from the process environment only.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.StoreMode = strings.ToLower(strings.TrimSpace(c.StoreMode))
	switch c.StoreMode {
	case StoreMemory:
	case StorePostgres:
		var missing []string
		req := map[string]string{
			"PG_HOST":     c.Pg.Host,
			"PG_DB":       c.Pg.DB,
			"PG_USER":     c.Pg.User,
			"PG_PASSWORD": c.Pg.Password,
		}
		for k, v := range req {
			if strings.TrimSpace(v) == "" {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return &missingEnvError{Keys: missing}
		}
	default:
		return fmt.Errorf("unknown STORE_MODE %q", c.StoreMode)
	}

	brokers := c.Kafka.Brokers[:0]
	for _, b := range c.Kafka.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.Kafka.Brokers = brokers

	if c.Pricing.CacheSize <= 0 {
		log.Printf("PRICING_CACHE_SIZE is %d, adjusting to 1", c.Pricing.CacheSize)
		c.Pricing.CacheSize = 1
	}
	if c.Catalog.CacheSize <= 0 {
		log.Printf("CATALOG_CACHE_SIZE is %d, adjusting to 1", c.Catalog.CacheSize)
		c.Catalog.CacheSize = 1
	}
	if c.Pricing.Concurrency <= 0 {
		log.Printf("PRICING_CONCURRENCY is %d, adjusting to 1", c.Pricing.Concurrency)
		c.Pricing.Concurrency = 1
	}
	if c.Kafka.Workers <= 0 {
		c.Kafka.Workers = 1
	}
	if c.Retry.Attempts < 1 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 1", c.Retry.Attempts)
		c.Retry.Attempts = 1
	}
	if c.Retry.Base <= 0 {
		log.Printf("RETRY_BASE is %v, adjusting to 100ms", c.Retry.Base)
		c.Retry.Base = 100 * time.Millisecond
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
	return nil
}

// KafkaEnabled reports whether cart change events go through Kafka.
func (c Config) KafkaEnabled() bool {
	return c.StoreMode == StorePostgres && len(c.Kafka.Brokers) > 0
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

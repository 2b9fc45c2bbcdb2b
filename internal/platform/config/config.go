package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "screenguard/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// RedisConfig captures cache connection settings. An empty URL disables the
// cache entirely; screening then always hits the store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the case feed settings. Empty brokers disable
// publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Screening captures the matching pipeline tunables.
type Screening struct {
	SimilarityThreshold float64
	ConfidenceThreshold float64
	CacheEnabled        bool
	CacheTTL            time.Duration
	StoreTimeout        time.Duration
}

// Realtime captures the transaction decision toggles.
type Realtime struct {
	Enabled              bool
	BlockOnMatch         bool
	ScreenMerchants      bool
	ScreenCounterparties bool
}

// Config is the full service configuration.
type Config struct {
	Server      Server
	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Screening   Screening
	Realtime    Realtime
}

// FromEnv builds the configuration from environment variables so main stays
// lean. Unset variables fall back to development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envString("SCREENGUARD_ADDR", ":8080"),
		},
		PostgresDSN: envString("SCREENGUARD_POSTGRES_DSN", ""),
		Redis: RedisConfig{
			URL:          envString("SCREENGUARD_REDIS_URL", ""),
			PoolSize:     envInt("SCREENGUARD_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SCREENGUARD_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("SCREENGUARD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SCREENGUARD_REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: envDuration("SCREENGUARD_REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers: envList("SCREENGUARD_KAFKA_BROKERS"),
			Topic:   envString("SCREENGUARD_KAFKA_TOPIC", "sanctions.hits"),
		},
		Screening: Screening{
			SimilarityThreshold: envFloat("SCREENGUARD_SIMILARITY_THRESHOLD", 0.8),
			ConfidenceThreshold: envFloat("SCREENGUARD_CONFIDENCE_THRESHOLD", 0.95),
			CacheEnabled:        envBool("SCREENGUARD_CACHE_ENABLED", true),
			CacheTTL:            envDuration("SCREENGUARD_CACHE_TTL", 24*time.Hour),
			StoreTimeout:        envDuration("SCREENGUARD_STORE_TIMEOUT", 2*time.Second),
		},
		Realtime: Realtime{
			Enabled:              envBool("SCREENGUARD_REALTIME_ENABLED", true),
			BlockOnMatch:         envBool("SCREENGUARD_BLOCK_ON_MATCH", true),
			ScreenMerchants:      envBool("SCREENGUARD_SCREEN_MERCHANTS", true),
			ScreenCounterparties: envBool("SCREENGUARD_SCREEN_COUNTERPARTIES", true),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := pkgstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}

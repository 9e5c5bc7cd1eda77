package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string
	LogLevel   string
	Store      string
	Hub        HubConfig
}

// HubConfig - параметры хаба ревью.
type HubConfig struct {
	DefaultCapacity   int
	OutboxSize        int
	StatusBuffer      int
	HeartbeatTimeout  time.Duration
	WriteTimeout      time.Duration
	AssignmentTimeout time.Duration
	CancelAckTimeout  time.Duration
}

// LoadConfig читает .env (если есть) и переменные окружения.
// Некорректные значения заменяются значениями по умолчанию, ошибка возвращается вместе с конфигом.
func LoadConfig() (Config, error) {
	var errs []error
	if err := godotenv.Load(); err != nil {
		errs = append(errs, err)
	}

	p := &parser{}
	cfg := Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "review_hub"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Store:      getEnv("REVIEW_STORE", StorePostgres),
		Hub: HubConfig{
			DefaultCapacity:   p.intValue("HUB_DEFAULT_CAPACITY", 1),
			OutboxSize:        p.intValue("HUB_OUTBOX_SIZE", 16),
			StatusBuffer:      p.intValue("HUB_STATUS_BUFFER", 1024),
			HeartbeatTimeout:  p.durationValue("HUB_HEARTBEAT_TIMEOUT", 30*time.Second),
			WriteTimeout:      p.durationValue("HUB_WRITE_TIMEOUT", 5*time.Second),
			AssignmentTimeout: p.durationValue("HUB_ASSIGNMENT_TIMEOUT", 0),
			CancelAckTimeout:  p.durationValue("HUB_CANCEL_ACK_TIMEOUT", 10*time.Second),
		},
	}

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("REVIEW_STORE: unknown store %q", cfg.Store))
		cfg.Store = StorePostgres
	}

	errs = append(errs, p.errs...)
	return cfg, errors.Join(errs...)
}

// DSN возвращает строку подключения к PostgreSQL.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type parser struct {
	errs []error
}

func (p *parser) intValue(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid value %q", key, raw))
		return defaultValue
	}
	return v
}

func (p *parser) durationValue(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid value %q", key, raw))
		return defaultValue
	}
	return v
}

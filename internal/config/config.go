package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN      string
		MaxConns int32
	}
	API struct {
		Port           string
		BasePath       string
		AllowedOrigins []string
		MaxStreamConns int
	}
	Logging struct {
		Dir    string
		Level  string
		Format string
	}
	Kafka struct {
		Broker      string
		EventsTopic string
		IngestTopic string
		GroupID     string
	}
	Telegram struct {
		BotToken  string
		ChatID    int64
		RateLimit int
	}
	Dispatch struct {
		QueueSize  int
		MaxWorkers int
	}
	ShutdownTimeout time.Duration
}

// TelegramEnabled reports whether both the bot token and chat id are set.
func (c Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != 0
}

// KafkaEnabled reports whether a broker is configured.
func (c Config) KafkaEnabled() bool {
	return c.Kafka.Broker != ""
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	var errs []string
	intVar := func(key string, def int) int {
		v, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	// Database
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = os.Getenv("DATABASE_URL")
	}
	cfg.DB.MaxConns = int32(intVar("DB_MAX_CONNS", 10))

	// API settings
	cfg.API.Port = envOrDefault("API_PORT", ":8080")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")
	cfg.API.AllowedOrigins = splitList(envOrDefault("ALLOWED_ORIGINS", "*"))
	for _, o := range cfg.API.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Sprintf("invalid ALLOWED_ORIGINS entry %q", o))
		}
	}
	cfg.API.MaxStreamConns = intVar("WS_MAX_CLIENTS", 100)

	// Logging
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.Logging.Format = envOrDefault("LOG_FORMAT", "text")

	// Kafka settings
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.EventsTopic = envOrDefault("KAFKA_EVENTS_TOPIC", "alert_events")
	cfg.Kafka.IngestTopic = os.Getenv("KAFKA_INGEST_TOPIC")
	cfg.Kafka.GroupID = envOrDefault("KAFKA_GROUP_ID", "alert-registry")

	// Telegram settings
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if s := os.Getenv("TELEGRAM_CHAT_ID"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid TELEGRAM_CHAT_ID %q", s))
		}
		cfg.Telegram.ChatID = id
	}
	cfg.Telegram.RateLimit = intVar("TELEGRAM_RATE_LIMIT", 1)

	// Event dispatch worker settings
	cfg.Dispatch.QueueSize = intVar("DISPATCH_QUEUE_SIZE", 500)
	cfg.Dispatch.MaxWorkers = intVar("DISPATCH_MAX_WORKERS", 4)

	timeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid SHUTDOWN_TIMEOUT %q", os.Getenv("SHUTDOWN_TIMEOUT")))
	}
	cfg.ShutdownTimeout = timeout

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	// Validate required settings
	if cfg.DB.DSN == "" {
		return Config{}, fmt.Errorf("missing required configurations: [DB_DSN]")
	}
	if cfg.Kafka.IngestTopic != "" && cfg.Kafka.Broker == "" {
		return Config{}, fmt.Errorf("KAFKA_INGEST_TOPIC is set but KAFKA_BROKER is not")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt parses a positive integer, returning def when the variable is unset.
func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

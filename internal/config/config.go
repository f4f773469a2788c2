package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string

	// MySQL
	MySQLDSN string

	// Redis
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisPoolSize     int
	RedisMinIdleConns int
	RedisDialTimeout  time.Duration
	RedisIOTimeout    time.Duration

	// JWT
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// SMTP, empty host means mails are only logged
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	FrontendURL  string

	// Kafka, empty brokers means events are only logged
	KafkaBrokers         []string
	KafkaTopic           string
	KafkaBatchTimeout    time.Duration
	KafkaWriteTimeout    time.Duration
	KafkaAutoCreateTopic bool

	// Uploads
	UploadDir    string
	MaxFilmSize  int64
	MaxImageSize int64

	// Review workflow
	ReviewThreshold  int
	RandomSubsetSize int

	// Submission throttling
	SubmitRatePerIP     time.Duration
	SubmitBurstPerIP    int
	SubmitLimitPerEmail int
	SubmitEmailWindow   time.Duration

	CORSOrigins []string

	OutboxInterval time.Duration
	OutboxBatch    int
}

// Load reads configuration from the environment, falling back to a .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug(".env file not loaded", slog.Any("error", err))
	}

	cfg := &Config{}
	loadEnvString(&cfg.Env, "APP_ENV", "development")
	loadEnvString(&cfg.HTTPAddr, "HTTP_ADDR", ":8080")
	loadEnvString(&cfg.LogLevel, "LOG_LEVEL", "info")

	loadEnvString(&cfg.MySQLDSN, "MYSQL_DSN", "root:@tcp(127.0.0.1:3306)/marsai?charset=utf8mb4&parseTime=True&loc=Local")

	loadEnvString(&cfg.RedisAddr, "REDIS_ADDR", "127.0.0.1:6379")
	loadEnvString(&cfg.RedisPassword, "REDIS_PASSWORD", "")

	loadEnvString(&cfg.SMTPHost, "SMTP_HOST", "")
	loadEnvString(&cfg.SMTPUsername, "SMTP_USERNAME", "")
	loadEnvString(&cfg.SMTPPassword, "SMTP_PASSWORD", "")
	loadEnvString(&cfg.SMTPFrom, "SMTP_FROM", "MarsAI Festival <noreply@marsai.com>")
	loadEnvString(&cfg.FrontendURL, "FRONTEND_URL", "http://localhost:5173")

	loadEnvStringSlice(&cfg.KafkaBrokers, "KAFKA_BROKERS", nil)
	loadEnvString(&cfg.KafkaTopic, "KAFKA_TOPIC", "film-events")

	loadEnvString(&cfg.UploadDir, "UPLOAD_DIR", "uploads")
	loadEnvStringSlice(&cfg.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:5173"})

	if err := loadEnvStringRequired(&cfg.AccessSecret, "JWT_ACCESS_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvStringRequired(&cfg.RefreshSecret, "JWT_REFRESH_SECRET"); err != nil {
		return nil, err
	}

	ints := []struct {
		target *int
		key    string
		def    int
	}{
		{&cfg.RedisDB, "REDIS_DB", 0},
		{&cfg.RedisPoolSize, "REDIS_POOL_SIZE", 10},
		{&cfg.RedisMinIdleConns, "REDIS_MIN_IDLE_CONNS", 2},
		{&cfg.SMTPPort, "SMTP_PORT", 587},
		{&cfg.ReviewThreshold, "REVIEW_THRESHOLD", 3},
		{&cfg.RandomSubsetSize, "RANDOM_SUBSET_SIZE", 50},
		{&cfg.SubmitBurstPerIP, "SUBMIT_BURST_PER_IP", 5},
		{&cfg.SubmitLimitPerEmail, "SUBMIT_LIMIT_PER_EMAIL", 5},
		{&cfg.OutboxBatch, "OUTBOX_BATCH", 200},
	}
	for _, i := range ints {
		if err := loadEnvInt(i.target, i.key, i.def); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		target *time.Duration
		key    string
		def    time.Duration
	}{
		{&cfg.AccessTokenTTL, "ACCESS_TOKEN_TTL", 30 * time.Minute},
		{&cfg.RefreshTokenTTL, "REFRESH_TOKEN_TTL", 24 * time.Hour},
		{&cfg.SubmitRatePerIP, "SUBMIT_RATE_PER_IP", 3 * time.Minute},
		{&cfg.SubmitEmailWindow, "SUBMIT_EMAIL_WINDOW", time.Hour},
		{&cfg.OutboxInterval, "OUTBOX_INTERVAL", time.Second},
		{&cfg.RedisDialTimeout, "REDIS_DIAL_TIMEOUT", 5 * time.Second},
		{&cfg.RedisIOTimeout, "REDIS_IO_TIMEOUT", 2 * time.Second},
		{&cfg.KafkaBatchTimeout, "KAFKA_BATCH_TIMEOUT", 10 * time.Millisecond},
		{&cfg.KafkaWriteTimeout, "KAFKA_WRITE_TIMEOUT", 10 * time.Second},
	}
	for _, d := range durations {
		if err := loadEnvDuration(d.target, d.key, d.def); err != nil {
			return nil, err
		}
	}

	if err := loadEnvBool(&cfg.KafkaAutoCreateTopic, "KAFKA_AUTO_CREATE_TOPIC", false); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&cfg.MaxFilmSize, "MAX_FILM_SIZE", 800<<20); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&cfg.MaxImageSize, "MAX_IMAGE_SIZE", 10<<20); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) {
	value := os.Getenv(key)
	if value == "" {
		*target = defaultValue
		return
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*target = out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.ReviewThreshold < 1 {
		errs = append(errs, "REVIEW_THRESHOLD must be at least 1")
	}
	if c.RandomSubsetSize < 1 {
		errs = append(errs, "RANDOM_SUBSET_SIZE must be at least 1")
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		errs = append(errs, "SMTP_PORT must be between 1 and 65535")
	}
	if c.MaxFilmSize <= 0 || c.MaxImageSize <= 0 {
		errs = append(errs, "MAX_FILM_SIZE and MAX_IMAGE_SIZE must be positive")
	}
	if c.SubmitLimitPerEmail < 1 {
		errs = append(errs, "SUBMIT_LIMIT_PER_EMAIL must be at least 1")
	}
	if c.OutboxBatch < 1 || c.OutboxInterval <= 0 {
		errs = append(errs, "OUTBOX_BATCH and OUTBOX_INTERVAL must be positive")
	}
	if c.RedisPoolSize < 1 || c.RedisMinIdleConns < 0 || c.RedisMinIdleConns > c.RedisPoolSize {
		errs = append(errs, "REDIS_POOL_SIZE must be at least 1 and not below REDIS_MIN_IDLE_CONNS")
	}
	if c.AccessSecret == c.RefreshSecret {
		errs = append(errs, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.IsProduction() && len(c.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET should be at least 32 characters long")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Extraction ExtractionConfig
	GigaChat   GigaChatConfig
	Upload     UploadConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Logger     LoggerConfig
}

type LoggerConfig struct {
	Level    string `validate:"required"`
	Encoding string `validate:"oneof=json console"`
}

type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
	// BodyLimit caps whole request bodies. It sits well above the upload
	// limit so oversize files still reach validation and get a JSON 400.
	BodyLimit    int64  `validate:"gt=0"`
}

type DatabaseConfig struct {
	// URL takes precedence over the individual connection fields when set.
	URL      string
	Host     string `validate:"required_without=URL"`
	Port     string `validate:"required_without=URL"`
	User     string
	Password string
	DBName   string `validate:"required_without=URL"`
	SSLMode  string

	MaxConns        int32 `validate:"gte=1"`
	MinConns        int32 `validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	// AtomicIngest wraps a document and its line items in one transaction.
	AtomicIngest bool
}

// DSN returns a pgx connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type ExtractionConfig struct {
	Provider     string `validate:"oneof=azure gigachat"`
	Endpoint     string
	APIKey       string
	APIVersion   string `validate:"required"`
	InvoiceModel string `validate:"required"`
	ReceiptModel string `validate:"required"`
	// RequestTimeout bounds a single HTTP exchange with the provider.
	RequestTimeout time.Duration
	PollInterval   time.Duration `validate:"gt=0"`
	PollTimeout    time.Duration `validate:"gtfield=PollInterval"`
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type UploadConfig struct {
	MaxBytes     int64    `validate:"gt=0"`
	AllowedTypes []string `validate:"min=1,dive,required"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

const (
	defaultMaxUploadBytes = 4 * 1024 * 1024
	defaultBodyLimit      = 32 * 1024 * 1024
)

var defaultAllowedTypes = []string{"image/jpeg", "image/png", "image/bmp", "image/tiff", "application/pdf"}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for containers.
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", getEnv("PORT", "8080")),
			ReadTimeout:  getEnvSeconds("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvSeconds("SERVER_WRITE_TIMEOUT", 120),
			Version:      getEnv("APP_VERSION", "1.0.0"),
			BodyLimit:    int64(getEnvInt("SERVER_BODY_LIMIT", defaultBodyLimit)),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "invoice_scanner"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getEnvInt("DB_MIN_CONNS", 0)),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Second),
			ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
			AtomicIngest:    getEnvBool("DB_ATOMIC_INGEST", true),
		},
		Extraction: ExtractionConfig{
			Provider:       strings.ToLower(getEnv("EXTRACTION_PROVIDER", "azure")),
			Endpoint:       getEnv("DOC_INTELLIGENCE_ENDPOINT", ""),
			APIKey:         getEnv("DOC_INTELLIGENCE_KEY", ""),
			APIVersion:     getEnv("DOC_INTELLIGENCE_API_VERSION", "2023-07-31"),
			InvoiceModel:   getEnv("DOC_INTELLIGENCE_INVOICE_MODEL", "prebuilt-invoice"),
			ReceiptModel:   getEnv("DOC_INTELLIGENCE_RECEIPT_MODEL", "prebuilt-receipt"),
			RequestTimeout: getEnvDuration("EXTRACTION_REQUEST_TIMEOUT", 30*time.Second),
			PollInterval:   getEnvDuration("EXTRACTION_POLL_INTERVAL", time.Second),
			PollTimeout:    getEnvDuration("EXTRACTION_POLL_TIMEOUT", 2*time.Minute),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat-Pro"),
			InsecureSkipVerify: getEnvBool("GIGACHAT_INSECURE_SKIP_VERIFY", false),
		},
		Upload: UploadConfig{
			MaxBytes:     int64(getEnvInt("UPLOAD_MAX_BYTES", defaultMaxUploadBytes)),
			AllowedTypes: getEnvList("UPLOAD_ALLOWED_TYPES", defaultAllowedTypes),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", "invoice-scanner"),
			TokenTTL:  getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct-level constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

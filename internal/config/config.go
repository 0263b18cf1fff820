package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
)

// secretsDir - стандартный путь Docker Secrets. Переменная, чтобы тесты могли его подменить.
var secretsDir = "/run/secrets"

// Config содержит конфигурацию приложения.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	LogOutput   string `envconfig:"LOG_OUTPUT" default:"stdout"`

	// Хранилище планов
	StoreDriver  string        `envconfig:"STORE_DRIVER" default:"postgres"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
	SQLitePath   string        `envconfig:"SQLITE_PATH" default:"sasselerator.db"`

	DBHost            string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort            string        `envconfig:"DB_PORT" default:"5432"`
	DBUser            string        `envconfig:"DB_USER" default:"postgres"`
	DBName            string        `envconfig:"DB_NAME" default:"sasselerator"`
	DBSSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns        int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout     time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBConnectAttempts int           `envconfig:"DB_CONNECT_ATTEMPTS" default:"20"`
	DBConnectDelay    time.Duration `envconfig:"DB_CONNECT_DELAY" default:"3s"`
	// Секрет, без envconfig тега
	DBPassword string `ignored:"true"`

	// Бэкенд генерации
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIModel          string        `envconfig:"AI_MODEL" default:"gpt-4o"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AITemperature    float32       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	AIEstimateTokens bool          `envconfig:"AI_ESTIMATE_TOKENS" default:"true"`
	// Секрет, без envconfig тега
	AIAPIKey string `ignored:"true"`

	// Ограничение частоты генерации
	GenerateRateLimit int    `envconfig:"GENERATE_RATE_LIMIT_PER_MINUTE" default:"5"`
	RedisAddr         string `envconfig:"REDIS_ADDR"`
	RedisDB           int    `envconfig:"REDIS_DB" default:"0"`

	// События планов (пусто - публикация отключена)
	AMQPURL string `envconfig:"AMQP_URL"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig загружает .env (если есть), переменные окружения и секреты.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: could not load %s: %v", envFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: error checking %s: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD")
	cfg.AIAPIKey = secretOrEnv("openai_api_key", "OPENAI_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет настройки, общие для всех процессов.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateGeneration проверяет настройки бэкенда генерации.
// Процессы без генерации (stdio-мост, чтение через CLI) ее не вызывают.
func (c *Config) ValidateGeneration() error {
	var errs []error
	switch c.AIClientType {
	case AIClientOpenAI:
		if c.AIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai client"))
		}
	case AIClientOllama:
		if c.AIBaseURL == "" {
			errs = append(errs, errors.New("AI_BASE_URL is required for the ollama client"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AI_CLIENT_TYPE %q", c.AIClientType))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if c.GenerateRateLimit <= 0 {
		errs = append(errs, errors.New("GENERATE_RATE_LIMIT_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

// GetDSN возвращает строку подключения к PostgreSQL.
// Логин и пароль экранируются: секрет может содержать '@', '/' или ':'.
func (c *Config) GetDSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSSLMode}}.Encode(),
	}
	return dsn.String()
}

// GetAllowedOrigins разбивает CORS_ALLOWED_ORIGINS по запятой.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// ReadSecret читает секрет из файла Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// secretOrEnv предпочитает файл секрета, затем переменную окружения.
func secretOrEnv(secretName, envName string) string {
	if v, err := ReadSecret(secretName); err == nil {
		return v
	}
	return os.Getenv(envName)
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"eventhive/internal/auth"
	"eventhive/internal/cache"
	"eventhive/internal/database"
	"eventhive/internal/external"
	"eventhive/internal/messaging"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	AllowedOrigin  string

	// Performance monitoring
	PprofEnabled bool
	PprofPort    string

	// Задержка между токенами потокового ответа чат-бота
	ChatTokenDelay time.Duration

	// Через сколько неоплаченная регистрация считается просроченной
	RegistrationPendingTimeout time.Duration

	Database      database.Config
	NATS          messaging.Config
	Valkey        cache.Config
	Elasticsearch ElasticsearchConfig
	Auth          auth.Config
	Payment       external.PaymentConfig
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		AllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "*"),

		PprofEnabled: getEnvBool("PPROF_ENABLED", false),
		PprofPort:    getEnv("PPROF_PORT", "6060"),

		ChatTokenDelay:             time.Duration(getEnvInt("CHAT_TOKEN_DELAY_MS", 40)) * time.Millisecond,
		RegistrationPendingTimeout: time.Duration(getEnvInt("REGISTRATION_PENDING_TIMEOUT_MIN", 30)) * time.Minute,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "eventhive"),
			Password:           getEnv("DB_PASSWORD", "eventhive"),
			DBName:             getEnv("DB_NAME", "eventhive"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
			ConnectAttempts:    getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		},

		NATS: messaging.Config{
			Enabled:   getEnvBool("NATS_ENABLED", false),
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "eventhive"),
			ClientID:  getEnv("NATS_CLIENT_ID", "eventhive-api"),
		},

		Valkey: cache.Config{
			Enabled:  getEnvBool("VALKEY_ENABLED", false),
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("VALKEY_TTL_SEC", 60)) * time.Second,
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Auth: auth.Config{
			Secret:     getEnv("JWT_SECRET", "eventhive-dev-secret"),
			TTL:        time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},

		Payment: external.PaymentConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      getEnv("PAYMENT_CURRENCY", "usd"),
			SuccessURL:    getEnv("PAYMENT_SUCCESS_URL", "http://localhost:8081/api/payments/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:     getEnv("PAYMENT_CANCEL_URL", "http://localhost:8081/api/payments/cancel?session_id={CHECKOUT_SESSION_ID}"),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration понимает формат time.ParseDuration ("30s", "2m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

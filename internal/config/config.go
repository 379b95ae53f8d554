package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StorePostgres  = "postgres"
	// StoreMemory держит отчёты в памяти процесса, для локального запуска
	StoreMemory    = "memory"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	Env            string   `env:"APP_ENV" envDefault:"development"`
	HTTPPort       string   `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	PublicBaseURL  string   `env:"PUBLIC_BASE_URL"`

	// Document store
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"firestore"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`
	MongoURI       string `env:"MONGO_URI"`
	MongoDatabase  string `env:"MONGO_DATABASE" envDefault:"critter_connect"`

	// Firebase (Firestore + Cloud Storage)
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	StorageBucket           string `env:"STORAGE_BUCKET"`

	// Redis Config
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPass        string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	ReportCacheTTL   time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`
	BroadcastChannel string        `env:"BROADCAST_CHANNEL" envDefault:"critter_connect:report_events"`

	// Geocoder Config
	GeocoderAPIKey   string        `env:"GEOCODER_API_KEY"`
	GeocoderBaseURL  string        `env:"GEOCODER_BASE_URL" envDefault:"https://api.opencagedata.com/geocode/v1/json"`
	GeocoderCountry  string        `env:"GEOCODER_COUNTRY" envDefault:"sg"`
	PostalCodePrefix string        `env:"POSTAL_CODE_PREFIX" envDefault:"S"`
	GeocoderTimeout  time.Duration `env:"GEOCODER_TIMEOUT" envDefault:"10s"`

	// Species classifier Config
	ClassifierURL           string        `env:"CLASSIFIER_URL" envDefault:"http://localhost:8000"`
	ClassifierTimeout       time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"60s"`
	ClassifierMinConfidence float64       `env:"CLASSIFIER_MIN_CONFIDENCE" envDefault:"0.3"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// API Keys for triage routes
	APIKeys []string `env:"API_KEYS" envSeparator:","`

	// Tracing
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// IsProduction сообщает, нужно ли скрывать детали ошибок от клиента
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for the postgres store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable is required for the mongo store")
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" && c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_PATH is required for the firestore store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (must be firestore, mongo, postgres or memory)", c.StoreDriver)
	}

	if c.ClassifierMinConfidence < 0 || c.ClassifierMinConfidence > 1 {
		return fmt.Errorf("CLASSIFIER_MIN_CONFIDENCE must be within [0, 1], got %v", c.ClassifierMinConfidence)
	}
	return nil
}

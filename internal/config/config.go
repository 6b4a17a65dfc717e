package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration, read once at startup.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Classifier ClassifierConfig
	Tariff     TariffConfig
}

type AppConfig struct {
	Port           string
	AllowOrigins   string
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	UseMemoryStore bool
}

type DatabaseConfig struct {
	Host                   string
	Port                   string
	User                   string
	Password               string
	Name                   string
	InstanceConnectionName string
}

type ClassifierConfig struct {
	FolderID   string
	APIKey     string
	BaseURL    string
	ModelURI   string
	Attempts   int
	BaseDelay  time.Duration
	MaxRetries int
}

type TariffConfig struct {
	URL        string
	Bearer     string
	ConfigPath string
}

// Load reads .env (when present) and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found - using environment variables")
	}

	return &Config{
		App: AppConfig{
			Port:           getEnv("PORT", "8080"),
			AllowOrigins:   getEnv("ALLOW_ORIGINS", "*"),
			SessionTTL:     time.Duration(getEnvAsInt("SESSION_TTL_SEC", 3600)) * time.Second,
			SweepInterval:  time.Duration(getEnvAsInt("SESSION_SWEEP_SEC", 300)) * time.Second,
			UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", true),
		},
		Database: DatabaseConfig{
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnv("DB_PORT", "5432"),
			User:                   getEnv("DB_USER", "postgres"),
			Password:               getEnv("DB_PASS", ""),
			Name:                   getEnv("DB_NAME", "cargoquote"),
			InstanceConnectionName: getEnv("INSTANCE_CONNECTION_NAME", ""),
		},
		Classifier: ClassifierConfig{
			FolderID:   getEnv("YANDEX_FOLDER_ID", ""),
			APIKey:     getEnv("YANDEX_API_KEY", ""),
			BaseURL:    getEnv("YANDEX_BASE_URL", "https://llm.api.cloud.yandex.net/v1"),
			ModelURI:   getEnv("YANDEX_MODEL_URI", ""),
			Attempts:   getEnvAsInt("CLASSIFIER_ATTEMPTS", 3),
			BaseDelay:  time.Duration(getEnvAsInt("CLASSIFIER_BASE_DELAY_MS", 500)) * time.Millisecond,
			MaxRetries: getEnvAsInt("CARGO_MAX_RETRIES", 2),
		},
		Tariff: TariffConfig{
			URL:        getEnv("TARIFF_URL", ""),
			Bearer:     getEnv("TARIFF_BEARER", ""),
			ConfigPath: getEnv("TARIFF_CONFIG_PATH", "config/tariff_config.json"),
		},
	}
}

// ModelName resolves the classifier model URI, defaulting to the folder's
// yandexgpt-lite alias.
func (c ClassifierConfig) ModelName() string {
	if c.ModelURI != "" {
		return c.ModelURI
	}
	return "gpt://" + c.FolderID + "/yandexgpt-lite"
}

// Configured reports whether the classifier capability has credentials.
func (c ClassifierConfig) Configured() bool {
	return c.FolderID != "" && c.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

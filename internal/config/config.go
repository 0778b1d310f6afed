// Package config loads application settings from an optional TOML file,
// a .env file and the process environment, in increasing priority.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultUserID stands in for a real user system
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// Config holds all studyapp configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Study    StudyConfig    `toml:"study"`
	HTTP     HTTPConfig     `toml:"http"`
	Storage  StorageConfig  `toml:"storage"`
	Telegram TelegramConfig `toml:"telegram"`
	Log      LogConfig      `toml:"log"`

	EnableScheduler bool `toml:"enable_scheduler"`
}

// DatabaseConfig selects the row-store driver.
type DatabaseConfig struct {
	Type       string `toml:"type"` // sqlite or postgres
	URL        string `toml:"url"`
	SQLitePath string `toml:"sqlite_path"`
}

// StudyConfig holds product constants.
type StudyConfig struct {
	Timezone string `toml:"timezone"`
	UserID   string `toml:"user_id"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StorageConfig locates public audio files.
type StorageConfig struct {
	BaseURL     string `toml:"base_url"`
	AudioBucket string `toml:"audio_bucket"`
}

// TelegramConfig enables the reminder bot when Token is set.
type TelegramConfig struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Mode string `toml:"mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Type:       "sqlite",
			SQLitePath: "data/studyapp.db",
		},
		Study: StudyConfig{
			Timezone: "Asia/Seoul",
			UserID:   DefaultUserID,
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Storage: StorageConfig{
			AudioBucket: "audio-files",
		},
		Log:             LogConfig{Mode: "dev"},
		EnableScheduler: true,
	}
}

// Load builds the configuration. A missing .env or TOML file is not an error.
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file, using environment variables: %v", err)
	}

	if path := os.Getenv("STUDYAPP_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Database.Type = getEnv("DB_TYPE", cfg.Database.Type)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Study.Timezone = getEnv("STUDY_TIMEZONE", cfg.Study.Timezone)
	cfg.Study.UserID = getEnv("STUDY_USER_ID", cfg.Study.UserID)
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Storage.BaseURL = getEnv("STORAGE_BASE_URL", cfg.Storage.BaseURL)
	cfg.Storage.AudioBucket = getEnv("AUDIO_BUCKET", cfg.Storage.AudioBucket)
	cfg.Telegram.Token = getEnv("TELEGRAM_BOT_TOKEN", cfg.Telegram.Token)
	cfg.Log.Mode = getEnv("LOG_MODE", cfg.Log.Mode)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.HTTP.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, o)
			}
		}
	}

	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chat, err)
		}
		cfg.Telegram.ChatID = id
	}

	// anything but "false" keeps the scheduler on
	if v, ok := os.LookupEnv("ENABLE_SCHEDULER"); ok {
		cfg.EnableScheduler = v != "false"
	}

	switch cfg.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", cfg.Database.Type)
	}
	if cfg.Database.Type == "postgres" && cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for postgres")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

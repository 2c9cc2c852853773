package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

type Config struct {
	HTTPAddr    string   `json:"http_addr"`
	CORSOrigins []string `json:"cors_origins"`
	LogLevel    string   `json:"log_level"`

	StorageDriver string `json:"storage_driver"` // memory|file|sqlite|postgres
	DataFile      string `json:"data_file"`
	SQLitePath    string `json:"sqlite_path"`

	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`

	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"-"`
}

// Load builds the config from, in order: defaults, the optional HuJSON
// file named by TODO_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("TODO_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTPAddr:      ":8080",
		CORSOrigins:   []string{"*"},
		LogLevel:      "info",
		StorageDriver: "file",
		DataFile:      "./data/todo.json",
		SQLitePath:    "./data/todo.db",
		DBPort:        5432,
		JWTSecret:     "SUPER_SECRET_KEY_CHANGE_ME",
		TokenTTL:      30 * 24 * time.Hour,
	}
}

// loadFile overlays a JSON-with-comments file onto cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	var overlay struct {
		Config
		TokenTTL string `json:"token_ttl"`
	}
	overlay.Config = *cfg
	if err := json.Unmarshal(std, &overlay); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	*cfg = overlay.Config
	if overlay.TokenTTL != "" {
		ttl, err := time.ParseDuration(overlay.TokenTTL)
		if err != nil {
			return fmt.Errorf("token_ttl: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.StorageDriver, "STORAGE_DRIVER")
	setString(&cfg.DataFile, "DATA_FILE")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid DB_PORT, keeping default", "value", v, "default", cfg.DBPort)
		} else {
			cfg.DBPort = port
		}
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid TOKEN_TTL, keeping default", "value", v, "default", cfg.TokenTTL)
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

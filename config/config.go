// Package config loads service settings from the environment.
package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	NotifierTelegram = "telegram"
	NotifierLog      = "log"
)

// Config aggregates every setting of the service.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Notifier NotifierConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	notifier, err := loadNotifierConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Auth:     auth,
		Storage:  storage,
		Notifier: notifier,
	}, nil
}

type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", "8080")

	if strings.Contains(port, ":") {
		// ":8080" or "127.0.0.1:8080" are taken as-is.
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig holds the admin secret and session settings.
type AuthConfig struct {
	AdminPassword string
	SessionSecret []byte
	// SessionSecretGenerated is set when SESSION_SECRET was empty and a random
	// secret was generated; sessions then do not survive a restart.
	SessionSecretGenerated bool
	SessionTTL             time.Duration
	CookieSecure           bool
}

func loadAuthConfig() (AuthConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return AuthConfig{}, err
	}
	if ttl <= 0 {
		return AuthConfig{}, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}

	secure, err := parseBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		return AuthConfig{}, err
	}

	cfg := AuthConfig{
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionTTL:    ttl,
		CookieSecure:  secure,
	}

	if secret := strings.TrimSpace(os.Getenv("SESSION_SECRET")); secret != "" {
		cfg.SessionSecret = []byte(secret)
	} else {
		cfg.SessionSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.SessionSecret); err != nil {
			return AuthConfig{}, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecretGenerated = true
	}

	return cfg, nil
}

// BadgerPath returns BADGER_PATH or the default data directory.
func BadgerPath() string {
	return getEnvOrDefault("BADGER_PATH", "data/badger")
}

// StorageConfig selects the post and session backend.
type StorageConfig struct {
	Type                    string
	BadgerPath              string
	PostgresDSN             string
	PostgresConnectAttempts uint
}

func loadStorageConfig() (StorageConfig, error) {
	attempts, err := parseUintEnv("POSTGRES_CONNECT_ATTEMPTS", 5)
	if err != nil {
		return StorageConfig{}, err
	}

	cfg := StorageConfig{
		Type:                    strings.ToLower(getEnvOrDefault("STORAGE_TYPE", StorageBadger)),
		BadgerPath:              BadgerPath(),
		PostgresDSN:             strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresConnectAttempts: attempts,
	}

	switch cfg.Type {
	case StorageBadger, StorageMemory:
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return StorageConfig{}, fmt.Errorf("POSTGRES_DSN is required when STORAGE_TYPE=postgres")
		}
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_TYPE value %q (want badger, postgres or memory)", cfg.Type)
	}

	return cfg, nil
}

// NotifierConfig describes where published posts are announced.
type NotifierConfig struct {
	Type       string
	BotToken   string
	ChannelID  string
	APIURL     string
	Timeout    time.Duration
	ButtonText string
}

func loadNotifierConfig() (NotifierConfig, error) {
	timeout, err := parseDurationEnv("TELEGRAM_TIMEOUT", 30*time.Second)
	if err != nil {
		return NotifierConfig{}, err
	}

	cfg := NotifierConfig{
		BotToken:   strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		ChannelID:  getEnvOrDefault("TELEGRAM_CHANNEL_ID", "@hi0anime"),
		APIURL:     getEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"),
		Timeout:    timeout,
		ButtonText: getEnvOrDefault("TELEGRAM_BUTTON_TEXT", "📖 READ ONLINE (FREE)"),
	}

	defaultType := NotifierLog
	if cfg.BotToken != "" {
		defaultType = NotifierTelegram
	}
	cfg.Type = strings.ToLower(getEnvOrDefault("NOTIFIER", defaultType))

	switch cfg.Type {
	case NotifierLog:
	case NotifierTelegram:
		if cfg.BotToken == "" {
			return NotifierConfig{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required when NOTIFIER=telegram")
		}
	default:
		return NotifierConfig{}, fmt.Errorf("invalid NOTIFIER value %q (want telegram or log)", cfg.Type)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseUintEnv(key string, defaultValue uint) (uint, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || val == 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be a positive integer", key, raw)
	}
	return uint(val), nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	StoreBackend       string `mapstructure:"STORE_BACKEND"`
	DBDSN              string `mapstructure:"DB_DSN"`
	DBMaxConns         int    `mapstructure:"DB_MAX_CONNS"`
	FirestoreProjectID string `mapstructure:"FIRESTORE_PROJECT_ID"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	AppName   string `mapstructure:"APP_NAME"`

	APIBaseURL string `mapstructure:"API_BASE_URL"`

	HTTPReadTimeout  time.Duration `mapstructure:"HTTP_READ_TIMEOUT"`
	HTTPWriteTimeout time.Duration `mapstructure:"HTTP_WRITE_TIMEOUT"`
	SearchDebounce   time.Duration `mapstructure:"SEARCH_DEBOUNCE"`
}

var keys = []string{
	"PORT", "ENV",
	"STORE_BACKEND", "DB_DSN", "DB_MAX_CONNS", "FIRESTORE_PROJECT_ID",
	"LOG_LEVEL", "LOG_FORMAT", "APP_NAME",
	"API_BASE_URL",
	"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "SEARCH_DEBOUNCE",
}

// Load lee variables de entorno, con .env opcional en el directorio actual.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile es Load con otro archivo de config. Si el archivo no existe se
// usan solo env + defaults; si existe y está mal formado, es error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("APP_NAME", "medilocator")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("HTTP_READ_TIMEOUT", "5s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "10s")
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")

	// Bind explícito para que Unmarshal vea las env vars sin default
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if path != "" {
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Addr es la dirección de escucha del server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Validate chequea que el backend elegido tenga lo que necesita.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("DB_DSN is required when STORE_BACKEND=%s", BackendPostgres)
		}
	case BackendFirestore:
		if strings.TrimSpace(c.FirestoreProjectID) == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required when STORE_BACKEND=%s", BackendFirestore)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q or %q, got %q",
			BackendMemory, BackendPostgres, BackendFirestore, c.StoreBackend)
	}

	if c.HTTPReadTimeout <= 0 || c.HTTPWriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}
	return nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.Is(err, os.ErrNotExist) || errors.As(err, &nf)
}

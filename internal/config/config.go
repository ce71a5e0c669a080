package config

import (
	"fmt"
	"strings"
	"time"

	"travel-docs/internal/domain"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	// Cloud Run (and many PaaS) provide the listening port via PORT.
	// Keep SERVER_PORT for local/dev compatibility.
	Port       string `envconfig:"PORT"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	UploadPath  string `envconfig:"UPLOAD_PATH" default:"./uploads"`
	MaxFileSize int64  `envconfig:"MAX_FILE_SIZE" default:"52428800"` // 50MB
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageKey     string `envconfig:"STORAGE_KEY" default:"travel_documents"`
	DataDir        string `envconfig:"DATA_DIR" default:"./data"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`
	RedisURL       string `envconfig:"REDIS_URL"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	SupabaseURL    string `envconfig:"SUPABASE_URL"`
	SupabaseKey    string `envconfig:"SUPABASE_ANON_KEY"`

	DocumentTypesFile string        `envconfig:"DOCUMENT_TYPES_FILE"`
	UploadDelay       time.Duration `envconfig:"UPLOAD_SIMULATED_DELAY" default:"1500ms"`
	APIToken          string        `envconfig:"API_TOKEN"`
	AllowedOrigins    []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8081,http://localhost:19006,http://localhost:3000"`
}

var backends = []string{"memory", "file", "redis", "sqlite", "postgres", "supabase"}

// Load reads the configuration from the environment
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	known := false
	for _, b := range backends {
		if b == c.StorageBackend {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedBackend, c.StorageBackend)
	}
	if c.MaxFileSize <= 0 {
		return &domain.ValidationError{Field: "MAX_FILE_SIZE", Message: "must be positive"}
	}
	if c.UploadDelay < 0 {
		return &domain.ValidationError{Field: "UPLOAD_SIMULATED_DELAY", Message: "cannot be negative"}
	}
	if c.StorageKey == "" {
		return &domain.ValidationError{Field: "STORAGE_KEY", Message: "is required"}
	}
	return nil
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	if c.Port != "" {
		return c.Port
	}
	return c.ServerPort
}

// GetUploadPath returns the upload directory path
func (c *AppConfig) GetUploadPath() string {
	return c.UploadPath
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetStorageBackend returns the persistence adapter name
func (c *AppConfig) GetStorageBackend() string {
	return c.StorageBackend
}

// GetStorageKey returns the key holding the serialized collection
func (c *AppConfig) GetStorageKey() string {
	return c.StorageKey
}

func (c *AppConfig) GetDataDir() string {
	return c.DataDir
}

func (c *AppConfig) GetDatabaseDSN() string {
	return c.DatabaseDSN
}

func (c *AppConfig) GetRedisURL() string {
	return c.RedisURL
}

func (c *AppConfig) GetRedisAddr() string {
	return c.RedisAddr
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

func (c *AppConfig) GetDocumentTypesFile() string {
	return c.DocumentTypesFile
}

// GetUploadDelay returns the simulated transfer latency
func (c *AppConfig) GetUploadDelay() time.Duration {
	return c.UploadDelay
}

// GetAPIToken returns the bearer token; empty disables auth
func (c *AppConfig) GetAPIToken() string {
	return c.APIToken
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

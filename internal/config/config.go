package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Annotation AnnotationConfig
	Refresh    RefreshConfig
	Statuses   StatusesConfig
	Logging    LoggingConfig
	Server     ServerConfig
	CORS       CORSConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int `validate:"gt=0,lte=65535"`
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// AnnotationConfig locates the durable per-order annotation document.
type AnnotationConfig struct {
	Path string `validate:"required"`
}

// RefreshConfig drives the two background refresh timers and the worker
// pool that gateway calls are dispatched to.
type RefreshConfig struct {
	// FullInterval is the period of the wholesale order-list refresh (seconds)
	FullInterval int `validate:"gt=0"`
	// RecentInterval is the period of the cheap recently-changed poll
	// (seconds); zero disables the poll
	RecentInterval int `validate:"gte=0"`
	// RecentWindow is how far back the recently-changed poll looks (seconds)
	RecentWindow int `validate:"gt=0"`
	// QueryTimeout bounds a single gateway call (seconds)
	QueryTimeout int `validate:"gt=0"`
	// Workers is the size of the background worker pool
	Workers int `validate:"gt=0"`
	// QueueSize is the pending-task capacity of the pool
	QueueSize int `validate:"gt=0"`
}

// StatusesConfig carries the display metadata for status values. The set of
// valid values itself is backend-defined; this only styles them, with a
// neutral fallback for anything unknown.
type StatusesConfig struct {
	Styles             map[string]domain.StatusStyle
	FallbackColor      string
	FallbackLightColor string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout  int
	WriteTimeout int
}

// CORSConfig holds CORS configuration for the local presentation surface
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// FullIntervalDuration returns the full refresh period as duration
func (r *RefreshConfig) FullIntervalDuration() time.Duration {
	return time.Duration(r.FullInterval) * time.Second
}

// RecentIntervalDuration returns the recent poll period as duration
func (r *RefreshConfig) RecentIntervalDuration() time.Duration {
	return time.Duration(r.RecentInterval) * time.Second
}

// RecentWindowDuration returns the recent poll lookback as duration
func (r *RefreshConfig) RecentWindowDuration() time.Duration {
	return time.Duration(r.RecentWindow) * time.Second
}

// QueryTimeoutDuration returns the gateway call timeout as duration
func (r *RefreshConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(r.QueryTimeout) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// StyleFor returns the display metadata for a status value. Unknown values
// get the raw string as label and the neutral fallback colors; the core
// never fails on an unrecognized status.
func (s *StatusesConfig) StyleFor(value string) domain.StatusStyle {
	if style, ok := s.Styles[strings.ToLower(value)]; ok {
		if style.Label == "" {
			style.Label = value
		}
		return style
	}
	return domain.StatusStyle{
		Label:      value,
		Color:      s.FallbackColor,
		LightColor: s.FallbackLightColor,
	}
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from config file
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Legacy env names used by earlier deployments of the desk
	if host := v.GetString("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if user := v.GetString("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if password := v.GetString("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if name := v.GetString("DB_DATABASE"); name != "" {
		cfg.Database.Name = name
	}
	if port := v.GetInt("DB_PORT"); port != 0 {
		cfg.Database.Port = port
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Quotation Desk")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8090)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "quotedesk")
	v.SetDefault("database.user", "quotedesk_user")
	v.SetDefault("database.password", "quotedesk_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", 300)

	// Annotation store defaults
	v.SetDefault("annotation.path", "./selected_orders.json")

	// Refresh defaults: full refresh on a long period, recent poll on a
	// short one; both converge on the single cache mutation point
	v.SetDefault("refresh.fullInterval", 60)
	v.SetDefault("refresh.recentInterval", 10)
	v.SetDefault("refresh.recentWindow", 60)
	v.SetDefault("refresh.queryTimeout", 15)
	v.SetDefault("refresh.workers", 4)
	v.SetDefault("refresh.queueSize", 32)

	// Status display defaults mirror the classic desk palette
	v.SetDefault("statuses.styles.pending.color", "#FFC107")
	v.SetDefault("statuses.styles.pending.lightColor", "#FFF8E1")
	v.SetDefault("statuses.styles.pending.label", "Pending")
	v.SetDefault("statuses.styles.accepted.color", "#4CAF50")
	v.SetDefault("statuses.styles.accepted.lightColor", "#E8F5E9")
	v.SetDefault("statuses.styles.accepted.label", "Accepted")
	v.SetDefault("statuses.styles.rejected.color", "#F44336")
	v.SetDefault("statuses.styles.rejected.lightColor", "#FFEBEE")
	v.SetDefault("statuses.styles.rejected.label", "Rejected")
	v.SetDefault("statuses.fallbackColor", "#9E9E9E")
	v.SetDefault("statuses.fallbackLightColor", "#F5F5F5")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 0) // SSE stream must not be cut off

	// CORS defaults - the desk shell runs on a local origin
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"X-Request-ID"})
	v.SetDefault("cors.allowCredentials", false)
	v.SetDefault("cors.maxAge", 300)
}

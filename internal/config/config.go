package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"

	minAuthSecretLen = 16
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendMongo}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string
	SeedDir     string

	// Database
	SQLiteDBPath  string
	MongoURI      string
	MongoDatabase string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets report export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Auth
	AuthSecret    string
	ShareTokenTTL time.Duration

	// Workers and caching
	RenewalInterval time.Duration
	CacheTTL        time.Duration

	LogLevel string
}

var defaults = map[string]any{
	"PORT":             "8081",
	"DATA_BACKEND":     BackendMemory,
	"SEED_DIR":         "./data",
	"SQLITE_DB_PATH":   "./data/fintrack.db",
	"MONGO_URI":        "mongodb://localhost:27017",
	"MONGO_DATABASE":   "fintrack",
	"AMQP_URL":         "",
	"AMQP_EXCHANGE":    "fintrack",
	"AMQP_QUEUE":       "transaction_events",
	"SHARE_TOKEN_TTL":  "720h",
	"RENEWAL_INTERVAL": "1h",
	"CACHE_TTL":        "30s",
	"LOG_LEVEL":        "info",
}

// NewViper returns a viper instance with every key defaulted and bound to
// the environment.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range []string{
		"GOOGLE_SPREADSHEET_ID",
		"GOOGLE_SERVICE_ACCOUNT_FILE",
		"GOOGLE_SERVICE_ACCOUNT_JSON",
		"AUTH_SECRET",
	} {
		_ = v.BindEnv(k)
	}
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the environment.
func Load() *Config {
	return FromViper(NewViper())
}

// FromViper reads the configuration from v, which may layer flags or a
// config file over the environment.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port: v.GetString("PORT"),

		DataBackend: strings.ToLower(strings.TrimSpace(v.GetString("DATA_BACKEND"))),
		SeedDir:     v.GetString("SEED_DIR"),

		SQLiteDBPath:  v.GetString("SQLITE_DB_PATH"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),

		AuthSecret:    v.GetString("AUTH_SECRET"),
		ShareTokenTTL: getDuration(v, "SHARE_TOKEN_TTL"),

		RenewalInterval: getDuration(v, "RENEWAL_INTERVAL"),
		CacheTTL:        getDuration(v, "CACHE_TTL"),

		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == BackendMongo {
		if parsedURL, err := url.Parse(c.MongoURI); err != nil || c.MongoURI == "" {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI '%s'", c.MongoURI))
		} else if parsedURL.Scheme != "mongodb" && parsedURL.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", parsedURL.Scheme))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "Mongo database name cannot be empty when using mongo backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.AuthSecret != "" && len(c.AuthSecret) < minAuthSecretLen {
		errors = append(errors, fmt.Sprintf("auth secret too short: must be at least %d characters", minAuthSecretLen))
	}

	if c.ShareTokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid share token TTL %v: must be at least 1 minute", c.ShareTokenTTL))
	} else if c.ShareTokenTTL > 365*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid share token TTL %v: must be at most 365 days", c.ShareTokenTTL))
	}

	if c.RenewalInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid renewal interval %v: must be at least 1 minute", c.RenewalInterval))
	} else if c.RenewalInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid renewal interval %v: must be at most 24 hours", c.RenewalInterval))
	}

	if c.CacheTTL < 0 || c.CacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be between 0 and 1 hour", c.CacheTTL))
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// RequireAuth reports an error when the API cannot verify bearer tokens.
func (c *Config) RequireAuth() error {
	if c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required to serve the API")
	}
	return nil
}

// ReportsEnabled reports whether report export to Google Sheets is configured.
func (c *Config) ReportsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	if l, ok := logLevels[c.LogLevel]; ok {
		return l
	}
	return slog.LevelInfo
}

// getDuration falls back to the key's default when the value does not parse.
func getDuration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key))); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

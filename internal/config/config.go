// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageSupabase = "supabase"
	StorageGCS      = "gcs"
	StorageLocal    = "local"
)

// Database backends.
const (
	DatabaseBaaS     = "baas"
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Supabase SupabaseConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Images   ImagesConfig
	Metadata MetadataConfig
	Search   SearchConfig
	Auth     AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath is the root for local state (sqlite, caches, search index).
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64 // per client IP, write endpoints
	RateLimitBurst int

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// SupabaseConfig holds the backend-as-a-service connection.
type SupabaseConfig struct {
	URL        string
	ServiceKey string
	JWTSecret  string
	Bucket     string
}

// StorageConfig selects where cover images are stored.
type StorageConfig struct {
	Backend      string
	LocalPath    string
	LocalBaseURL string // public URL prefix for the local backend
	GCSBucket    string
	// OrphanGrace keeps recent unreferenced covers out of orphan cleanup.
	OrphanGrace time.Duration
}

// DatabaseConfig selects where curation rows live.
type DatabaseConfig struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
}

// ImagesConfig tunes the cover compression pipeline.
type ImagesConfig struct {
	MaxUploadBytes int64
	TargetSize     int
	MaxOutputBytes int64
	InitialQuality int
	MinQuality     int
	QualityStep    int
}

// MetadataConfig tunes URL metadata extraction.
type MetadataConfig struct {
	Timeout         time.Duration
	UserAgent       string
	MaxBodyBytes    int64
	CachePath       string
	CacheTTL        time.Duration
	BrowserFallback bool
	BrowserPath     string // chromium binary; empty lets rod find or download one
	HostRPS         float64
	// AllowPrivateNetworks lets links resolve to loopback and internal
	// addresses. For local development only.
	AllowPrivateNetworks bool
}

// SearchConfig holds the full-text index location.
type SearchConfig struct {
	IndexPath string
}

// AuthConfig holds authorization settings beyond the BaaS JWT secret.
type AuthConfig struct {
	// AdminUserIDs may run orphan scans in addition to service-role tokens.
	AdminUserIDs []string
}

// LoadConfig loads configuration using the process flags and arguments.
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load registers configuration flags on fs, parses args, and resolves values with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// Callers may register their own flags on fs before calling Load.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	dataPath := fs.String("data-path", "", "Directory for local state (default: ~/.tabsverse)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins")

	supabaseURL := fs.String("supabase-url", "", "Backend-as-a-service base URL")
	storageBackend := fs.String("storage", "", "Cover storage backend (supabase, gcs, local)")
	databaseBackend := fs.String("database", "", "Curation database backend (baas, sqlite, postgres)")
	browserFallback := fs.String("browser-fallback", "", "Render pages headlessly when static HTML has no title")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv.Load never overrides variables already present in the environment.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", ""),
		},
		Server: ServerConfig{
			Port:              getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins:       splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			RateLimitRPS:      getFloatConfigValue("", "RATE_LIMIT_RPS", 5),
			RateLimitBurst:    getIntConfigValue("", "RATE_LIMIT_BURST", 20),
			TrustProxyHeaders: getBoolConfigValue("", "TRUST_PROXY_HEADERS", false),
		},
		Supabase: SupabaseConfig{
			URL:        strings.TrimRight(getConfigValue(*supabaseURL, "SUPABASE_URL", ""), "/"),
			ServiceKey: getConfigValue("", "SUPABASE_SERVICE_KEY", ""),
			JWTSecret:  getConfigValue("", "SUPABASE_JWT_SECRET", ""),
			Bucket:     getConfigValue("", "SUPABASE_BUCKET", "images"),
		},
		Storage: StorageConfig{
			Backend:      getConfigValue(*storageBackend, "STORAGE_BACKEND", StorageSupabase),
			LocalPath:    getConfigValue("", "STORAGE_LOCAL_PATH", ""),
			LocalBaseURL: getConfigValue("", "STORAGE_LOCAL_BASE_URL", "http://localhost:8080/files"),
			GCSBucket:    getConfigValue("", "GCS_BUCKET", ""),
		},
		Database: DatabaseConfig{
			Backend:     getConfigValue(*databaseBackend, "DATABASE_BACKEND", DatabaseBaaS),
			SQLitePath:  getConfigValue("", "SQLITE_PATH", ""),
			PostgresDSN: getConfigValue("", "POSTGRES_DSN", ""),
		},
		Images: ImagesConfig{
			MaxUploadBytes: int64(getIntConfigValue("", "IMAGE_MAX_UPLOAD_BYTES", 10<<20)),
			TargetSize:     getIntConfigValue("", "IMAGE_TARGET_SIZE", 600),
			MaxOutputBytes: int64(getIntConfigValue("", "IMAGE_MAX_OUTPUT_BYTES", 500<<10)),
			InitialQuality: getIntConfigValue("", "IMAGE_INITIAL_QUALITY", 80),
			MinQuality:     getIntConfigValue("", "IMAGE_MIN_QUALITY", 30),
			QualityStep:    getIntConfigValue("", "IMAGE_QUALITY_STEP", 10),
		},
		Metadata: MetadataConfig{
			UserAgent:       getConfigValue("", "METADATA_USER_AGENT", "Tabsverse/1.0 (+https://tabsverse.app)"),
			MaxBodyBytes:    int64(getIntConfigValue("", "METADATA_MAX_BODY_BYTES", 2<<20)),
			CachePath:       getConfigValue("", "METADATA_CACHE_PATH", ""),
			BrowserFallback: getBoolConfigValue(*browserFallback, "METADATA_BROWSER_FALLBACK", false),
			BrowserPath:     getConfigValue("", "METADATA_BROWSER_PATH", ""),
			HostRPS:         getFloatConfigValue("", "METADATA_HOST_RPS", 2),

			AllowPrivateNetworks: getBoolConfigValue("", "METADATA_ALLOW_PRIVATE_NETWORKS", false),
		},
		Search: SearchConfig{
			IndexPath: getConfigValue("", "SEARCH_INDEX_PATH", ""),
		},
		Auth: AuthConfig{
			AdminUserIDs: splitList(getConfigValue("", "ADMIN_USER_IDS", "")),
		},
	}

	durations := []struct {
		target   *time.Duration
		flagVal  string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Metadata.Timeout, "", "METADATA_TIMEOUT", "10s"},
		{&cfg.Metadata.CacheTTL, "", "METADATA_CACHE_TTL", "24h"},
		{&cfg.Storage.OrphanGrace, "", "ORPHAN_GRACE", "0s"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	needsSupabase := false
	switch c.Storage.Backend {
	case StorageSupabase:
		needsSupabase = true
	case StorageGCS:
		if c.Storage.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required for the gcs storage backend")
		}
	case StorageLocal:
	default:
		return fmt.Errorf("invalid storage backend: %q (must be supabase, gcs, or local)", c.Storage.Backend)
	}

	switch c.Database.Backend {
	case DatabaseBaaS:
		needsSupabase = true
	case DatabasePostgres:
		if c.Database.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres database backend")
		}
	case DatabaseSQLite:
	default:
		return fmt.Errorf("invalid database backend: %q (must be baas, sqlite, or postgres)", c.Database.Backend)
	}

	if needsSupabase && (c.Supabase.URL == "" || c.Supabase.ServiceKey == "") {
		return errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	if c.Supabase.JWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET is required to verify user tokens")
	}

	img := c.Images
	if img.TargetSize <= 0 || img.MaxOutputBytes <= 0 || img.MaxUploadBytes <= 0 {
		return errors.New("image sizes must be positive")
	}
	if img.QualityStep <= 0 || img.MinQuality < 1 || img.InitialQuality > 100 || img.MinQuality > img.InitialQuality {
		return fmt.Errorf("invalid image quality range %d..%d step %d", img.InitialQuality, img.MinQuality, img.QualityStep)
	}

	if c.Metadata.Timeout <= 0 {
		return errors.New("METADATA_TIMEOUT must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves DataPath and derives every unset local path from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.App.DataPath, filepath.Join(homeDir, ".tabsverse"))
	if err != nil {
		return err
	}
	c.App.DataPath = dataPath

	paths := []struct {
		target   *string
		fallback string
	}{
		{&c.Database.SQLitePath, filepath.Join(dataPath, "tabsverse.db")},
		{&c.Storage.LocalPath, filepath.Join(dataPath, "objects")},
		{&c.Metadata.CachePath, filepath.Join(dataPath, "cache", "metadata")},
		{&c.Search.IndexPath, filepath.Join(dataPath, "search")},
	}
	for _, p := range paths {
		expanded, err := expandPath(*p.target, p.fallback)
		if err != nil {
			return err
		}
		*p.target = expanded
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

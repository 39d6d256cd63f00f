// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port               int      `koanf:"port"`
	Env                string   `koanf:"env"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (ranked-result cache)
	RedisURL         string `koanf:"redis_url"`
	CacheTTLSeconds  int    `koanf:"cache_ttl_seconds"`
	RankCacheEnabled bool   `koanf:"rank_cache_enabled"`

	// Evidence storage (S3-compatible)
	EvidenceBucketName      string `koanf:"evidence_bucket_name"`
	EvidenceAccessKeyID     string `koanf:"evidence_access_key_id"`
	EvidenceSecretAccessKey string `koanf:"evidence_secret_access_key"`
	EvidenceEndpoint        string `koanf:"evidence_endpoint"`
	EvidenceURLExpiryMin    int    `koanf:"evidence_url_expiry_minutes"`

	// Scoring calibration
	CalibrationFile string `koanf:"calibration_file"`

	// Sponsorship policy
	MaxSponsoredPerViewport int  `koanf:"max_sponsored_per_viewport"`
	MaxSponsoredPerCategory int  `koanf:"max_sponsored_per_category"`
	SponsorshipQualityFloor int  `koanf:"sponsorship_quality_floor"`
	DeduplicateSponsored    bool `koanf:"deduplicate_sponsored"`

	// Tracing
	TracingEnabled  bool    `koanf:"tracing_enabled"`
	TracingExporter string  `koanf:"tracing_exporter"`
	OTLPEndpoint    string  `koanf:"otlp_endpoint"`
	TracingSampling float64 `koanf:"tracing_sampling"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required")
	ErrInvalidPort         = errors.New("PORT must be a valid integer")
	ErrInvalidCacheTTL     = errors.New("CACHE_TTL_SECONDS must be > 0")
	ErrInvalidViewportCap  = errors.New("MAX_SPONSORED_PER_VIEWPORT must be >= 0")
	ErrInvalidCategoryCap  = errors.New("MAX_SPONSORED_PER_CATEGORY must be >= 0")
	ErrInvalidQualityFloor = errors.New("SPONSORSHIP_QUALITY_FLOOR must be between 0 and 100")
	ErrInvalidSampling     = errors.New("TRACING_SAMPLING must be between 0.0 and 1.0")
)

// Default values for non-secret configuration.
const (
	DefaultPort                    = 8080
	DefaultEnv                     = "development"
	DefaultCacheTTLSeconds         = 30
	DefaultEvidenceURLExpiryMin    = 10
	DefaultMaxSponsoredPerViewport = 3
	DefaultMaxSponsoredPerCategory = 2
	DefaultSponsorshipQualityFloor = 30
	DefaultTracingSampling         = 0.1
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	// Try ACCESSRANK_PORT first, then PORT for container platforms that set it
	port, portErr := getEnvIntOrDefaultMulti([]string{"ACCESSRANK_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	cacheTTL, ttlErr := getEnvIntOrDefault("CACHE_TTL_SECONDS", k.Int("cache_ttl_seconds"), DefaultCacheTTLSeconds)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	evidenceExpiry, expiryErr := getEnvIntOrDefault("EVIDENCE_URL_EXPIRY_MINUTES", k.Int("evidence_url_expiry_minutes"), DefaultEvidenceURLExpiryMin)
	if expiryErr != nil {
		loadErrs = append(loadErrs, expiryErr)
	}

	viewportCap, viewportErr := getEnvIntOrDefault("MAX_SPONSORED_PER_VIEWPORT", k.Int("max_sponsored_per_viewport"), DefaultMaxSponsoredPerViewport)
	if viewportErr != nil {
		loadErrs = append(loadErrs, viewportErr)
	}

	categoryCap, categoryErr := getEnvIntOrDefault("MAX_SPONSORED_PER_CATEGORY", k.Int("max_sponsored_per_category"), DefaultMaxSponsoredPerCategory)
	if categoryErr != nil {
		loadErrs = append(loadErrs, categoryErr)
	}

	qualityFloor, floorErr := getEnvIntOrDefault("SPONSORSHIP_QUALITY_FLOOR", k.Int("sponsorship_quality_floor"), DefaultSponsorshipQualityFloor)
	if floorErr != nil {
		loadErrs = append(loadErrs, floorErr)
	}

	sampling, samplingErr := getEnvFloatOrDefault("TRACING_SAMPLING", k.Float64("tracing_sampling"), DefaultTracingSampling)
	if samplingErr != nil {
		loadErrs = append(loadErrs, samplingErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:               port,
		Env:                getEnvOrDefaultMulti([]string{"ACCESSRANK_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		CORSAllowedOrigins: getEnvCSV("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),

		DatabaseURL: getEnvOrKoanf("DATABASE_URL", k, "database_url"),

		RedisURL:         getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CacheTTLSeconds:  cacheTTL,
		RankCacheEnabled: getEnvBool("RANK_CACHE_ENABLED", k, "rank_cache_enabled", false),

		EvidenceBucketName:      getEnvOrKoanf("EVIDENCE_BUCKET_NAME", k, "evidence_bucket_name"),
		EvidenceAccessKeyID:     getEnvOrKoanf("EVIDENCE_ACCESS_KEY_ID", k, "evidence_access_key_id"),
		EvidenceSecretAccessKey: getEnvOrKoanf("EVIDENCE_SECRET_ACCESS_KEY", k, "evidence_secret_access_key"),
		EvidenceEndpoint:        getEnvOrKoanf("EVIDENCE_ENDPOINT", k, "evidence_endpoint"),
		EvidenceURLExpiryMin:    evidenceExpiry,

		CalibrationFile: getEnvOrKoanf("CALIBRATION_FILE", k, "calibration_file"),

		MaxSponsoredPerViewport: viewportCap,
		MaxSponsoredPerCategory: categoryCap,
		SponsorshipQualityFloor: qualityFloor,
		DeduplicateSponsored:    getEnvBool("DEDUPLICATE_SPONSORED", k, "deduplicate_sponsored", false),

		TracingEnabled:  getEnvBool("TRACING_ENABLED", k, "tracing_enabled", false),
		TracingExporter: getEnvOrDefault("TRACING_EXPORTER", k.String("tracing_exporter"), "otlp-http"),
		OTLPEndpoint:    getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		TracingSampling: sampling,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks that all required configuration values are present and
// that policy values are within range. Returns a slice of validation errors
// (empty if valid). Called once at startup so configuration problems fail
// loudly before the first request.
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.CacheTTLSeconds <= 0 {
		errs = append(errs, ErrInvalidCacheTTL)
	}
	if c.MaxSponsoredPerViewport < 0 {
		errs = append(errs, ErrInvalidViewportCap)
	}
	if c.MaxSponsoredPerCategory < 0 {
		errs = append(errs, ErrInvalidCategoryCap)
	}
	if c.SponsorshipQualityFloor < 0 || c.SponsorshipQualityFloor > 100 {
		errs = append(errs, ErrInvalidQualityFloor)
	}
	if c.TracingSampling < 0 || c.TracingSampling > 1 {
		errs = append(errs, ErrInvalidSampling)
	}

	return errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvCSV returns the environment variable split on commas if set,
// otherwise the koanf string slice. Empty entries are dropped.
func getEnvCSV(envKey string, k *koanf.Koanf, koanfKey string) []string {
	var raw []string
	if val := os.Getenv(envKey); val != "" {
		raw = strings.Split(val, ",")
	} else {
		raw = k.Strings(koanfKey)
	}

	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvBool returns the environment variable as bool if set, otherwise the
// koanf value, or the default. Env values accept true/1/yes/on and
// false/0/no/off; anything else keeps the fallback.
func getEnvBool(envKey string, k *koanf.Koanf, koanfKey string, defaultVal bool) bool {
	result := defaultVal
	if k.Exists(koanfKey) {
		result = k.Bool(koanfKey)
	}
	if val := os.Getenv(envKey); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			result = true
		case "false", "0", "no", "off":
			result = false
		}
	}
	return result
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// LogSummary returns a map of configuration values safe for logging.
// Secrets are masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                       fmt.Sprintf("%d", c.Port),
		"env":                        c.Env,
		"cors_allowed_origins":       strings.Join(c.CORSAllowedOrigins, ","),
		"database_url":               maskDatabaseURL(c.DatabaseURL),
		"redis_url":                  maskDatabaseURL(c.RedisURL),
		"rank_cache_enabled":         fmt.Sprintf("%t", c.RankCacheEnabled),
		"cache_ttl_seconds":          fmt.Sprintf("%d", c.CacheTTLSeconds),
		"evidence_bucket_name":       c.EvidenceBucketName,
		"evidence_access_key_id":     maskSecret(c.EvidenceAccessKeyID),
		"evidence_secret_access_key": maskSecret(c.EvidenceSecretAccessKey),
		"evidence_endpoint":          c.EvidenceEndpoint,
		"calibration_file":           c.CalibrationFile,
		"max_sponsored_per_viewport": fmt.Sprintf("%d", c.MaxSponsoredPerViewport),
		"max_sponsored_per_category": fmt.Sprintf("%d", c.MaxSponsoredPerCategory),
		"sponsorship_quality_floor":  fmt.Sprintf("%d", c.SponsorshipQualityFloor),
		"deduplicate_sponsored":      fmt.Sprintf("%t", c.DeduplicateSponsored),
		"tracing_enabled":            fmt.Sprintf("%t", c.TracingEnabled),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostPart := rest[atIndex:]
	return scheme + user + ":****" + hostPart
}

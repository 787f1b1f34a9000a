package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Cache driver names.
const (
	DriverS3     = "s3"
	DriverRedis  = "redis"
	DriverFS     = "fs"
	DriverMemory = "memory"
)

// Config holds the print service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Print     PrintConfig     `yaml:"print"`
	TrialsAPI TrialsAPIConfig `yaml:"trials_api"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// TracingConfig selects the OpenTelemetry span exporter.
type TracingConfig struct {
	Exporter    string  `yaml:"exporter"`     // none, stdout (default: none)
	SampleRatio float64 `yaml:"sample_ratio"` // 0 or 1 = sample everything
}

// AuthConfig holds optional API keys for the generate endpoint. Empty disables the check.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	BasePath        string `yaml:"base_path"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// PrintConfig holds page generation settings.
type PrintConfig struct {
	DefaultNewSearchLink string `yaml:"default_new_search_link"`
	DisplayURLFormat     string `yaml:"display_url_format"`
	TemplatePath         string `yaml:"template_path"` // empty = embedded template
}

// TrialsAPIConfig holds clinical trials API settings.
type TrialsAPIConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CacheConfig selects and configures the page store.
type CacheConfig struct {
	Driver string      `yaml:"driver"` // s3, redis, fs, memory (default: s3)
	S3     S3Config    `yaml:"s3"`
	Redis  RedisConfig `yaml:"redis"`
	FS     FSConfig    `yaml:"fs"`
}

// S3Config holds S3 bucket settings. Empty credentials use the default AWS chain.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// FSConfig holds filesystem store settings.
type FSConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands environment variables, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.BasePath == "" {
		c.HTTP.BasePath = "/CTS.Print"
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Print.DisplayURLFormat == "" {
		c.Print.DisplayURLFormat = c.HTTP.BasePath + "/Display?printid=%s"
	}
	if c.TrialsAPI.TimeoutSec <= 0 {
		c.TrialsAPI.TimeoutSec = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverS3
	}
	if c.Cache.S3.Region == "" {
		c.Cache.S3.Region = "us-east-1"
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = "ctsprint:"
	}
	if c.Cache.Redis.ReadinessTimeout <= 0 {
		c.Cache.Redis.ReadinessTimeout = 10
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !strings.HasPrefix(c.HTTP.BasePath, "/") || strings.HasSuffix(c.HTTP.BasePath, "/") {
		return fmt.Errorf("http.base_path must start with \"/\" and not end with one, got %q", c.HTTP.BasePath)
	}
	if c.TrialsAPI.BaseURL == "" {
		return fmt.Errorf("trials_api.base_url is required")
	}
	f := c.Print.DisplayURLFormat
	if strings.Count(f, "%s") != 1 || strings.Count(f, "%") != 1 {
		return fmt.Errorf("print.display_url_format must contain exactly one %%s, got %q", f)
	}

	if c.Tracing.Exporter != "none" && c.Tracing.Exporter != "stdout" {
		return fmt.Errorf("tracing.exporter must be none or stdout, got %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", c.Tracing.SampleRatio)
	}

	switch c.Cache.Driver {
	case DriverS3:
		if c.Cache.S3.Bucket == "" {
			return fmt.Errorf("cache.s3.bucket is required for the s3 driver")
		}
	case DriverRedis:
		if len(c.Cache.Redis.Addrs) == 0 {
			return fmt.Errorf("cache.redis.addrs is required for the redis driver")
		}
	case DriverFS:
		if c.Cache.FS.Dir == "" {
			return fmt.Errorf("cache.fs.dir is required for the fs driver")
		}
	case DriverMemory:
		// ok
	default:
		return fmt.Errorf("cache.driver must be one of s3, redis, fs, memory, got %q", c.Cache.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

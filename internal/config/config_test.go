package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		TrialsAPI: TrialsAPIConfig{BaseURL: "https://clinicaltrialsapi.cancer.gov/api/v2/"},
		Cache:     CacheConfig{S3: S3Config{Bucket: "print-pages"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingTrialsAPIBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.TrialsAPI.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing trials api base url")
	}
}

func TestValidate_BasePath(t *testing.T) {
	for _, p := range []string{"CTS.Print", "/CTS.Print/"} {
		cfg := validConfig()
		cfg.HTTP.BasePath = p
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for base_path %q", p)
		}
	}
}

func TestValidate_DisplayURLFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"/CTS.Print/Display?printid=%s", true},
		{"https://www.cancer.gov/CTS.Print/Display?printid=%s", true},
		{"/CTS.Print/Display", false},
		{"/p/%s/%s", false},
		{"/p/%d", false},
		{"/p/%s?x=100%", false},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			cfg := validConfig()
			cfg.Print.DisplayURLFormat = tc.format
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidate_Tracing(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		ratio    float64
		valid    bool
	}{
		{"none", "none", 0, true},
		{"stdout half sampled", "stdout", 0.5, true},
		{"otlp unsupported", "otlp", 1, false},
		{"ratio above one", "stdout", 1.5, false},
		{"negative ratio", "stdout", -0.1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Tracing = TracingConfig{Exporter: tc.exporter, SampleRatio: tc.ratio}
			if err := cfg.Validate(); (err == nil) != tc.valid {
				t.Errorf("Validate() = %v, valid = %v", err, tc.valid)
			}
		})
	}
}

func TestValidate_DriverRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"s3 without bucket", func(c *Config) { c.Cache.S3.Bucket = "" }, "cache.s3.bucket"},
		{"redis without addrs", func(c *Config) { c.Cache.Driver = DriverRedis }, "cache.redis.addrs"},
		{"fs without dir", func(c *Config) { c.Cache.Driver = DriverFS }, "cache.fs.dir"},
		{"unknown driver", func(c *Config) { c.Cache.Driver = "dynamodb" }, "cache.driver"},
		{"memory", func(c *Config) { c.Cache.Driver = DriverMemory }, ""},
		{"redis with addrs", func(c *Config) {
			c.Cache.Driver = DriverRedis
			c.Cache.Redis.Addrs = []string{"localhost:6379"}
		}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.HTTP.BasePath != "/CTS.Print" {
		t.Errorf("expected BasePath=/CTS.Print, got %q", cfg.HTTP.BasePath)
	}
	if cfg.Print.DisplayURLFormat != "/CTS.Print/Display?printid=%s" {
		t.Errorf("unexpected DisplayURLFormat %q", cfg.Print.DisplayURLFormat)
	}
	if cfg.Cache.Driver != DriverS3 {
		t.Errorf("expected Driver=s3, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.S3.Region != "us-east-1" {
		t.Errorf("expected Region=us-east-1, got %q", cfg.Cache.S3.Region)
	}
	if cfg.Cache.Redis.KeyPrefix != "ctsprint:" {
		t.Errorf("expected KeyPrefix='ctsprint:', got %q", cfg.Cache.Redis.KeyPrefix)
	}
	if cfg.TrialsAPI.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.TrialsAPI.TimeoutSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5, BasePath: "/print"},
		Cache: CacheConfig{Driver: DriverFS, Redis: RedisConfig{KeyPrefix: "custom:"}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Print.DisplayURLFormat != "/print/Display?printid=%s" {
		t.Errorf("display format should follow base path, got %q", cfg.Print.DisplayURLFormat)
	}
	if cfg.Cache.Driver != DriverFS {
		t.Errorf("expected Driver=fs, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.Redis.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Cache.Redis.KeyPrefix)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("CTS_TEST_BUCKET", "from-env")
	data := []byte(`
http:
  port: 5000
trials_api:
  base_url: ${CTS_TEST_API:-https://example.org/api/v2/}
cache:
  s3:
    bucket: ${CTS_TEST_BUCKET}
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Cache.S3.Bucket != "from-env" {
		t.Errorf("bucket = %q", cfg.Cache.S3.Bucket)
	}
	if cfg.TrialsAPI.BaseURL != "https://example.org/api/v2/" {
		t.Errorf("base_url = %q", cfg.TrialsAPI.BaseURL)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.Cache.Driver != DriverMemory && cfg.Cache.Driver != DriverFS {
		t.Errorf("local driver = %q", cfg.Cache.Driver)
	}
}

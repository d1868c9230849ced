// Package config loads passhash runtime configuration.
//
// Values are resolved in increasing order of precedence: built-in defaults,
// the optional config file (any format viper reads: yaml, json, toml, ...),
// then environment variables prefixed with PASSHASH_. Keys nest with
// underscores in the environment, so hashing.bcrypt_cost is read from
// PASSHASH_HASHING_BCRYPT_COST. A .env file in the working directory is
// loaded into the environment first when present.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hasbyte1/passhash/hashing"
	"github.com/hasbyte1/passhash/instrument"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PASSHASH"

// ErrInvalidConfig wraps every validation failure reported by [Config.Validate].
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Hashing   HashingConfig   `mapstructure:"hashing"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// HTTPConfig configures the HTTP adapter.
type HTTPConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	APITokens       []string      `mapstructure:"api_tokens"`
}

// HashingConfig selects the default driver and its parameters.
type HashingConfig struct {
	Driver     string       `mapstructure:"driver"`
	BcryptCost int          `mapstructure:"bcrypt_cost"`
	Argon2     Argon2Config `mapstructure:"argon2"`
}

// Argon2Config holds Argon2id parameters. Memory is in KiB.
type Argon2Config struct {
	Memory  uint32 `mapstructure:"memory"`
	Time    uint32 `mapstructure:"time"`
	Threads uint8  `mapstructure:"threads"`
	KeyLen  uint32 `mapstructure:"key_len"`
}

// WorkerConfig sizes the worker pool.
type WorkerConfig struct {
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Secure          bool          `mapstructure:"secure"`
	ServiceName     string        `mapstructure:"service_name"`
	Environment     string        `mapstructure:"environment"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
}

// Log output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

func defaults() map[string]any {
	return map[string]any{
		"http.address":          ":8080",
		"http.read_timeout":     10 * time.Second,
		"http.write_timeout":    30 * time.Second,
		"http.shutdown_timeout": 15 * time.Second,
		"http.max_body_bytes":   int64(4 << 10),
		"http.cors_origins":     []string{},
		"http.api_tokens":       []string{},

		"hashing.driver":         string(hashing.DriverBcrypt),
		"hashing.bcrypt_cost":    hashing.DefaultCost,
		"hashing.argon2.memory":  hashing.DefaultArgon2Memory,
		"hashing.argon2.time":    hashing.DefaultArgon2Time,
		"hashing.argon2.threads": hashing.DefaultArgon2Threads,
		"hashing.argon2.key_len": hashing.DefaultArgon2KeyLen,

		"worker.pool_size": runtime.NumCPU(),
		"worker.timeout":   5 * time.Second,

		"log.level":  "info",
		"log.format": FormatJSON,

		"telemetry.enabled":          false,
		"telemetry.endpoint":         "localhost:4317",
		"telemetry.secure":           false,
		"telemetry.service_name":     "passhash",
		"telemetry.environment":      "development",
		"telemetry.sample_ratio":     1.0,
		"telemetry.metrics_interval": instrument.DefaultMetricsInterval,
	}
}

// Validate reports every out-of-range value at once, each wrapped in
// [ErrInvalidConfig].
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(c.HTTP.Address) == "" {
		fail("http.address must not be empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		fail("http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}

	switch hashing.DriverName(c.Hashing.Driver) {
	case hashing.DriverBcrypt, hashing.DriverArgon2id:
	default:
		fail("hashing.driver %q is not one of bcrypt, argon2id", c.Hashing.Driver)
	}
	if _, err := hashing.NewBcryptHasher(c.Hashing.BcryptOptions()); err != nil {
		fail("hashing.bcrypt_cost: %v", err)
	}
	if _, err := hashing.NewArgon2idHasher(c.Hashing.Argon2Options()); err != nil {
		fail("hashing.argon2: %v", err)
	}

	if c.Worker.PoolSize < 1 {
		fail("worker.pool_size must be positive, got %d", c.Worker.PoolSize)
	}
	if c.Worker.Timeout < 0 {
		fail("worker.timeout must not be negative, got %s", c.Worker.Timeout)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		fail("log.level: %v", err)
	}
	if c.Log.Format != FormatConsole && c.Log.Format != FormatJSON {
		fail("log.format %q is not one of console, json", c.Log.Format)
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		fail("telemetry.endpoint is required when telemetry is enabled")
	}

	return errors.Join(errs...)
}

// BcryptOptions converts the bcrypt settings for [hashing.NewBcryptHasher].
func (h HashingConfig) BcryptOptions() hashing.BcryptOptions {
	return hashing.BcryptOptions{Cost: h.BcryptCost}
}

// Argon2Options converts the Argon2id settings for [hashing.NewArgon2idHasher].
func (h HashingConfig) Argon2Options() hashing.Argon2Options {
	return hashing.Argon2Options{
		Memory:  h.Argon2.Memory,
		Time:    h.Argon2.Time,
		Threads: h.Argon2.Threads,
		KeyLen:  h.Argon2.KeyLen,
	}
}

// Instrument converts the telemetry settings for [instrument.New].
func (t TelemetryConfig) Instrument(version string) *instrument.Config {
	return &instrument.Config{
		Enabled:          t.Enabled,
		ServiceName:      t.ServiceName,
		ServiceVersion:   version,
		Environment:      t.Environment,
		OTLPEndpoint:     t.Endpoint,
		OTLPSecure:       t.Secure,
		TraceSampleRatio: t.SampleRatio,
		MetricsInterval:  t.MetricsInterval,
	}
}

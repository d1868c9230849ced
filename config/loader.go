package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is loaded by [NewLoader] when no env files are named.
const DefaultEnvFile = ".env"

// ErrNoConfigFile is returned by [Loader.Watch] when no config file was given.
var ErrNoConfigFile = errors.New("config: no config file to watch")

// Loader resolves a [Config] from defaults, a config file and the environment.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader loads envFiles into the process environment, then reads the
// config file at path. An empty path skips the file. With no envFiles,
// [DefaultEnvFile] is loaded if it exists. Variables already set in the
// environment are never overwritten by an env file.
func NewLoader(path string, envFiles ...string) (*Loader, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	return &Loader{v: v, path: path}, nil
}

// Config decodes and validates the current values.
func (l *Loader) Config() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch calls fn with the re-decoded configuration every time the config
// file changes. fn receives a nil Config and the error when the new file does
// not decode or validate; the previous configuration should stay in effect.
func (l *Loader) Watch(fn func(*Config, error)) error {
	if l.path == "" {
		return ErrNoConfigFile
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		fn(l.Config())
	})
	l.v.WatchConfig()
	return nil
}

// Load is shorthand for NewLoader(path) followed by [Loader.Config].
func Load(path string) (*Config, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Config()
}

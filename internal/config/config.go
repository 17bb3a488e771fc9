// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads dictserv configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ianlewis/go-dictserv/corpus"
	"github.com/ianlewis/go-dictserv/internal/folding"
)

// ErrInvalid indicates an invalid configuration value.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "DICTSERV_"

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Echo    EchoConfig    `yaml:"echo"`
	Corpus  CorpusConfig  `yaml:"corpus"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds dictionary server settings.
type ServerConfig struct {
	Address string `yaml:"address"`

	// ReadTimeout bounds each read from a client. Zero waits forever.
	ReadTimeout time.Duration `yaml:"readTimeout"`

	// BufferSize is the maximum size of a single request.
	BufferSize int `yaml:"bufferSize"`
}

// EchoConfig holds echo server settings.
type EchoConfig struct {
	Address     string        `yaml:"address"`
	ReadTimeout time.Duration `yaml:"readTimeout"`
	BufferSize  int           `yaml:"bufferSize"`
}

// CorpusConfig describes the dictionary corpus.
type CorpusConfig struct {
	// Path is the corpus file. When empty the default locations are searched.
	Path string `yaml:"path"`

	Encoding      string `yaml:"encoding"`
	CommentPrefix string `yaml:"commentPrefix"`
	SkipMalformed bool   `yaml:"skipMalformed"`

	// Fold is a comma separated list of key folders.
	Fold string `yaml:"fold"`

	RenderHTML bool `yaml:"renderHTML"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Address serves /metrics when set.
	Address string `yaml:"address"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:    "127.0.0.1:1178",
			BufferSize: 1024,
		},
		Echo: EchoConfig{
			Address:    "127.0.0.1:22222",
			BufferSize: 256,
		},
		Corpus: CorpusConfig{
			Encoding:      corpus.SKKEncoding,
			CommentPrefix: ";;",
			Fold:          "none",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML config file at path, if path is not empty, on top of the
// defaults and then applies DICTSERV_* environment overrides.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":        &cfg.Server.Address,
		"ECHO_ADDRESS":          &cfg.Echo.Address,
		"CORPUS_PATH":           &cfg.Corpus.Path,
		"CORPUS_ENCODING":       &cfg.Corpus.Encoding,
		"CORPUS_COMMENT_PREFIX": &cfg.Corpus.CommentPrefix,
		"CORPUS_FOLD":           &cfg.Corpus.Fold,
		"LOGGING_LEVEL":         &cfg.Logging.Level,
		"LOGGING_FORMAT":        &cfg.Logging.Format,
		"METRICS_ADDRESS":       &cfg.Metrics.Address,
	}
	for name, p := range strs {
		if v := getenv(EnvPrefix + name); v != "" {
			*p = v
		}
	}

	durations := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT": &cfg.Server.ReadTimeout,
		"ECHO_READ_TIMEOUT":   &cfg.Echo.ReadTimeout,
	}
	for name, p := range durations {
		if v := getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %w", ErrInvalid, EnvPrefix, name, err)
			}
			*p = d
		}
	}

	ints := map[string]*int{
		"SERVER_BUFFER_SIZE": &cfg.Server.BufferSize,
		"ECHO_BUFFER_SIZE":   &cfg.Echo.BufferSize,
	}
	for name, p := range ints {
		if v := getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %w", ErrInvalid, EnvPrefix, name, err)
			}
			*p = n
		}
	}

	bools := map[string]*bool{
		"CORPUS_SKIP_MALFORMED": &cfg.Corpus.SkipMalformed,
		"CORPUS_RENDER_HTML":    &cfg.Corpus.RenderHTML,
	}
	for name, p := range bools {
		if v := getenv(EnvPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %w", ErrInvalid, EnvPrefix, name, err)
			}
			*p = b
		}
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.bufferSize must be positive: %d", ErrInvalid, c.Server.BufferSize))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: server.readTimeout is negative", ErrInvalid))
	}
	if c.Echo.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: echo.bufferSize must be positive: %d", ErrInvalid, c.Echo.BufferSize))
	}
	if c.Echo.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: echo.readTimeout is negative", ErrInvalid))
	}
	if _, err := corpus.LookupEncoding(c.Corpus.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("%w: corpus.encoding: %w", ErrInvalid, err))
	}
	if _, err := folding.Named(c.Corpus.Fold); err != nil {
		errs = append(errs, fmt.Errorf("%w: corpus.fold: %w", ErrInvalid, err))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format: %q", ErrInvalid, c.Logging.Format))
	}
	return errors.Join(errs...)
}

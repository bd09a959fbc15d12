// Package config loads promptbench settings. Precedence, lowest first:
// built-in defaults, the TOML file, PROMPTBENCH_* environment variables, and
// finally command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/papercomputeco/promptbench/pkg/sampler"
)

// EnvPrefix prefixes every environment override, e.g. PROMPTBENCH_ENDPOINT_URL.
const EnvPrefix = "PROMPTBENCH"

// DefaultPath is the config file read when none is given.
const DefaultPath = "promptbench.toml"

// Config is the root configuration.
type Config struct {
	Endpoint Endpoint          `toml:"endpoint" envconfig:"endpoint"`
	Run      Run               `toml:"run" envconfig:"run"`
	Sampler  sampler.Positions `toml:"sampler" ignored:"true"`
	Archive  Archive           `toml:"archive" envconfig:"archive"`
	Server   Server            `toml:"server" envconfig:"server"`
	Debug    bool              `toml:"debug" envconfig:"debug"`
}

// Endpoint describes the generation server.
type Endpoint struct {
	URL       string   `toml:"url" envconfig:"url"`
	Token     string   `toml:"token" envconfig:"token"`
	Timeout   Duration `toml:"timeout" envconfig:"timeout"`
	MaxLength int      `toml:"max_length" envconfig:"max_length"`
}

// Run holds per-invocation defaults.
type Run struct {
	Template       string `toml:"template" envconfig:"template"`
	OutputPrefix   string `toml:"output_prefix" envconfig:"output_prefix"`
	AttachEncoding string `toml:"attach_encoding" envconfig:"attach_encoding"`
}

// Archive configures the run archive. An empty path disables it.
type Archive struct {
	Path string `toml:"path" envconfig:"path"`
}

// Server configures the HTTP shell.
type Server struct {
	ListenAddr string `toml:"listen" envconfig:"listen"`

	// OutputDir confines the artifact prefixes HTTP callers may request.
	// Empty disables artifact writing over HTTP.
	OutputDir string `toml:"output_dir" envconfig:"output_dir"`
}

// Duration is a time.Duration that decodes from strings like "90s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint: Endpoint{
			URL:       "http://localhost:5001",
			Timeout:   Duration{5 * time.Minute},
			MaxLength: 1000,
		},
		Run: Run{
			Template:       "ChatML",
			AttachEncoding: "base64",
		},
		Server: Server{
			ListenAddr: "127.0.0.1:8080",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error when path is DefaultPath or empty.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != "" && path != DefaultPath
	if path == "" {
		path = DefaultPath
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	return cfg, nil
}

// Usage prints the supported environment variables.
func Usage() error {
	cfg := Default()
	return envconfig.Usage(EnvPrefix, &cfg)
}

package tui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for the terminal client.
const (
	DefaultAPIURL  = "http://localhost:3000"
	DefaultTimeout = 10 * time.Second
	DefaultLogFile = "simpletodo-tui.log"
)

// Duration is a time.Duration read from a TOML string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the terminal client's configuration file.
type Config struct {
	APIURL  string   `toml:"api_url"`
	Timeout Duration `toml:"timeout"`
	LogFile string   `toml:"log_file"`
}

func setDefaults(cfg *Config) {
	cfg.APIURL = DefaultAPIURL
	cfg.Timeout = Duration{DefaultTimeout}
	cfg.LogFile = DefaultLogFile
}

// DefaultConfigPath returns simpletodo/config.toml under the user config dir.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "simpletodo", "config.toml")
}

// LoadConfig reads defaults, then the TOML file at path, then the
// TODO_API_URL and TODO_TUI_LOG environment variables. An empty path means
// DefaultConfigPath, which may be absent; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	setDefaults(&cfg)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("TODO_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TODO_TUI_LOG"); v != "" {
		cfg.LogFile = v
	}
	if cfg.Timeout.Duration <= 0 {
		cfg.Timeout = Duration{DefaultTimeout}
	}
	return cfg, nil
}

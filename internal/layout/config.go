package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config carries the tunable settings for upstream sources and the on-disk
// layout. Every field is optional in the config file; missing values fall
// back to the defaults below.
type Config struct {
	// Platform is the target triple used to select CPython assets,
	// e.g. "x86_64-unknown-linux-gnu".
	Platform string `yaml:"platform"`
	DataDir  string `yaml:"data_dir"`
	CacheDir string `yaml:"cache_dir"`

	CPython CPythonConfig `yaml:"cpython"`
	PyPy    PyPyConfig    `yaml:"pypy"`
}

// CPythonConfig configures the python-build-standalone release source.
type CPythonConfig struct {
	ReleasesURL string `yaml:"releases_url"`
}

// PyPyConfig configures the PyPy download index.
type PyPyConfig struct {
	IndexURL    string `yaml:"index_url"`
	DownloadURL string `yaml:"download_url"`
}

const (
	defaultReleasesURL     = "https://api.github.com/repos/indygreg/python-build-standalone/releases?per_page=100"
	defaultPyPyIndexURL    = "https://www.pypy.org/download.html"
	defaultPyPyDownloadURL = "https://downloads.python.org/pypy/"
)

// DefaultConfigPath returns the canonical config file location,
// e.g. ~/.config/lilyenv/config.yaml.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting config directory: %w", err)
	}
	return filepath.Join(configDir, "lilyenv", "config.yaml"), nil
}

// LoadConfig reads the config file at path and fills in defaults for any
// unset field. A missing file is not an error; it yields the full defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Platform == "" {
		cfg.Platform = defaultPlatform()
	}
	if cfg.DataDir == "" {
		dir, err := userDataDir()
		if err != nil {
			return err
		}
		cfg.DataDir = filepath.Join(dir, "lilyenv")
	}
	if cfg.CacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("getting cache directory: %w", err)
		}
		cfg.CacheDir = filepath.Join(dir, "lilyenv")
	}
	if cfg.CPython.ReleasesURL == "" {
		cfg.CPython.ReleasesURL = defaultReleasesURL
	}
	if cfg.PyPy.IndexURL == "" {
		cfg.PyPy.IndexURL = defaultPyPyIndexURL
	}
	if cfg.PyPy.DownloadURL == "" {
		cfg.PyPy.DownloadURL = defaultPyPyDownloadURL
	}
	return nil
}

func userDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}

func defaultPlatform() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	default:
		return arch + "-unknown-linux-gnu"
	}
}

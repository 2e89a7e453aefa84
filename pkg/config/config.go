// Package config loads souvchat settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SouvikSarkar080505/image-bot/pkg/gemini"
)

// APIKeyEnv overrides api_key from the config file.
const APIKeyEnv = "GEMINI_API_KEY"

const (
	DefaultListen = "localhost:8080"
	dirName       = ".souvchat"
	fileName      = "config.toml"
)

// Duration is a time.Duration that decodes from strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the souvchat configuration.
type Config struct {
	// APIKey is the Gemini API credential. GEMINI_API_KEY takes precedence.
	APIKey string `toml:"api_key"`

	// BaseURL, Model, Prompt and Timeout configure the analysis call.
	BaseURL string   `toml:"base_url"`
	Model   string   `toml:"model"`
	Prompt  string   `toml:"prompt"`
	Timeout Duration `toml:"timeout"`

	// Listen is the address for `souvchat serve`.
	Listen string `toml:"listen"`

	// DropDir, when set, is watched for images to attach in the terminal chat.
	DropDir string `toml:"drop_dir"`

	// LogFile receives logs from the terminal chat, which owns stdout.
	LogFile string `toml:"log_file"`

	Debug bool `toml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL: gemini.DefaultBaseURL,
		Model:   gemini.DefaultModel,
		Prompt:  gemini.DefaultPrompt,
		Timeout: Duration{gemini.DefaultTimeout},
		Listen:  DefaultListen,
	}
}

// DefaultPath returns $HOME/.souvchat/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Load reads the config at path over the defaults. An empty path means
// DefaultPath, which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("could not load config %s: %w", path, err)
	}

	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Timeout.Duration < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url %q must be an http(s) URL", c.BaseURL)
	}
	return nil
}

// Gemini returns the analysis client configuration.
func (c *Config) Gemini() gemini.Config {
	return gemini.Config{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Prompt:  c.Prompt,
		Timeout: c.Timeout.Duration,
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.counsel/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	Client         Client `toml:"client"`
	Server         Server `toml:"server"`
}

// Client configures the chat client (TUI and counselctl).
type Client struct {
	BaseURL        string   `toml:"base_url"`
	Token          string   `toml:"token"`
	UserID         string   `toml:"user_id"`
	PollInterval   Duration `toml:"poll_interval"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Server configures the counseld dev backend.
type Server struct {
	Listen         string   `toml:"listen"`
	JWTSecret      string   `toml:"jwt_secret"`
	TokenTTL       Duration `toml:"token_ttl"`
	SendRate       float64  `toml:"send_rate"`
	SendBurst      int      `toml:"send_burst"`
	PresenceWindow Duration `toml:"presence_window"`
}

// Duration is a time.Duration written as a Go duration string ("5s").
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

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Client: Client{
			BaseURL:        "http://127.0.0.1:8787",
			PollInterval:   Duration{5 * time.Second},
			RequestTimeout: Duration{10 * time.Second},
		},
		Server: Server{
			Listen:         "127.0.0.1:8787",
			TokenTTL:       Duration{720 * time.Hour},
			SendRate:       2,
			SendBurst:      5,
			PresenceWindow: Duration{30 * time.Second},
		},
	}
}

// Load reads config from the given path on top of Default. Returns nil and
// an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ValidateClient checks the settings the chat client needs.
func (c *Config) ValidateClient() error {
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("client.base_url %q is not an http(s) URL", c.Client.BaseURL)
	}
	if c.Client.PollInterval.Duration <= 0 {
		return fmt.Errorf("client.poll_interval must be positive")
	}
	if c.Client.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("client.request_timeout must be positive")
	}
	return nil
}

// ValidateServer checks the settings counseld needs.
func (c *Config) ValidateServer() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is empty")
	}
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is empty")
	}
	if c.Server.TokenTTL.Duration < 0 {
		return fmt.Errorf("server.token_ttl must not be negative")
	}
	if c.Server.PresenceWindow.Duration <= 0 {
		return fmt.Errorf("server.presence_window must be positive")
	}
	return nil
}

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// relayEnv overrides the configured relay address.
const relayEnv = "PARLEY_RELAY"

// Config holds runtime wiring options for building the app.
type Config struct {
	// RelayURL is the relay base address, e.g. ws://127.0.0.1:8080.
	RelayURL string `toml:"relay"`
	// HandshakeTimeout bounds the key exchange.
	HandshakeTimeout Duration `toml:"handshake_timeout"`
	// LogFile receives diagnostics; empty means stderr.
	LogFile string `toml:"log_file"`
	// LogLevel is one of the go-logging level names, e.g. INFO.
	LogLevel string `toml:"log_level"`
	// Debug raises the log level to DEBUG regardless of LogLevel.
	Debug bool `toml:"debug"`
}

// Duration lets TOML carry values like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// DefaultConfigPath is ~/.parley/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".parley", "config.toml"), nil
}

// LoadConfig reads the TOML file at path if it exists, then applies the
// environment override. A missing file is not an error; flags are applied
// by the caller on top of what this returns.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		LogLevel: "INFO",
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if relay := os.Getenv(relayEnv); relay != "" {
		cfg.RelayURL = relay
	}
	if cfg.Debug {
		cfg.LogLevel = "DEBUG"
	}
	return cfg, nil
}

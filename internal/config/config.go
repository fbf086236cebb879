// Package config loads the optional YAML configuration file named by
// `--config` (spec.md §6). The only documented key is `iroh.secret_key`;
// a couple of ambient overrides ride alongside it.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the parsed shape of the YAML config file.
type Config struct {
	Iroh     IrohConfig     `yaml:"iroh"`
	Download DownloadConfig `yaml:"download"`
	Blob     BlobConfig     `yaml:"blob"`
}

// IrohConfig carries the persisted signing key.
type IrohConfig struct {
	// SecretKey is a hex-encoded 32-byte Ed25519 seed.
	SecretKey string `yaml:"secret_key"`
}

// DownloadConfig overrides where inline SendFile payloads land.
type DownloadConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// BlobConfig overrides the dedicated blob-transfer bind address.
type BlobConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Load reads and parses the YAML file at path. A missing file is not an
// error: it is equivalent to an empty Config, since every field is
// optional (spec.md §6 — the config file itself is optional).
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SecretKeySeed decodes the configured secret key into a raw 32-byte seed.
// Returns (nil, false) when no key is configured.
func (c *Config) SecretKeySeed() ([]byte, bool, error) {
	if c == nil || c.Iroh.SecretKey == "" {
		return nil, false, nil
	}
	seed, err := hex.DecodeString(c.Iroh.SecretKey)
	if err != nil {
		return nil, false, fmt.Errorf("config: iroh.secret_key is not valid hex: %w", err)
	}
	return seed, true, nil
}

// PersistSecretKey writes seed back into the YAML file at path, hex
// encoded, creating the file if it does not exist yet. Used so a freshly
// generated identity survives process restarts once a --config path has
// been named (spec.md §3: "may be loaded from a configuration file or
// generated fresh at startup").
func PersistSecretKey(path string, seed []byte) error {
	if path == "" {
		return nil
	}

	cfg, err := Load(path)
	if err != nil {
		return err
	}
	cfg.Iroh.SecretKey = hex.EncodeToString(seed)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

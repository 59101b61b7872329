package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`

	// Hex-encoded 20-byte accounts, 0x prefix optional.
	VaultAddress        string `toml:"VaultAddress"`
	ClaimingPoolAddress string `toml:"ClaimingPoolAddress"`
	AuthorityAddress    string `toml:"AuthorityAddress"`

	// Share ceilings in whole percentage points.
	MaxCreatorSharePoints int64 `toml:"MaxCreatorSharePoints"`
	MaxSharingSharePoints int64 `toml:"MaxSharingSharePoints"`

	PausedModules []string `toml:"PausedModules"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./podfin-data"
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:         ":8080",
		DataDir:               "./podfin-data",
		MaxCreatorSharePoints: 50,
		MaxSharingSharePoints: 30,
		PausedModules:         []string{},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ParseAddress decodes a hex account string into its 20-byte form. An empty
// string yields the zero address.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return addr, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("config: address %q is not hex: %w", s, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("config: address %q must be %d bytes", s, len(addr))
	}
	copy(addr[:], raw)
	return addr, nil
}

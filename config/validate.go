package config

import "fmt"

func Validate(cfg *Config) error {
	if cfg.MaxCreatorSharePoints < 0 || cfg.MaxCreatorSharePoints >= 100 {
		return fmt.Errorf("config: MaxCreatorSharePoints outside [0, 100)")
	}
	if cfg.MaxSharingSharePoints < 0 || cfg.MaxSharingSharePoints >= 100 {
		return fmt.Errorf("config: MaxSharingSharePoints outside [0, 100)")
	}
	if cfg.MaxCreatorSharePoints+cfg.MaxSharingSharePoints >= 100 {
		return fmt.Errorf("config: share ceilings must sum below 100%%")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"VaultAddress", cfg.VaultAddress},
		{"ClaimingPoolAddress", cfg.ClaimingPoolAddress},
		{"AuthorityAddress", cfg.AuthorityAddress},
	} {
		if _, err := ParseAddress(field.value); err != nil {
			return fmt.Errorf("config: %s: %w", field.name, err)
		}
	}
	for _, module := range cfg.PausedModules {
		switch module {
		case "stream", "auction":
		default:
			return fmt.Errorf("config: unknown module %q in PausedModules", module)
		}
	}
	return nil
}

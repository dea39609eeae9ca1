package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadGame loads the simulation tuning.
// Search order: customPath -> ~/.botrun/configs/game.yaml -> ./configs/game.yaml -> embedded default
func LoadGame(customPath string) (GameConfig, error) {
	var cfg GameConfig
	if err := load(customPath, "game.yaml", defaultGameYAML, &cfg); err != nil {
		return DefaultGameConfig(), err
	}
	return cfg, nil
}

// LoadBots loads the bot roster.
// Search order: customPath -> ~/.botrun/configs/bots.yaml -> ./configs/bots.yaml -> embedded default
func LoadBots(customPath string) (BotsConfig, error) {
	var cfg BotsConfig
	if err := load(customPath, "bots.yaml", defaultBotsYAML, &cfg); err != nil {
		return DefaultBotsConfig(), err
	}
	return cfg, nil
}

// LoadEconomy loads the store catalog.
// Search order: customPath -> ~/.botrun/configs/economy.yaml -> ./configs/economy.yaml -> embedded default
func LoadEconomy(customPath string) (EconomyConfig, error) {
	var cfg EconomyConfig
	if err := load(customPath, "economy.yaml", defaultEconomyYAML, &cfg); err != nil {
		return DefaultEconomyConfig(), err
	}
	return cfg, nil
}

// load implements the common search order. An explicit customPath must parse;
// the fallback locations are best-effort and fall through to the embedded
// default YAML.
func load(customPath, filename string, embedded []byte, out any) error {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return fmt.Errorf("config: cannot read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("config: cannot parse %s: %w", customPath, err)
		}
		return nil
	}

	if userPath := userConfigPath(filename); userPath != "" {
		if data, err := os.ReadFile(userPath); err == nil {
			if err := yaml.Unmarshal(data, out); err == nil {
				return nil
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join("configs", filename)); err == nil {
		if err := yaml.Unmarshal(data, out); err == nil {
			return nil
		}
	}

	if err := yaml.Unmarshal(embedded, out); err != nil {
		return fmt.Errorf("config: embedded %s is invalid: %w", filename, err)
	}
	return nil
}

// userConfigPath returns the path to a user config file, or empty if home is
// unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".botrun", "configs", filename)
}

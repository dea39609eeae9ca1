// Package config provides YAML-based configuration loading for the run
// simulation, the bot roster, and the store catalog, plus environment
// overrides for deployment-level settings.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// GameConfig contains tuning for the run simulation.
type GameConfig struct {
	Physics PhysicsConfig `yaml:"physics"`
	Track   TrackConfig   `yaml:"track"`
	Rewards RewardsConfig `yaml:"rewards"`
}

// PhysicsConfig defines vertical movement parameters for bots.
type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`        // Cells per second^2, pulls down
	JumpImpulse  float64 `yaml:"jump_impulse"`   // Negative = upward
	MaxFallSpeed float64 `yaml:"max_fall_speed"` // Terminal velocity
	BaseSpeed    float64 `yaml:"base_speed"`     // Horizontal scroll, cells per second
}

// TrackConfig defines obstacle and collectible spawning parameters.
type TrackConfig struct {
	MinObstacleWidth  int `yaml:"min_obstacle_width"`
	MaxObstacleWidth  int `yaml:"max_obstacle_width"`
	MinObstacleHeight int `yaml:"min_obstacle_height"`
	MaxObstacleHeight int `yaml:"max_obstacle_height"`
	MinSpacing        int `yaml:"min_spacing"`
	MaxSpacing        int `yaml:"max_spacing"`
	CoinChance        int `yaml:"coin_chance"` // Percent chance a gap carries a coin row
	MaxCoinsPerRow    int `yaml:"max_coins_per_row"`
}

// RewardsConfig couples the simulation to the currency ledger.
type RewardsConfig struct {
	// ScoreRate is score points accrued per second of survival at base speed.
	// Score feeds the Primary balance 1:1; that coupling is a behavioral
	// contract, not a tuning knob.
	ScoreRate float64 `yaml:"score_rate"`
	// CoinValue is the flat Secondary grant per collectible picked up.
	CoinValue int `yaml:"coin_value"`
}

// BotConfig describes one entry of the bot roster.
type BotConfig struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Abilities   []string `yaml:"abilities"`
	SpeedFactor float64  `yaml:"speed_factor"` // Multiplier on base scroll speed
	Locked      bool     `yaml:"locked"`       // Locked bots need an unlock benefit
}

// BotsConfig is the full roster.
type BotsConfig struct {
	Bots []BotConfig `yaml:"bots"`
}

// ProductConfig maps a store product id to a benefit.
type ProductConfig struct {
	ID            string `yaml:"id"`
	Benefit       string `yaml:"benefit"` // remove_ads, grant_currency, unlock_bot, permanent_upgrade, season_pass
	Currency      string `yaml:"currency,omitempty"`
	Amount        int    `yaml:"amount,omitempty"`
	BotID         string `yaml:"bot_id,omitempty"`
	UpgradeID     string `yaml:"upgrade_id,omitempty"`
	DurationDays  int    `yaml:"duration_days,omitempty"`
	PriceUSDCents int    `yaml:"price_usd_cents"`
}

// EconomyConfig is the store catalog.
type EconomyConfig struct {
	Products []ProductConfig `yaml:"products"`
}

// Env holds deployment-level settings read from the environment.
// These override CLI flag defaults, not explicit flags.
type Env struct {
	DBPath     string `env:"BOTRUN_DB"`
	LogLevel   string `env:"BOTRUN_LOG_LEVEL" envDefault:"info"`
	SSHAddress string `env:"BOTRUN_SSH_ADDR"`
}

// LoadEnv parses environment overrides.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("config: cannot parse environment: %w", err)
	}
	return e, nil
}

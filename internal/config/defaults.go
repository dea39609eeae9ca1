package config

import (
	_ "embed"
)

//go:embed defaults/game.yaml
var defaultGameYAML []byte

//go:embed defaults/bots.yaml
var defaultBotsYAML []byte

//go:embed defaults/economy.yaml
var defaultEconomyYAML []byte

// DefaultGameConfig returns the default simulation tuning.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Physics: PhysicsConfig{
			Gravity:      40.0,
			JumpImpulse:  -16.0,
			MaxFallSpeed: 30.0,
			BaseSpeed:    24.0,
		},
		Track: TrackConfig{
			MinObstacleWidth:  1,
			MaxObstacleWidth:  3,
			MinObstacleHeight: 2,
			MaxObstacleHeight: 4,
			MinSpacing:        28,
			MaxSpacing:        48,
			CoinChance:        40,
			MaxCoinsPerRow:    4,
		},
		Rewards: RewardsConfig{
			ScoreRate: 10.0,
			CoinValue: 1,
		},
	}
}

// DefaultBotsConfig returns the default bot roster.
func DefaultBotsConfig() BotsConfig {
	return BotsConfig{
		Bots: []BotConfig{
			{ID: "scout", Name: "Scout", Abilities: []string{"double_jump", "speed_boost"}, SpeedFactor: 1.1},
			{ID: "guardian", Name: "Guardian", Abilities: []string{"shield", "double_jump"}, SpeedFactor: 0.9},
			{ID: "magnetron", Name: "Magnetron", Abilities: []string{"magnetic_field", "shield"}, SpeedFactor: 1.0, Locked: true},
		},
	}
}

// DefaultEconomyConfig returns the default store catalog.
func DefaultEconomyConfig() EconomyConfig {
	return EconomyConfig{
		Products: []ProductConfig{
			{ID: "remove_ads", Benefit: "remove_ads", PriceUSDCents: 299},
			{ID: "coins_small", Benefit: "grant_currency", Currency: "premium", Amount: 100, PriceUSDCents: 99},
			{ID: "coins_large", Benefit: "grant_currency", Currency: "premium", Amount: 650, PriceUSDCents: 499},
			{ID: "unlock_magnetron", Benefit: "unlock_bot", BotID: "magnetron", PriceUSDCents: 199},
			{ID: "upgrade_turbo", Benefit: "permanent_upgrade", UpgradeID: "turbo", PriceUSDCents: 399},
			{ID: "season_pass", Benefit: "season_pass", DurationDays: 30, PriceUSDCents: 999},
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsParse(t *testing.T) {
	game, err := LoadGame("")
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if game.Physics.Gravity <= 0 || game.Physics.BaseSpeed <= 0 {
		t.Errorf("game defaults look wrong: %+v", game.Physics)
	}
	if game.Rewards.ScoreRate <= 0 {
		t.Errorf("score rate must be positive, got %v", game.Rewards.ScoreRate)
	}

	bots, err := LoadBots("")
	if err != nil {
		t.Fatalf("LoadBots() failed: %v", err)
	}
	if len(bots.Bots) == 0 {
		t.Fatal("default roster is empty")
	}

	econ, err := LoadEconomy("")
	if err != nil {
		t.Fatalf("LoadEconomy() failed: %v", err)
	}
	if len(econ.Products) == 0 {
		t.Fatal("default catalog is empty")
	}
}

func TestLoadGameCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	yaml := `
physics:
  gravity: 55.0
  jump_impulse: -20.0
  max_fall_speed: 35.0
  base_speed: 30.0
rewards:
  score_rate: 5.0
  coin_value: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("cannot write test config: %v", err)
	}

	cfg, err := LoadGame(path)
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if cfg.Physics.Gravity != 55.0 {
		t.Errorf("gravity = %v, expected 55.0", cfg.Physics.Gravity)
	}
	if cfg.Rewards.CoinValue != 2 {
		t.Errorf("coin value = %v, expected 2", cfg.Rewards.CoinValue)
	}
}

func TestLoadGameMissingCustomPathFails(t *testing.T) {
	if _, err := LoadGame(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit custom path that does not exist should error")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BOTRUN_DB", "/tmp/custom.db")
	t.Setenv("BOTRUN_LOG_LEVEL", "debug")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv() failed: %v", err)
	}
	if env.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q", env.DBPath)
	}
	if env.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", env.LogLevel)
	}
}

// botrun is a terminal endless-runner with a full mobile-style meta game:
// a bot roster with cooldown-gated abilities, a three-currency economy,
// an ad frequency gate, and an idempotent purchase ledger.
//
// Usage:
//
//	botrun play              - Play in the local terminal
//	botrun serve             - Start SSH server for remote play
//	botrun bots              - List the bot roster
//	botrun scores            - Show the best runs
//	botrun balances          - Show wallet balances
//	botrun purchases         - Show the purchase ledger
//
// Global flags:
//
//	--fps <rate>    - Set tick rate (default: 60)
//	--seed <value>  - Set RNG seed for reproducible runs
//	--db <path>     - Set database path (default: ~/.botrun/botrun.db)
//	--log <level>   - Log level: debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/platform/tui"
	"github.com/unit4productions/botrun/internal/storage"
	"github.com/unit4productions/botrun/internal/telemetry"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagLogLevel   string
	flagConfigPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "botrun",
	Short: "botrun - endless runner with bots, abilities, and an economy",
	Long: `botrun is a terminal endless-runner. Pick a bot, dodge obstacles,
collect coins, and spend them in the shop.

Available commands:
  play       - Play in the local terminal
  serve      - Start SSH server for remote play
  bots       - List the bot roster
  scores     - View the best runs
  balances   - View wallet balances
  purchases  - View the purchase ledger

Examples:
  botrun play
  botrun play --seed 42
  botrun serve --ssh :2222
  botrun scores`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.botrun/botrun.db", "Path to the database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to custom game tuning YAML")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botsCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(purchasesCmd)
}

// newLogger builds the process logger. Environment overrides apply when the
// flag is unset.
func newLogger() *log.Logger {
	level := flagLogLevel
	if level == "" {
		if env, err := config.LoadEnv(); err == nil {
			level = env.LogLevel
		} else {
			level = "info"
		}
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "botrun",
	})
	logger.SetLevel(parsed)
	return logger
}

// dbPath resolves the database path: explicit flag wins, then the
// environment, then the default.
func dbPath(cmd *cobra.Command) string {
	if cmd.Flags().Changed("db") || cmd.InheritedFlags().Changed("db") {
		return flagDBPath
	}
	if env, err := config.LoadEnv(); err == nil && env.DBPath != "" {
		return env.DBPath
	}
	return flagDBPath
}

// newApp assembles the shared application state: configs, storage, logging.
func newApp(cmd *cobra.Command) (*tui.App, error) {
	logger := newLogger()

	game, err := config.LoadGame(flagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load game config: %w", err)
	}
	bots, err := config.LoadBots("")
	if err != nil {
		return nil, fmt.Errorf("cannot load bots config: %w", err)
	}
	econ, err := config.LoadEconomy("")
	if err != nil {
		return nil, fmt.Errorf("cannot load economy config: %w", err)
	}

	store, err := storage.Open(dbPath(cmd))
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	return &tui.App{
		Store:   store,
		Game:    game,
		Bots:    bots,
		Economy: econ,
		Logger:  logger,
		Emitter: telemetry.NewLogEmitter(logger),
	}, nil
}

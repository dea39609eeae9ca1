package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unit4productions/botrun/internal/bot"
	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/economy"
	"github.com/unit4productions/botrun/internal/storage"
)

var botsCmd = &cobra.Command{
	Use:   "bots",
	Short: "List the bot roster",
	Long: `Display every bot with its abilities, speed factor, and cooldowns.
Locked bots show whether their unlock has been purchased.

Examples:
  botrun bots`,
	Args: cobra.NoArgs,
	Run:  runBots,
}

func runBots(cmd *cobra.Command, _ []string) {
	bots, err := config.LoadBots("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading roster: %v\n", err)
		os.Exit(1)
	}
	roster, err := bot.NewRoster(bots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(dbPath(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open database: %v\n", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	fmt.Printf("  %-12s %-7s %-40s %s\n", "Bot", "Speed", "Abilities (cooldown)", "Status")
	fmt.Printf("  %-12s %-7s %-40s %s\n", "---", "-----", "--------------------", "------")
	for _, def := range roster.List() {
		abilities := make([]string, len(def.Abilities))
		for i, a := range def.Abilities {
			abilities[i] = fmt.Sprintf("%s (%.0fs)", a.String(), bot.CooldownFor(a))
		}

		status := "available"
		if def.Locked {
			status = "locked"
			if store != nil {
				if has, hasErr := store.HasEntitlement(economy.BotEntitlement(def.ID)); hasErr == nil && has {
					status = "unlocked (purchased)"
				}
			}
		}

		fmt.Printf("  %-12s x%-6.1f %-40s %s\n", def.Name, def.SpeedFactor, strings.Join(abilities, ", "), status)
	}
}

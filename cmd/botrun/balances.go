package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unit4productions/botrun/internal/economy"
	"github.com/unit4productions/botrun/internal/storage"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show wallet balances",
	Long: `Display the balance of each currency and the owned entitlements.

Examples:
  botrun balances`,
	Args: cobra.NoArgs,
	Run:  runBalances,
}

func runBalances(cmd *cobra.Command, _ []string) {
	store, err := storage.Open(dbPath(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ledger, err := economy.NewLedger(store, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Wallets")
	fmt.Println()
	for _, kind := range economy.Kinds {
		fmt.Printf("  %-10s %d\n", kind.String(), ledger.Balance(kind))
	}

	entitlements, err := store.Entitlements()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving entitlements: %v\n", err)
		os.Exit(1)
	}
	if len(entitlements) > 0 {
		fmt.Println()
		fmt.Println("Entitlements")
		fmt.Println()
		for _, id := range entitlements {
			fmt.Printf("  %s\n", id)
		}
	}
}

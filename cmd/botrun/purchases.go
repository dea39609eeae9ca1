package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unit4productions/botrun/internal/storage"
)

var flagPurchasesLimit int

var purchasesCmd = &cobra.Command{
	Use:   "purchases",
	Short: "Show the purchase ledger",
	Long: `Display recorded store transactions, newest first. Records whose
benefit was not applied yet (pending) indicate an interrupted purchase that
will be recovered on the next play session.

Examples:
  botrun purchases
  botrun purchases --limit 100`,
	Args: cobra.NoArgs,
	Run:  runPurchases,
}

func init() {
	purchasesCmd.Flags().IntVar(&flagPurchasesLimit, "limit", 50, "Maximum records to show")
}

func runPurchases(cmd *cobra.Command, _ []string) {
	store, err := storage.Open(dbPath(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.AllPurchases(flagPurchasesLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving purchases: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No purchases recorded.")
		return
	}

	fmt.Printf("  %-38s  %-20s  %-8s  %s\n", "Transaction", "Product", "Status", "Date")
	fmt.Printf("  %-38s  %-20s  %-8s  %s\n", "-----------", "-------", "------", "----")
	for _, rec := range records {
		status := "pending"
		if rec.BenefitApplied {
			status = "applied"
		}
		fmt.Printf("  %-38s  %-20s  %-8s  %s\n",
			rec.TransactionID, rec.ProductID, status,
			rec.CreatedAt.Format("2006-01-02 15:04"))
	}
}

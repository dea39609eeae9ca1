package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/unit4productions/botrun/internal/platform/tui"
	"github.com/unit4productions/botrun/internal/storage"
)

var flagScoresUI bool

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the best runs",
	Long: `Display the top 10 runs by score.

Examples:
  botrun scores
  botrun scores --ui    # interactive scrollable table`,
	Args: cobra.NoArgs,
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagScoresUI, "ui", false, "Open the interactive run history")
}

func runScores(cmd *cobra.Command, _ []string) {
	store, err := storage.Open(dbPath(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagScoresUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		if err := tui.RunScoreboard(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runs, err := store.TopRuns(10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Best runs")
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Play 'botrun play' to set the first high score!")
		return
	}

	fmt.Printf("  %-4s  %-12s  %-10s  %-6s  %s\n", "Rank", "Bot", "Score", "Time", "Date")
	fmt.Printf("  %-4s  %-12s  %-10s  %-6s  %s\n", "----", "---", "-----", "----", "----")
	for i, entry := range runs {
		fmt.Printf("  %-4d  %-12s  %-10d  %-6s  %s\n",
			i+1, entry.BotID, entry.Score,
			fmt.Sprintf("%ds", entry.DurationSecs),
			entry.CreatedAt.Format("2006-01-02 15:04"))
	}

	profile, err := store.LoadProfile()
	if err == nil {
		fmt.Println()
		fmt.Printf("Best: %d over %d sessions\n", profile.HighScore, profile.LifetimeSessions)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/unit4productions/botrun/internal/core"
	"github.com/unit4productions/botrun/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the local terminal",
	Long: `Start the game in the current terminal.

Controls:
  Space/Up   - Jump (press again in the air for double jump)
  1          - Shield
  2          - Magnetic field
  3          - Speed boost
  P          - Pause
  R          - Restart (after game over)
  V          - Watch a rewarded video to revive (after game over)
  Q/Ctrl+C   - Quit

Examples:
  botrun play
  botrun play --seed 42
  botrun play --config ./my-tuning.yaml`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func runPlay(cmd *cobra.Command, _ []string) {
	app, err := newApp(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Store.Close()

	// Get terminal size, with sane defaults for non-TTY stdout
	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}

	if err := tui.Run(app, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		os.Exit(1)
	}
}

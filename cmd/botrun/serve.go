package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/unit4productions/botrun/internal/config"
	"github.com/unit4productions/botrun/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the botrun SSH server",
	Long: `Start an SSH server that lets users connect and play remotely.

Each SSH connection gets its own game session over a shared database, so
all users see the same run history.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.botrun/host_key

Examples:
  botrun serve                           # Listen on :23235 with auto-generated key
  botrun serve --ssh :2222               # Listen on port 2222
  botrun serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, default :23235)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(cmd *cobra.Command, _ []string) {
	app, err := newApp(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Store.Close()

	address := flagSSHAddr
	if address == "" {
		if env, envErr := config.LoadEnv(); envErr == nil && env.SSHAddress != "" {
			address = env.SSHAddress
		} else {
			address = DefaultSSHAddress
		}
	}

	cfg := tui.SSHServerConfig{
		Address:     address,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}

	server, err := tui.NewSSHServer(cfg, app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting botrun SSH server on %s\n", cfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// DefaultSSHAddress is the listen address when neither flag nor environment
// provides one.
const DefaultSSHAddress = ":23235"

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	cli "github.com/neboloop/chromectl/cmd/chromectl"
	"github.com/neboloop/chromectl/internal/config"
	"github.com/neboloop/chromectl/internal/defaults"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Write the default config on first run
	if _, err := defaults.EnsureDataDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize data directory: %v\n", err)
	}

	c, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

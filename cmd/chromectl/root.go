package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/config"
	"github.com/neboloop/chromectl/internal/logging"
)

// prepare loads --config, applies flag overrides and installs the logger.
func prepare(cmd *cobra.Command) error {
	if cfgFile != "" {
		c, err := config.LoadFrom(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		AppConfig = c
	}
	if AppConfig == nil {
		AppConfig = config.DefaultConfig()
	}
	applyFlags(cmd, AppConfig)
	if err := AppConfig.Validate(); err != nil {
		return err
	}

	level := AppConfig.Log.Level
	if verbose {
		level = "debug"
	}
	_, err := logging.Setup(logging.Options{Level: level, Format: AppConfig.Log.Format})
	return err
}

// applyFlags copies explicitly set global flags over config values.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		c.DebugPort = portFlag
	}
	if flags.Changed("browser") {
		c.BrowserPath = browserArg
	}
	if flags.Changed("profile-dir") {
		c.ProfileDir = profileDir
	}
	if flags.Changed("driver") {
		c.Driver = driverArg
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "\nReceived signal: %v - shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

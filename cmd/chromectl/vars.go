package cli

import (
	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/config"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile    string
	portFlag   int
	browserArg string
	profileDir string
	driverArg  string
	verbose    bool
)

// AppConfig holds the loaded configuration (set by main, replaced by --config)
var AppConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	AppConfig = c

	rootCmd := &cobra.Command{
		Use:   "chromectl",
		Short: "chromectl - browser profiles for automation",
		Long: `chromectl launches Chromium-based browsers (Brave, Comet, Edge, Chrome,
Chromium) on named profiles with remote debugging enabled, attaches an
automation client and tears everything down when done.

Create a profile with 'chromectl profiles setup <name>', then use
'chromectl connect <name>' to open it under automation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return prepare(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: platform data directory)")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "remote debugging port (default from config, 9222)")
	rootCmd.PersistentFlags().StringVar(&browserArg, "browser", "", "browser executable (default: search known locations)")
	rootCmd.PersistentFlags().StringVar(&profileDir, "profile-dir", "", "base directory holding profiles")
	rootCmd.PersistentFlags().StringVar(&driverArg, "driver", "", "automation client: playwright or cdp")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add commands
	rootCmd.AddCommand(LocateCmd())
	rootCmd.AddCommand(ProbeCmd())
	rootCmd.AddCommand(ProfilesCmd())
	rootCmd.AddCommand(ConnectCmd())
	rootCmd.AddCommand(TabsCmd())
	rootCmd.AddCommand(FingerprintCmd())
	rootCmd.AddCommand(ProxyCmd())
	rootCmd.AddCommand(ConfigCmd())

	return rootCmd
}

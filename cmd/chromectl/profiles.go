package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/browser"
)

// ProfilesCmd manages browser profile directories
func ProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage browser profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := browser.NewProfileStore(AppConfig.ProfileDir)
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintf(out, "No profiles in %s.\n", store.BaseDir)
				return nil
			}
			fmt.Fprintf(out, "Profiles in %s:\n", store.BaseDir)
			for _, name := range names {
				status := "new"
				if store.Initialized(name) {
					status = "initialized"
				}
				fmt.Fprintf(out, "  %s (%s)\n", name, status)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path <name>",
		Short: "Print a profile's directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := browser.NewProfileStore(AppConfig.ProfileDir)
			if err != nil {
				return err
			}
			path, err := store.Path(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty profile directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := browser.NewProfileStore(AppConfig.ProfileDir)
			if err != nil {
				return err
			}
			path, err := store.Ensure(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(setupCmd())

	return cmd
}

func setupCmd() *cobra.Command {
	var (
		url     string
		message string
	)

	cmd := &cobra.Command{
		Use:   "setup <name>",
		Short: "Open a profile in a normal window to log in or configure it",
		Long: `Launches the browser on the named profile (created if missing) and waits
until you close the browser. Use it to sign in to sites before running
automation against the profile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			m, err := newManager(ctx, stdinReader(cmd), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return m.SetupProfile(ctx, args[0], browser.SetupOptions{
				URL:         url,
				WaitMessage: message,
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "page to open")
	cmd.Flags().StringVar(&message, "message", "", "text shown while waiting")
	return cmd
}

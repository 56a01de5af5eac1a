package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/fingerprint"
)

// FingerprintCmd resolves the fingerprint matching a proxy, IP or username
func FingerprintCmd() *cobra.Command {
	var (
		asJSON bool
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "fingerprint [proxy|ip|username]",
		Short: "Show the timezone, locale and window size for a proxy's country",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if list {
				for _, code := range fingerprint.Countries() {
					fp := fingerprint.ForCountry(code)
					fmt.Fprintf(out, "%s  %-20s %-6s %dx%d\n", code, fp.Timezone, fp.Locale, fp.Screen.Width, fp.Screen.Height)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a proxy, IP or username is required")
			}

			resolver, err := newResolver(AppConfig)
			if err != nil {
				return err
			}
			defer resolver.Close()

			res := resolver.Resolve(cmd.Context(), args[0])
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			source := res.Source
			if !res.Resolved {
				source = "default"
			}
			fmt.Fprintf(out, "country:  %s (%s)\n", res.Country, source)
			fmt.Fprintf(out, "timezone: %s\n", res.Fingerprint.Timezone)
			fmt.Fprintf(out, "locale:   %s\n", res.Fingerprint.Locale)
			fmt.Fprintf(out, "window:   %dx%d\n", res.Fingerprint.Screen.Width, res.Fingerprint.Screen.Height)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&list, "list", false, "list the known countries")
	return cmd
}

package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/browser"
)

// LocateCmd prints the browser executable that would be launched
func LocateCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Show the browser executable chromectl will use",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			locator := browser.NewLocator(browser.NewTerminalPrompter(stdinReader(cmd), out), slog.Default())

			if all {
				for _, c := range locator.Candidates() {
					mark := " "
					if locator.Exists(c.Path) {
						mark = "*"
					}
					fmt.Fprintf(out, "%s %-8s %s\n", mark, c.Kind, c.Path)
				}
				return nil
			}

			exe, err := locator.Find(AppConfig.BrowserPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s)\n", exe.Path, exe.Kind)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every known install location, * marks existing ones")
	return cmd
}

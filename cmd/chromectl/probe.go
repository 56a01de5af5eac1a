package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/chromectl/internal/browser"
)

// ProbeCmd reports whether a debug port is free
func ProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe [port]",
		Short: "Check whether a port is free for remote debugging",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port := AppConfig.DebugPort
			if len(args) > 0 {
				p, err := strconv.Atoi(args[0])
				if err != nil || p <= 0 || p > 65535 {
					return fmt.Errorf("invalid port %q", args[0])
				}
				port = p
			}

			out := cmd.OutOrStdout()
			if browser.IsPortOpen(port) {
				fmt.Fprintf(out, "port %d is free\n", port)
				return nil
			}
			if browser.IsChromeReachable(browser.DebugURL(port), time.Second) {
				fmt.Fprintf(out, "port %d is in use by a browser debug endpoint\n", port)
			} else {
				fmt.Fprintf(out, "port %d is in use\n", port)
			}
			return &browser.PortInUseError{Port: port}
		},
	}
}
